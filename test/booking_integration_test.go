//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"

	repo "github.com/ogurasousui/staffing-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

const migrationsDir = "assets/migrations"

// TestBookingLifecycleIntegration は職種登録からタイムシート承認までの
// 一連の業務フローを実データベース上で検証します。
func TestBookingLifecycleIntegration(t *testing.T) {
	t.Parallel()

	cfgPath := configPathFromEnv()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	txManager := pg.NewTransactionManager(pool)
	calendar := ratecard.NewHolidayCalendar(nil)
	clock := stubClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	jobRoleRepo := repo.NewJobRoleRepository(pool)
	clientRepo := repo.NewClientRepository(pool)
	candidateRepo := repo.NewCandidateRepository(pool)
	rateCardRepo := repo.NewRateCardRepository(pool)
	bookingRepo := repo.NewBookingRepository(pool)
	timesheetRepo := repo.NewTimesheetRepository(pool)
	invoiceRepo := repo.NewInvoiceRepository(pool)

	jobRoleSvc := jobrole.NewService(jobRoleRepo, clock, txManager)
	clientSvc := client.NewService(clientRepo, clock, txManager, nil)
	candidateSvc := candidate.NewService(candidateRepo, roleDirectory{repo: jobRoleRepo}, clock, txManager, nil)
	rateCardSvc := ratecard.NewService(rateCardRepo, clock, txManager, nil, calendar)
	bookingSvc := booking.NewService(bookingRepo, candidateRepo, rateCardRepo, clock, txManager, nil, calendar)
	timesheetSvc := timesheet.NewService(timesheetRepo, bookingRepo, clock, txManager, nil)
	invoiceSvc := invoice.NewService(invoiceRepo, billingDirectory{
		timesheets: timesheetRepo,
		bookings:   bookingRepo,
		clients:    clientRepo,
	}, clock, txManager, nil)

	role, err := jobRoleSvc.CreateJobRole(ctx, jobrole.CreateJobRoleInput{Title: "Registered Nurse"})
	if err != nil {
		t.Fatalf("CreateJobRole error: %v", err)
	}

	if _, err := jobRoleSvc.AddComplianceDocument(ctx, jobrole.AddComplianceDocumentInput{
		JobRoleID: role.ID,
		Name:      "Right to Work",
	}); err != nil {
		t.Fatalf("AddComplianceDocument error: %v", err)
	}

	cl, err := clientSvc.CreateClient(ctx, client.CreateClientInput{
		Name:          "St Mary Hospital",
		ContactPerson: "Jane Cooper",
		Email:         "bookings@stmary.example.com",
	})
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}

	if _, err := rateCardSvc.CreateRateCard(ctx, ratecard.CreateRateCardInput{
		ClientID:      cl.ID,
		JobRoleID:     role.ID,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ClientRates: ratecard.Rates{
			Day:         decimal.NewFromInt(20),
			Night:       decimal.NewFromInt(25),
			Weekend:     decimal.NewFromInt(28),
			BankHoliday: decimal.NewFromInt(40),
		},
		WorkerRates: ratecard.Rates{
			Day:         decimal.NewFromInt(14),
			Night:       decimal.NewFromInt(17),
			Weekend:     decimal.NewFromInt(19),
			BankHoliday: decimal.NewFromInt(28),
		},
	}); err != nil {
		t.Fatalf("CreateRateCard error: %v", err)
	}

	cand, err := candidateSvc.CreateCandidate(ctx, candidate.CreateCandidateInput{
		JobRoleID:    role.ID,
		FirstName:    "Aiko",
		LastName:     "Tanaka",
		Email:        "aiko@example.com",
		Availability: []string{"2025-06-10"},
		Actor:        "user-1",
	})
	if err != nil {
		t.Fatalf("CreateCandidate error: %v", err)
	}

	summary, err := candidateSvc.ComplianceSummary(ctx, candidate.ComplianceSummaryInput{CandidateID: cand.ID})
	if err != nil {
		t.Fatalf("ComplianceSummary error: %v", err)
	}
	if summary.Percentage != 0 || len(summary.Records) != 1 {
		t.Fatalf("expected one pending record, got %+v", summary)
	}

	if _, err := candidateSvc.ReviewComplianceRecord(ctx, candidate.ReviewComplianceRecordInput{
		RecordID: summary.Records[0].ID,
		Status:   candidate.ComplianceStatusApproved,
		Actor:    "user-1",
	}); err != nil {
		t.Fatalf("ReviewComplianceRecord error: %v", err)
	}

	bk, err := bookingSvc.CreateBooking(ctx, booking.CreateBookingInput{
		ClientID:         cl.ID,
		JobRoleID:        role.ID,
		Location:         "Ward 3",
		ShiftStart:       time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		ShiftEnd:         time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC),
		CandidatesNeeded: 1,
		Actor:            "user-1",
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if bk.WorkType != ratecard.WorkTypeDay {
		t.Fatalf("expected day work type, got %s", bk.WorkType)
	}

	assignment, err := bookingSvc.AssignCandidate(ctx, booking.AssignCandidateInput{
		BookingID:   bk.ID,
		CandidateID: cand.ID,
		Actor:       "user-1",
	})
	if err != nil {
		t.Fatalf("AssignCandidate error: %v", err)
	}

	filled, err := bookingRepo.FindByID(ctx, bk.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if filled.Status != booking.StatusFilled {
		t.Fatalf("expected filled booking, got %s", filled.Status)
	}

	checkIn := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)
	if _, err := bookingSvc.UpdateAssignmentStatus(ctx, booking.UpdateAssignmentStatusInput{
		AssignmentID: assignment.ID,
		Status:       booking.AssignmentStatusCompleted,
		CheckInAt:    &checkIn,
		CheckOutAt:   &checkOut,
		Actor:        "user-1",
	}); err != nil {
		t.Fatalf("UpdateAssignmentStatus error: %v", err)
	}

	ts, err := timesheetSvc.CreateTimesheet(ctx, timesheet.CreateTimesheetInput{
		AssignmentID: assignment.ID,
		Actor:        "user-1",
	})
	if err != nil {
		t.Fatalf("CreateTimesheet error: %v", err)
	}
	if !ts.TotalAmount.Equal(decimal.NewFromInt(112)) {
		t.Fatalf("expected total amount 112, got %s", ts.TotalAmount)
	}

	if _, err := timesheetSvc.SubmitTimesheet(ctx, timesheet.SubmitTimesheetInput{ID: ts.ID, Actor: "user-1"}); err != nil {
		t.Fatalf("SubmitTimesheet error: %v", err)
	}

	approved, err := timesheetSvc.ApproveTimesheet(ctx, timesheet.ApproveTimesheetInput{ID: ts.ID, Actor: "finance-1"})
	if err != nil {
		t.Fatalf("ApproveTimesheet error: %v", err)
	}
	if approved.Status != timesheet.StatusApproved {
		t.Fatalf("expected approved timesheet, got %s", approved.Status)
	}

	inv, err := invoiceSvc.CreateInvoice(ctx, invoice.CreateInvoiceInput{
		ClientID:     cl.ID,
		TimesheetIDs: []string{ts.ID},
		Actor:        "finance-1",
	})
	if err != nil {
		t.Fatalf("CreateInvoice error: %v", err)
	}
	// 8h at the client day rate of 20 plus 20% VAT.
	if !inv.TotalAmount.Equal(decimal.NewFromInt(192)) {
		t.Fatalf("expected invoice total 192, got %s", inv.TotalAmount)
	}
	if len(inv.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(inv.LineItems))
	}

	if _, err := invoiceSvc.SendInvoice(ctx, invoice.SendInvoiceInput{ID: inv.ID, Actor: "finance-1"}); err != nil {
		t.Fatalf("SendInvoice error: %v", err)
	}

	paid, err := invoiceSvc.MarkInvoicePaid(ctx, invoice.MarkInvoicePaidInput{ID: inv.ID, Actor: "finance-1"})
	if err != nil {
		t.Fatalf("MarkInvoicePaid error: %v", err)
	}
	if paid.Status != invoice.StatusPaid {
		t.Fatalf("expected paid invoice, got %s", paid.Status)
	}

	if _, err := invoiceSvc.CreateInvoice(ctx, invoice.CreateInvoiceInput{
		ClientID:     cl.ID,
		TimesheetIDs: []string{ts.ID},
	}); !errors.Is(err, invoice.ErrTimesheetInvoiced) {
		t.Fatalf("expected ErrTimesheetInvoiced on double billing, got %v", err)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "assets/local.yaml"
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type billingDirectory struct {
	timesheets *repo.TimesheetRepository
	bookings   *repo.BookingRepository
	clients    *repo.ClientRepository
}

func (d billingDirectory) FindTimesheet(ctx context.Context, id string) (*timesheet.Timesheet, error) {
	return d.timesheets.FindByID(ctx, id)
}

func (d billingDirectory) FindBooking(ctx context.Context, id string) (*booking.BookingRequest, error) {
	return d.bookings.FindByID(ctx, id)
}

func (d billingDirectory) FindClient(ctx context.Context, id string) (*client.Client, error) {
	return d.clients.FindByID(ctx, id)
}

type roleDirectory struct {
	repo *repo.JobRoleRepository
}

func (d roleDirectory) ListComplianceDocuments(ctx context.Context, jobRoleID string) ([]candidate.DocumentRequirement, error) {
	docs, err := d.repo.ListComplianceDocuments(ctx, jobRoleID)
	if err != nil {
		return nil, err
	}

	requirements := make([]candidate.DocumentRequirement, 0, len(docs))
	for _, doc := range docs {
		requirements = append(requirements, candidate.DocumentRequirement{
			DocumentID:     doc.ID,
			Name:           doc.Name,
			Required:       doc.Required,
			RequiresExpiry: doc.RequiresExpiry,
		})
	}

	return requirements, nil
}
