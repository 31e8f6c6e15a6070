package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/adapters/http/handler"
	"github.com/ogurasousui/staffing-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
	platformaudit "github.com/ogurasousui/staffing-clean-arch/internal/platform/audit"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/authz"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/logging"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	auditor := platformaudit.NewZapRecorder(logger.Named("audit"))
	calendar := ratecard.NewHolidayCalendar(cfg.Holidays.ExtraDates)

	jobRoleRepo := postgres.NewJobRoleRepository(dbPool)
	clientRepo := postgres.NewClientRepository(dbPool)
	candidateRepo := postgres.NewCandidateRepository(dbPool)
	rateCardRepo := postgres.NewRateCardRepository(dbPool)
	bookingRepo := postgres.NewBookingRepository(dbPool)
	timesheetRepo := postgres.NewTimesheetRepository(dbPool)
	invoiceRepo := postgres.NewInvoiceRepository(dbPool)

	jobRoleSvc := jobrole.NewService(jobRoleRepo, nil, txManager)
	clientSvc := client.NewService(clientRepo, nil, txManager, auditor)
	candidateSvc := candidate.NewService(candidateRepo, candidateRoleDirectory{repo: jobRoleRepo}, nil, txManager, auditor)
	rateCardSvc := ratecard.NewService(rateCardRepo, nil, txManager, auditor, calendar)
	bookingSvc := booking.NewService(bookingRepo, candidateRepo, rateCardRepo, nil, txManager, auditor, calendar)
	timesheetSvc := timesheet.NewService(timesheetRepo, bookingRepo, nil, txManager, auditor)
	invoiceSvc := invoice.NewService(invoiceRepo, billingDirectory{
		timesheets: timesheetRepo,
		bookings:   bookingRepo,
		clients:    clientRepo,
	}, nil, txManager, auditor)

	router := handler.NewRouter(handler.Dependencies{
		JobRoles:   jobRoleSvc,
		Clients:    clientSvc,
		Candidates: candidateSvc,
		RateCards:  rateCardSvc,
		Bookings:   bookingSvc,
		Timesheets: timesheetSvc,
		Invoices:   invoiceSvc,
		Policy:     authz.DefaultPolicy(),
		Logger:     logger,
	})

	httpServer := server.New(cfg.Server, router, logger)

	if err := httpServer.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

// billingDirectory は請求書サービスが参照するタイムシート・予約・クライアント
// リポジトリをまとめます。
type billingDirectory struct {
	timesheets *postgres.TimesheetRepository
	bookings   *postgres.BookingRepository
	clients    *postgres.ClientRepository
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

// candidateRoleDirectory は職種リポジトリの書類定義を候補者サービスの
// スナップショット型へ変換します。
type candidateRoleDirectory struct {
	repo *postgres.JobRoleRepository
}

func (d candidateRoleDirectory) ListComplianceDocuments(ctx context.Context, jobRoleID string) ([]candidate.DocumentRequirement, error) {
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
