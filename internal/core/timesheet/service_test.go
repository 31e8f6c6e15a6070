package timesheet

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time {
	return c.now
}

type fakeRepository struct {
	timesheets map[string]*Timesheet
	order      []string
	seq        int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{timesheets: make(map[string]*Timesheet)}
}

func (r *fakeRepository) Create(_ context.Context, t *Timesheet) (*Timesheet, error) {
	for _, existing := range r.timesheets {
		if existing.AssignmentID == t.AssignmentID {
			return nil, ErrAlreadyExists
		}
	}
	r.seq++
	stored := cloneTimesheet(t)
	stored.ID = "ts-" + strconv.Itoa(r.seq)
	r.timesheets[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneTimesheet(stored), nil
}

func (r *fakeRepository) Update(_ context.Context, t *Timesheet) (*Timesheet, error) {
	if _, ok := r.timesheets[t.ID]; !ok {
		return nil, ErrTimesheetNotFound
	}
	stored := cloneTimesheet(t)
	r.timesheets[t.ID] = stored
	return cloneTimesheet(stored), nil
}

func (r *fakeRepository) FindByID(_ context.Context, id string) (*Timesheet, error) {
	t, ok := r.timesheets[id]
	if !ok {
		return nil, ErrTimesheetNotFound
	}
	return cloneTimesheet(t), nil
}

func (r *fakeRepository) FindByAssignmentID(_ context.Context, assignmentID string) (*Timesheet, error) {
	for _, t := range r.timesheets {
		if t.AssignmentID == assignmentID {
			return cloneTimesheet(t), nil
		}
	}
	return nil, ErrTimesheetNotFound
}

func (r *fakeRepository) List(_ context.Context, filter ListTimesheetsFilter) ([]*Timesheet, string, error) {
	var matched []*Timesheet
	for _, id := range r.order {
		t := r.timesheets[id]
		if filter.CandidateID != "" && t.CandidateID != filter.CandidateID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		matched = append(matched, cloneTimesheet(t))
	}

	if filter.Offset >= len(matched) {
		return nil, "", nil
	}
	matched = matched[filter.Offset:]

	nextToken := ""
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}
	return matched, nextToken, nil
}

func (r *fakeRepository) NextSequence(_ context.Context, workDate time.Time) (int, error) {
	count := 0
	for _, t := range r.timesheets {
		if t.WorkDate.Equal(workDate) {
			count++
		}
	}
	return count + 1, nil
}

func cloneTimesheet(t *Timesheet) *Timesheet {
	clone := *t
	return &clone
}

type fakeAssignmentDirectory struct {
	assignments map[string]*booking.Assignment
	bookings    map[string]*booking.BookingRequest
}

func (d *fakeAssignmentDirectory) FindAssignment(_ context.Context, id string) (*booking.Assignment, error) {
	a, ok := d.assignments[id]
	if !ok {
		return nil, booking.ErrAssignmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (d *fakeAssignmentDirectory) FindByID(_ context.Context, id string) (*booking.BookingRequest, error) {
	b, ok := d.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func completedAssignment() *booking.Assignment {
	checkIn := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 6, 10, 17, 30, 0, 0, time.UTC)
	return &booking.Assignment{
		ID:          "assign-1",
		BookingID:   "booking-1",
		CandidateID: "cand-1",
		Status:      booking.AssignmentStatusCompleted,
		CheckInAt:   &checkIn,
		CheckOutAt:  &checkOut,
	}
}

func timesheetFixture(t *testing.T) (*Service, *fakeRepository, *fakeAssignmentDirectory) {
	t.Helper()

	repo := newFakeRepository()
	directory := &fakeAssignmentDirectory{
		assignments: map[string]*booking.Assignment{"assign-1": completedAssignment()},
		bookings: map[string]*booking.BookingRequest{
			"booking-1": {
				ID:         "booking-1",
				ClientID:   "client-1",
				JobRoleID:  "role-1",
				WorkerRate: decimal.NewFromInt(14),
			},
		},
	}

	clock := stubClock{now: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, directory, clock, nil, nil)
	return svc, repo, directory
}

func TestCreateTimesheet_ComputesAmountAndNumber(t *testing.T) {
	t.Parallel()

	svc, _, _ := timesheetFixture(t)

	created, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{
		AssignmentID: "assign-1",
		Actor:        "user-1",
	})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	if created.TimesheetNumber != "TS20250610001" {
		t.Errorf("expected TS20250610001, got %s", created.TimesheetNumber)
	}
	if !created.HoursWorked.Equal(decimal.NewFromFloat(8.5)) {
		t.Errorf("expected 8.5 hours, got %s", created.HoursWorked)
	}
	if !created.HourlyRate.Equal(decimal.NewFromInt(14)) {
		t.Errorf("expected hourly rate 14, got %s", created.HourlyRate)
	}
	if !created.TotalAmount.Equal(decimal.NewFromInt(119)) {
		t.Errorf("expected total 119, got %s", created.TotalAmount)
	}
	if created.Status != StatusDraft {
		t.Errorf("expected draft, got %s", created.Status)
	}
	if !created.WorkDate.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected work date 2025-06-10, got %s", created.WorkDate)
	}
}

type recordingTxManager struct {
	readOnly     int
	readWrite    int
	serializable int
}

func (m *recordingTxManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	m.readOnly++
	return fn(ctx)
}

func (m *recordingTxManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	m.readWrite++
	return fn(ctx)
}

func (m *recordingTxManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	m.serializable++
	return fn(ctx)
}

func TestCreateTimesheet_RunsSerializable(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	directory := &fakeAssignmentDirectory{
		assignments: map[string]*booking.Assignment{"assign-1": completedAssignment()},
		bookings: map[string]*booking.BookingRequest{
			"booking-1": {ID: "booking-1", WorkerRate: decimal.NewFromInt(14)},
		},
	}
	txm := &recordingTxManager{}
	svc := NewService(repo, directory, stubClock{now: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)}, txm, nil)

	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"}); err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	if txm.serializable != 1 {
		t.Errorf("expected one serializable transaction, got %d", txm.serializable)
	}
	if txm.readWrite != 0 {
		t.Errorf("expected no read-write transaction for creation, got %d", txm.readWrite)
	}
}

func TestCreateTimesheet_WorkDateFromLocalCheckIn(t *testing.T) {
	t.Parallel()

	svc, _, directory := timesheetFixture(t)

	// 01:00 JST は UTC では前日の 16:00。勤務日はチェックイン時刻の暦日で決まる。
	tokyo := time.FixedZone("JST", 9*60*60)
	checkIn := time.Date(2025, 6, 10, 1, 0, 0, 0, tokyo)
	checkOut := checkIn.Add(8 * time.Hour)
	directory.assignments["assign-1"].CheckInAt = &checkIn
	directory.assignments["assign-1"].CheckOutAt = &checkOut

	created, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	if !created.WorkDate.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected work date 2025-06-10, got %s", created.WorkDate)
	}
	if created.TimesheetNumber != "TS20250610001" {
		t.Errorf("expected TS20250610001, got %s", created.TimesheetNumber)
	}
}

func TestCreateTimesheet_SequencePerWorkDate(t *testing.T) {
	t.Parallel()

	svc, _, directory := timesheetFixture(t)

	second := completedAssignment()
	second.ID = "assign-2"
	second.CandidateID = "cand-2"
	directory.assignments["assign-2"] = second

	first, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}
	next, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-2"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	if first.TimesheetNumber != "TS20250610001" || next.TimesheetNumber != "TS20250610002" {
		t.Errorf("unexpected numbers: %s, %s", first.TimesheetNumber, next.TimesheetNumber)
	}
}

func TestCreateTimesheet_RequiresCompletedAssignment(t *testing.T) {
	t.Parallel()

	svc, _, directory := timesheetFixture(t)

	directory.assignments["assign-1"].Status = booking.AssignmentStatusConfirmed

	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"}); !errors.Is(err, ErrAssignmentNotCompleted) {
		t.Fatalf("expected ErrAssignmentNotCompleted, got %v", err)
	}
}

func TestCreateTimesheet_UnknownAssignment(t *testing.T) {
	t.Parallel()

	svc, _, _ := timesheetFixture(t)

	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-missing"}); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestCreateTimesheet_DuplicateAssignment(t *testing.T) {
	t.Parallel()

	svc, _, _ := timesheetFixture(t)

	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"}); err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestTimesheetLifecycle(t *testing.T) {
	t.Parallel()

	svc, _, _ := timesheetFixture(t)

	created, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}

	// 下書きのまま承認はできない。
	if _, err := svc.ApproveTimesheet(context.Background(), ApproveTimesheetInput{ID: created.ID, Actor: "finance-1"}); !errors.Is(err, ErrNotReviewable) {
		t.Fatalf("expected ErrNotReviewable for draft, got %v", err)
	}

	submitted, err := svc.SubmitTimesheet(context.Background(), SubmitTimesheetInput{ID: created.ID, Actor: "cand-1"})
	if err != nil {
		t.Fatalf("SubmitTimesheet returned error: %v", err)
	}
	if submitted.Status != StatusSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("expected submitted with timestamp, got %s", submitted.Status)
	}

	// 二重提出はできない。
	if _, err := svc.SubmitTimesheet(context.Background(), SubmitTimesheetInput{ID: created.ID}); !errors.Is(err, ErrNotSubmittable) {
		t.Fatalf("expected ErrNotSubmittable, got %v", err)
	}

	approved, err := svc.ApproveTimesheet(context.Background(), ApproveTimesheetInput{ID: created.ID, Actor: "finance-1"})
	if err != nil {
		t.Fatalf("ApproveTimesheet returned error: %v", err)
	}
	if approved.Status != StatusApproved || approved.ReviewedBy != "finance-1" || approved.ReviewedAt == nil {
		t.Errorf("unexpected approved state: %+v", approved)
	}

	// 承認済みは再審査できない。
	if _, err := svc.RejectTimesheet(context.Background(), RejectTimesheetInput{ID: created.ID, Reason: "late"}); !errors.Is(err, ErrNotReviewable) {
		t.Fatalf("expected ErrNotReviewable after approval, got %v", err)
	}
}

func TestRejectTimesheet_RequiresReason(t *testing.T) {
	t.Parallel()

	svc, _, _ := timesheetFixture(t)

	created, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}
	if _, err := svc.SubmitTimesheet(context.Background(), SubmitTimesheetInput{ID: created.ID}); err != nil {
		t.Fatalf("SubmitTimesheet returned error: %v", err)
	}

	if _, err := svc.RejectTimesheet(context.Background(), RejectTimesheetInput{ID: created.ID, Reason: "  "}); !errors.Is(err, ErrRejectReasonRequired) {
		t.Fatalf("expected ErrRejectReasonRequired, got %v", err)
	}

	rejected, err := svc.RejectTimesheet(context.Background(), RejectTimesheetInput{ID: created.ID, Reason: "hours do not match", Actor: "finance-1"})
	if err != nil {
		t.Fatalf("RejectTimesheet returned error: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RejectReason != "hours do not match" {
		t.Errorf("unexpected rejected state: %+v", rejected)
	}
}

func TestListTimesheets_FilterByStatus(t *testing.T) {
	t.Parallel()

	svc, _, directory := timesheetFixture(t)

	second := completedAssignment()
	second.ID = "assign-2"
	second.CandidateID = "cand-2"
	directory.assignments["assign-2"] = second

	first, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}
	if _, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{AssignmentID: "assign-2"}); err != nil {
		t.Fatalf("CreateTimesheet returned error: %v", err)
	}
	if _, err := svc.SubmitTimesheet(context.Background(), SubmitTimesheetInput{ID: first.ID}); err != nil {
		t.Fatalf("SubmitTimesheet returned error: %v", err)
	}

	status := StatusSubmitted
	result, err := svc.ListTimesheets(context.Background(), ListTimesheetsInput{Status: &status})
	if err != nil {
		t.Fatalf("ListTimesheets returned error: %v", err)
	}
	if len(result.Timesheets) != 1 || result.Timesheets[0].ID != first.ID {
		t.Errorf("expected only the submitted timesheet, got %d entries", len(result.Timesheets))
	}

	bad := Status("unknown")
	if _, err := svc.ListTimesheets(context.Background(), ListTimesheetsInput{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestFormatTimesheetNumber(t *testing.T) {
	t.Parallel()

	workDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatTimesheetNumber(workDate, 12); got != "TS20251201012" {
		t.Errorf("expected TS20251201012, got %s", got)
	}
}
