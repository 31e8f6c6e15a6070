package ratecard

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time {
	return c.now
}

type fakeRepository struct {
	cards map[string]*RateCard
	order []string
	seq   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{cards: make(map[string]*RateCard)}
}

func (r *fakeRepository) Create(_ context.Context, card *RateCard) (*RateCard, error) {
	r.seq++
	stored := cloneCard(card)
	stored.ID = "card-" + strconv.Itoa(r.seq)
	r.cards[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneCard(stored), nil
}

func (r *fakeRepository) Update(_ context.Context, card *RateCard) (*RateCard, error) {
	if _, ok := r.cards[card.ID]; !ok {
		return nil, ErrRateCardNotFound
	}
	stored := cloneCard(card)
	r.cards[card.ID] = stored
	return cloneCard(stored), nil
}

func (r *fakeRepository) FindByID(_ context.Context, id string) (*RateCard, error) {
	card, ok := r.cards[id]
	if !ok {
		return nil, ErrRateCardNotFound
	}
	return cloneCard(card), nil
}

func (r *fakeRepository) ListForClientRole(_ context.Context, clientID, jobRoleID string) ([]*RateCard, error) {
	var result []*RateCard
	for _, id := range r.order {
		card := r.cards[id]
		if card.ClientID == clientID && card.JobRoleID == jobRoleID {
			result = append(result, cloneCard(card))
		}
	}
	return result, nil
}

func (r *fakeRepository) List(_ context.Context, filter ListRateCardsFilter) ([]*RateCard, string, error) {
	var matched []*RateCard
	for _, id := range r.order {
		card := r.cards[id]
		if card.ClientID != filter.ClientID {
			continue
		}
		if filter.JobRoleID != "" && card.JobRoleID != filter.JobRoleID {
			continue
		}
		matched = append(matched, cloneCard(card))
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

func cloneCard(card *RateCard) *RateCard {
	clone := *card
	if card.EndDate != nil {
		end := *card.EndDate
		clone.EndDate = &end
	}
	return &clone
}

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(_ context.Context, event audit.Event) {
	a.events = append(a.events, event)
}

func serviceFixture(t *testing.T) (*Service, *fakeRepository) {
	t.Helper()

	repo := newFakeRepository()
	clock := stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, clock, nil, nil, NewHolidayCalendar(nil)), repo
}

func createRateCardInput() CreateRateCardInput {
	return CreateRateCardInput{
		ClientID:      "client-1",
		JobRoleID:     "role-1",
		EffectiveDate: time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC),
		ClientRates: Rates{
			Day:         decimal.NewFromFloat(20.005),
			Night:       decimal.NewFromInt(25),
			Weekend:     decimal.NewFromInt(28),
			BankHoliday: decimal.NewFromInt(40),
		},
		WorkerRates: Rates{
			Day:         decimal.NewFromInt(14),
			Night:       decimal.NewFromInt(17),
			Weekend:     decimal.NewFromInt(19),
			BankHoliday: decimal.NewFromInt(28),
		},
	}
}

func TestCreateRateCard_NormalizesDatesAndRates(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	created, err := svc.CreateRateCard(context.Background(), createRateCardInput())
	if err != nil {
		t.Fatalf("CreateRateCard returned error: %v", err)
	}

	if !created.EffectiveDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date-only effective date, got %s", created.EffectiveDate)
	}
	if !created.ClientRates.Day.Equal(decimal.NewFromFloat(20.01)) {
		t.Errorf("expected day rate rounded to 20.01, got %s", created.ClientRates.Day)
	}
	if !created.Active {
		t.Error("expected active default")
	}
}

func TestCreateRateCard_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	in := createRateCardInput()
	in.ClientRates.Night = decimal.NewFromInt(-1)
	if _, err := svc.CreateRateCard(context.Background(), in); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}

	in = createRateCardInput()
	end := in.EffectiveDate.AddDate(0, 0, -1)
	in.EndDate = &end
	if _, err := svc.CreateRateCard(context.Background(), in); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}

	in = createRateCardInput()
	in.EffectiveDate = time.Time{}
	if _, err := svc.CreateRateCard(context.Background(), in); !errors.Is(err, ErrInvalidEffectiveDate) {
		t.Errorf("expected ErrInvalidEffectiveDate, got %v", err)
	}
}

func TestUpdateRateCard_ClearEndDate(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	in := createRateCardInput()
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	in.EndDate = &end
	created, err := svc.CreateRateCard(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateRateCard returned error: %v", err)
	}

	updated, err := svc.UpdateRateCard(context.Background(), UpdateRateCardInput{
		ID:         created.ID,
		EndDateSet: true,
	})
	if err != nil {
		t.Fatalf("UpdateRateCard returned error: %v", err)
	}
	if updated.EndDate != nil {
		t.Errorf("expected end date cleared, got %s", updated.EndDate)
	}
}

func TestRateCardWrites_EmitAuditEvents(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	auditor := &recordingAuditor{}
	svc := NewService(repo, stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, nil, auditor, NewHolidayCalendar(nil))

	in := createRateCardInput()
	in.Actor = "user-3"
	created, err := svc.CreateRateCard(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateRateCard returned error: %v", err)
	}

	inactive := false
	if _, err := svc.UpdateRateCard(context.Background(), UpdateRateCardInput{ID: created.ID, Active: &inactive, Actor: "user-3"}); err != nil {
		t.Fatalf("UpdateRateCard returned error: %v", err)
	}

	if len(auditor.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(auditor.events))
	}

	if auditor.events[0].Action != "ratecard.created" || auditor.events[1].Action != "ratecard.updated" {
		t.Errorf("unexpected actions %s / %s", auditor.events[0].Action, auditor.events[1].Action)
	}
	for _, event := range auditor.events {
		if event.Actor != "user-3" || event.EntityType != "rate_card" || event.EntityID != created.ID {
			t.Errorf("unexpected event %+v", event)
		}
	}
	if auditor.events[1].Before == nil || auditor.events[1].After == nil {
		t.Error("update event must carry before and after snapshots")
	}
}

func TestQuoteRate_ClassifiesFromShiftStart(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.CreateRateCard(context.Background(), createRateCardInput()); err != nil {
		t.Fatalf("CreateRateCard returned error: %v", err)
	}

	// 2025-06-07 is a Saturday.
	shiftStart := time.Date(2025, 6, 7, 22, 0, 0, 0, time.UTC)
	quote, err := svc.QuoteRate(context.Background(), QuoteRateInput{
		ClientID:   "client-1",
		JobRoleID:  "role-1",
		ShiftStart: &shiftStart,
	})
	if err != nil {
		t.Fatalf("QuoteRate returned error: %v", err)
	}

	if quote.WorkType != WorkTypeWeekend {
		t.Errorf("expected weekend, got %s", quote.WorkType)
	}
	if !quote.ClientRate.Equal(decimal.NewFromInt(28)) {
		t.Errorf("expected client rate 28, got %s", quote.ClientRate)
	}
}

func TestQuoteRate_ExplicitWorkTypeWins(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.CreateRateCard(context.Background(), createRateCardInput()); err != nil {
		t.Fatalf("CreateRateCard returned error: %v", err)
	}

	shiftStart := time.Date(2025, 6, 7, 22, 0, 0, 0, time.UTC)
	wt := WorkTypeDay
	quote, err := svc.QuoteRate(context.Background(), QuoteRateInput{
		ClientID:   "client-1",
		JobRoleID:  "role-1",
		WorkType:   &wt,
		ShiftStart: &shiftStart,
	})
	if err != nil {
		t.Fatalf("QuoteRate returned error: %v", err)
	}

	if quote.WorkType != WorkTypeDay {
		t.Errorf("expected explicit day, got %s", quote.WorkType)
	}
}

func TestQuoteRate_RequiresWorkTypeOrShiftStart(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	if _, err := svc.QuoteRate(context.Background(), QuoteRateInput{
		ClientID:  "client-1",
		JobRoleID: "role-1",
	}); !errors.Is(err, ErrInvalidWorkType) {
		t.Fatalf("expected ErrInvalidWorkType, got %v", err)
	}

	bad := WorkType("overtime")
	if _, err := svc.QuoteRate(context.Background(), QuoteRateInput{
		ClientID:  "client-1",
		JobRoleID: "role-1",
		WorkType:  &bad,
	}); !errors.Is(err, ErrInvalidWorkType) {
		t.Fatalf("expected ErrInvalidWorkType for unknown type, got %v", err)
	}
}

func TestQuoteRate_NoApplicableCard(t *testing.T) {
	t.Parallel()

	svc, _ := serviceFixture(t)

	wt := WorkTypeDay
	if _, err := svc.QuoteRate(context.Background(), QuoteRateInput{
		ClientID:  "client-1",
		JobRoleID: "role-1",
		WorkType:  &wt,
	}); !errors.Is(err, ErrNoApplicableRateCard) {
		t.Fatalf("expected ErrNoApplicableRateCard, got %v", err)
	}
}
