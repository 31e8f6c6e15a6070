package ratecard

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testCard(id string, effective time.Time, end *time.Time, active bool) *RateCard {
	return &RateCard{
		ID:            id,
		ClientID:      "client-1",
		JobRoleID:     "role-1",
		EffectiveDate: effective,
		EndDate:       end,
		Active:        active,
		ClientRates: Rates{
			Day:         decimal.NewFromInt(20),
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

func TestResolveRate_LatestEffectiveDateWins(t *testing.T) {
	t.Parallel()

	older := testCard("card-old", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, true)
	newer := testCard("card-new", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), nil, true)
	newer.ClientRates.Day = decimal.NewFromInt(22)

	quote, err := ResolveRate([]*RateCard{older, newer}, "role-1", WorkTypeDay, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}

	if quote.RateCardID != "card-new" {
		t.Errorf("expected newest card, got %s", quote.RateCardID)
	}

	if !quote.ClientRate.Equal(decimal.NewFromInt(22)) {
		t.Errorf("expected client rate 22, got %s", quote.ClientRate)
	}
}

func TestResolveRate_SkipsOutOfWindowCards(t *testing.T) {
	t.Parallel()

	future := testCard("card-future", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), nil, true)

	ended := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	expired := testCard("card-expired", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), &ended, true)

	inactive := testCard("card-inactive", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, false)

	current := testCard("card-current", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), nil, true)

	quote, err := ResolveRate([]*RateCard{future, expired, inactive, current}, "role-1", WorkTypeNight, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}

	if quote.RateCardID != "card-current" {
		t.Errorf("expected card-current, got %s", quote.RateCardID)
	}
}

func TestResolveRate_EndDateIsInclusive(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	card := testCard("card-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), &end, true)

	if _, err := ResolveRate([]*RateCard{card}, "role-1", WorkTypeDay, end); err != nil {
		t.Fatalf("expected card to cover its end date, got %v", err)
	}

	if _, err := ResolveRate([]*RateCard{card}, "role-1", WorkTypeDay, end.AddDate(0, 0, 1)); !errors.Is(err, ErrNoApplicableRateCard) {
		t.Fatalf("expected ErrNoApplicableRateCard past end date, got %v", err)
	}
}

func TestResolveRate_TieBreaksOnGreatestID(t *testing.T) {
	t.Parallel()

	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testCard("card-a", effective, nil, true)
	b := testCard("card-b", effective, nil, true)

	quote, err := ResolveRate([]*RateCard{a, b}, "role-1", WorkTypeDay, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}

	if quote.RateCardID != "card-b" {
		t.Errorf("expected lexicographically greatest id to win, got %s", quote.RateCardID)
	}

	// Input order must not matter.
	quote2, err := ResolveRate([]*RateCard{b, a}, "role-1", WorkTypeDay, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}
	if quote2.RateCardID != quote.RateCardID {
		t.Errorf("selection depends on input order: %s vs %s", quote.RateCardID, quote2.RateCardID)
	}
}

func TestResolveRate_NoMatch(t *testing.T) {
	t.Parallel()

	card := testCard("card-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, true)

	_, err := ResolveRate([]*RateCard{card}, "role-other", WorkTypeDay, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoApplicableRateCard) {
		t.Fatalf("expected ErrNoApplicableRateCard for role mismatch, got %v", err)
	}

	_, err = ResolveRate(nil, "role-1", WorkTypeDay, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoApplicableRateCard) {
		t.Fatalf("expected ErrNoApplicableRateCard for empty set, got %v", err)
	}
}

func TestResolveRate_MarginCalculation(t *testing.T) {
	t.Parallel()

	card := testCard("card-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, true)

	quote, err := ResolveRate([]*RateCard{card}, "role-1", WorkTypeBankHoliday, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}

	if !quote.Margin.Equal(decimal.NewFromInt(12)) {
		t.Errorf("expected margin 12, got %s", quote.Margin)
	}

	want := decimal.NewFromInt(30)
	if !quote.MarginPercent.Equal(want) {
		t.Errorf("expected margin percent 30, got %s", quote.MarginPercent)
	}
}

func TestResolveRate_ZeroClientRate(t *testing.T) {
	t.Parallel()

	card := testCard("card-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, true)
	card.ClientRates.Day = decimal.Zero
	card.WorkerRates.Day = decimal.Zero

	quote, err := ResolveRate([]*RateCard{card}, "role-1", WorkTypeDay, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRate returned error: %v", err)
	}

	if !quote.MarginPercent.IsZero() {
		t.Errorf("expected zero margin percent when client rate is zero, got %s", quote.MarginPercent)
	}
}
