package ratecard

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rates は区分別の時給レートを表します。
type Rates struct {
	Day         decimal.Decimal
	Night       decimal.Decimal
	Weekend     decimal.Decimal
	BankHoliday decimal.Decimal
}

// For は区分に対応するレートを返します。
func (r Rates) For(wt WorkType) decimal.Decimal {
	switch wt {
	case WorkTypeNight:
		return r.Night
	case WorkTypeWeekend:
		return r.Weekend
	case WorkTypeBankHoliday:
		return r.BankHoliday
	default:
		return r.Day
	}
}

// RateCard はクライアントと職種に紐づく期間限定のレート表エンティティです。
type RateCard struct {
	ID            string
	ClientID      string
	JobRoleID     string
	EffectiveDate time.Time
	EndDate       *time.Time
	Active        bool
	ClientRates   Rates
	WorkerRates   Rates
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CoversDate はレート表の有効期間が指定日を含むかどうかを返します。
func (c *RateCard) CoversDate(asOf time.Time) bool {
	day := dateOnly(asOf)
	if dateOnly(c.EffectiveDate).After(day) {
		return false
	}
	if c.EndDate != nil && dateOnly(*c.EndDate).Before(day) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
