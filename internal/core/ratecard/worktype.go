package ratecard

import "time"

// WorkType はシフトの請求区分を表します。
type WorkType string

const (
	WorkTypeDay         WorkType = "day"
	WorkTypeNight       WorkType = "night"
	WorkTypeWeekend     WorkType = "weekend"
	WorkTypeBankHoliday WorkType = "bank_holiday"
)

// IsValidWorkType は区分が既知の値かどうかを返します。
func IsValidWorkType(wt WorkType) bool {
	switch wt {
	case WorkTypeDay, WorkTypeNight, WorkTypeWeekend, WorkTypeBankHoliday:
		return true
	default:
		return false
	}
}

const (
	nightStartHour = 20
	nightEndHour   = 6
)

// HolidayCalendar は祝日判定を提供します。
type HolidayCalendar struct {
	extra map[string]struct{}
}

// NewHolidayCalendar は追加祝日（YYYY-MM-DD）を受け取りカレンダーを構築します。
// 1/1、12/25、12/26 は年に関わらず常に祝日として扱います。
func NewHolidayCalendar(extraDates []string) HolidayCalendar {
	extra := make(map[string]struct{}, len(extraDates))
	for _, d := range extraDates {
		extra[d] = struct{}{}
	}
	return HolidayCalendar{extra: extra}
}

// IsHoliday は指定日が祝日かどうかを返します。
func (c HolidayCalendar) IsHoliday(t time.Time) bool {
	month, day := t.Month(), t.Day()
	if month == time.January && day == 1 {
		return true
	}
	if month == time.December && (day == 25 || day == 26) {
		return true
	}
	_, ok := c.extra[t.Format("2006-01-02")]
	return ok
}

// ClassifyShift はシフト開始時刻から請求区分を判定します。
// 優先順位は 祝日 > 週末 > 夜間 > 日中 で、最初に一致した区分を返します。
func ClassifyShift(start time.Time, cal HolidayCalendar) WorkType {
	if cal.IsHoliday(start) {
		return WorkTypeBankHoliday
	}

	switch start.Weekday() {
	case time.Saturday, time.Sunday:
		return WorkTypeWeekend
	}

	if hour := start.Hour(); hour >= nightStartHour || hour < nightEndHour {
		return WorkTypeNight
	}

	return WorkTypeDay
}
