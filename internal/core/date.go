package core

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (no time component).
const DateLayout = "2006-01-02"

// Date is a calendar date at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date ("2025-01-05").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate checks the date is set and within basic calendar ranges.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// String renders the wire format.
func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalJSON serializes as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LastDayOfMonth returns the number of days in (month, year), e.g. 29 for
// February 2024.
func LastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay fits a day-of-month template value into the target month:
// day_of_month=31 materialized for April yields 30, for February 28 or 29.
func ClampDay(year, month, day int) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// MonthRange returns the first and last calendar day of (month, year).
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, LastDayOfMonth(year, month))
}

// ValidPeriod reports whether (month, year) identifies a usable period.
func ValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 1970 && year <= 9999
}

// MonthName returns the abbreviated English month name ("Jan".."Dec").
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()[:3]
}

// PreviousMonths enumerates n consecutive (year, month) pairs ending at the
// given period, oldest first.
func PreviousMonths(year, month, n int) [][2]int {
	periods := make([][2]int, 0, n)
	y, m := year, month
	for i := 0; i < n-1; i++ {
		m--
		if m < 1 {
			m = 12
			y--
		}
	}
	for i := 0; i < n; i++ {
		periods = append(periods, [2]int{y, m})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return periods
}
