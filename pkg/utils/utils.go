package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DateOnly truncates t to midnight of its calendar day in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// Each instant is read as a calendar date in its own location, so DST shifts
// never produce a partial day. The result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// DaysLate is DaysBetween clamped at zero.
func DaysLate(dueDate, asOf time.Time) int {
	days := DaysBetween(dueDate, asOf)
	if days < 0 {
		return 0
	}
	return days
}

// ParseDate parses a YYYY-MM-DD string as a calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// IsWholeAmount reports whether amount has no fractional part.
func IsWholeAmount(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(0))
}

// SumDecimals adds up all values.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatReceiptNumber renders a receipt number as RCP-<year>-<seq>, padding
// the sequence to at least three digits.
func FormatReceiptNumber(year int, seq int64) string {
	return fmt.Sprintf("RCP-%04d-%03d", year, seq)
}
