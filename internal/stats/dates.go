package stats

import (
	"time"

	"github.com/celerix-dev/celerix-gestao/internal/validation"
)

// ParseDate reads a DD/MM/YYYY date. Anything unparsable is taken to be the
// day of now.
func ParseDate(s string, now time.Time) time.Time {
	t, err := time.ParseInLocation(validation.DateLayout, s, now.Location())
	if err != nil {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
	return t
}

// ToISO rewrites a DD/MM/YYYY date as YYYY-MM-DD.
func ToISO(s string, now time.Time) string {
	return ParseDate(s, now).Format(time.DateOnly)
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(validation.DateLayout)
}
