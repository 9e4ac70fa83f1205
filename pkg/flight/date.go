package flight

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// DateLayout is the canonical wire form of a calendar date.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)

// IsJalaliYear reports whether a four digit year is read as Solar Hijri.
func IsJalaliYear(year int) bool {
	return year > 1400 && year < 2000
}

// NormalizeDate parses a YYYY-MM-DD date (or with '/' separators) in either calendar and
// returns the Gregorian day at midnight UTC.
func NormalizeDate(s string) (time.Time, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, newSearchError(ErrDateConversion, "Failed to convert date '%s': expected YYYY-MM-DD.", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if IsJalaliYear(year) {
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, newSearchError(ErrDateConversion, "Failed to convert date '%s': day is out of range.", s)
		}
		pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, time.UTC)
		if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
			return time.Time{}, newSearchError(ErrDateConversion, "Failed to convert date '%s': day is out of range.", s)
		}
		g := pt.Time().In(time.UTC)
		return time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	t, err := time.Parse(DateLayout, fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	if err != nil {
		return time.Time{}, &SearchError{
			Kind:    ErrDateConversion,
			Message: fmt.Sprintf("Failed to convert date '%s': %v.", s, err),
			Err:     err,
		}
	}
	return t, nil
}

// FormatJalali renders t as a Solar Hijri YYYY-MM-DD date.
func FormatJalali(t time.Time) string {
	pt := ptime.New(t)
	return fmt.Sprintf("%04d-%02d-%02d", pt.Year(), int(pt.Month()), pt.Day())
}
