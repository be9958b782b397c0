// Package dates implements calendar arithmetic over the YYYY-MM-DD date
// strings used as artifact keys throughout the crawler.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date is a civil calendar date in canonical YYYY-MM-DD form.
type Date string

// KST is the civil calendar the exchange operates in. Weekend
// classification always happens here, never in the host's local zone.
var KST = time.FixedZone("KST", 9*60*60)

var (
	reCompact   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	reSeparated = regexp.MustCompile(`^(\d{4})[-./](\d{2})[-./](\d{2})$`)
)

// FormatError reports date text that matches neither the 8-digit nor the
// separated 10-character pattern, or names an impossible calendar day.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dates: invalid date format: %q", e.Input)
}

// Parse accepts YYYYMMDD, YYYY-MM-DD, YYYY.MM.DD, or YYYY/MM/DD and
// returns the canonical form.
func Parse(text string) (Date, error) {
	var m []string
	switch len(text) {
	case 8:
		m = reCompact.FindStringSubmatch(text)
	case 10:
		m = reSeparated.FindStringSubmatch(text)
	}
	if m == nil {
		return "", &FormatError{Input: text}
	}

	canonical := m[1] + "-" + m[2] + "-" + m[3]
	t, err := time.Parse("2006-01-02", canonical)
	if err != nil || t.Format("2006-01-02") != canonical {
		return "", &FormatError{Input: text}
	}
	return Date(canonical), nil
}

// MustParse is Parse for compile-time constants; it panics on bad input.
func MustParse(text string) Date {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current civil date in KST.
func Today() Date {
	return Date(time.Now().In(KST).Format("2006-01-02"))
}

// Split returns the year, month, and day tokens.
func (d Date) Split() (year, month, day string) {
	parts := strings.SplitN(string(d), "-", 3)
	return parts[0], parts[1], parts[2]
}

// Marshal joins the date tokens with the given separator. The remote
// endpoint wants the compact form, Marshal("").
func (d Date) Marshal(sep string) string {
	y, m, day := d.Split()
	return y + sep + m + sep + day
}

// Year returns the four-digit year token, used for artifact bucketing.
func (d Date) Year() string {
	y, _, _ := d.Split()
	return y
}

func (d Date) civil() time.Time {
	t, _ := time.ParseInLocation("2006-01-02", string(d), KST)
	return t
}

// AddDay shifts the date by n calendar days; n may be negative.
func (d Date) AddDay(n int) Date {
	return Date(d.civil().AddDate(0, 0, n).Format("2006-01-02"))
}

// DiffDay returns b minus a in whole calendar days; negative when b is
// before a.
func DiffDay(a, b Date) int {
	// Hour division instead of 24h division would drift across DST in
	// zone-aware arithmetic; KST has no DST so this is exact.
	return int(b.civil().Sub(a.civil()).Hours() / 24)
}

// IsWeekendKST reports whether the date falls on Saturday or Sunday in
// the exchange's civil calendar.
func (d Date) IsWeekendKST() bool {
	switch d.civil().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}
