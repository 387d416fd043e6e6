// Package dates resolves the temporal expressions people use when describing
// a purchase ("yesterday", "3 days ago", "last month") to absolute calendar
// dates. Resolution is deliberately fail-open: an expression nobody can parse
// resolves to the reference date, so a misunderstood phrase never blocks a
// transaction from being recorded.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type relativePattern struct {
	re    *regexp.Regexp
	shift func(reference time.Time, n int) time.Time
}

// Ordered: first match wins. Anchored expressions keep "day before yesterday"
// from being swallowed by "yesterday".
var relativePatterns = []relativePattern{
	{
		re:    regexp.MustCompile(`^yesterday$`),
		shift: func(ref time.Time, _ int) time.Time { return ref.AddDate(0, 0, -1) },
	},
	{
		re:    regexp.MustCompile(`^(?:the )?day before yesterday$`),
		shift: func(ref time.Time, _ int) time.Time { return ref.AddDate(0, 0, -2) },
	},
	{
		re:    regexp.MustCompile(`^(\d+) days? (?:ago|before)$`),
		shift: func(ref time.Time, n int) time.Time { return ref.AddDate(0, 0, -n) },
	},
	{
		re:    regexp.MustCompile(`^last week$`),
		shift: func(ref time.Time, _ int) time.Time { return ref.AddDate(0, 0, -7) },
	},
	{
		re:    regexp.MustCompile(`^(\d+) weeks? (?:ago|before)$`),
		shift: func(ref time.Time, n int) time.Time { return ref.AddDate(0, 0, -7*n) },
	},
	{
		re:    regexp.MustCompile(`^last month$`),
		shift: func(ref time.Time, _ int) time.Time { return addMonthsClamped(ref, -1) },
	},
	{
		re:    regexp.MustCompile(`^(\d+) months? (?:ago|before)$`),
		shift: func(ref time.Time, n int) time.Time { return addMonthsClamped(ref, -n) },
	},
	{
		re:    regexp.MustCompile(`^(?:today|just now|this morning|this afternoon|this evening|tonight)$`),
		shift: func(ref time.Time, _ int) time.Time { return ref },
	},
}

// absoluteFormats is tried in order when no relative pattern matches.
// US month-first variants come before day-first, matching the behavior of
// the app this engine grew out of.
var absoluteFormats = []string{
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2/1/2006",
	time.DateOnly,
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// Resolve maps a date phrase to an absolute calendar date relative to
// reference. It never fails: phrases that match neither a relative pattern
// nor an absolute format resolve to reference's own date. The result is
// always truncated to midnight UTC of the resolved calendar day.
func Resolve(phrase string, reference time.Time) time.Time {
	norm := strings.ToLower(strings.TrimSpace(phrase))
	ref := Truncate(reference)

	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		n := 0
		if len(m) > 1 {
			// The pattern guarantees digits; range only guards overflow.
			v, err := strconv.Atoi(m[1])
			if err != nil || v < 0 {
				return ref
			}
			n = v
		}
		return p.shift(ref, n)
	}

	for _, layout := range absoluteFormats {
		if t, err := time.Parse(layout, strings.TrimSpace(phrase)); err == nil {
			return Truncate(t)
		}
	}

	return ref
}

// Truncate drops the time-of-day, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped shifts by whole calendar months, clamping the day of month
// to the last valid day of the target month. AddDate alone would normalize
// Feb 31 into early March, which is wrong for "last month" from the 31st.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := daysIn(first.Year(), first.Month())
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
