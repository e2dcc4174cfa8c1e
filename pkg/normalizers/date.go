package normalizers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOrder decides how an ambiguous numeric date such as 01/02/1990 is read.
type DateOrder int

const (
	// DayFirst reads D/M/Y unless the second component cannot be a month.
	DayFirst DateOrder = iota
	// MonthFirst reads M/D/Y unless the first component cannot be a month.
	MonthFirst
)

// ParseDateOrder parses "day_first" or "month_first".
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day_first", "dmy":
		return DayFirst, nil
	case "month_first", "mdy":
		return MonthFirst, nil
	default:
		return DayFirst, fmt.Errorf("unknown date order %q (use day_first or month_first)", s)
	}
}

func (o DateOrder) String() string {
	if o == MonthFirst {
		return "month_first"
	}
	return "day_first"
}

const isoLayout = "2006-01-02"

var (
	numericDate       = regexp.MustCompile(`^(\d{1,4})[\s./-]+(\d{1,2})[\s./-]+(\d{1,4})$`)
	numericDateInText = regexp.MustCompile(`(?:^|[^\d])(\d{1,4}[./-]\d{1,2}[./-]\d{1,4})(?:[^\d]|$)`)
	ordinalSuffix     = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)
)

// namedLayouts are tried in order for dates that spell out the month.
var namedLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 06",
}

// NormalizeDOB canonicalizes a date of birth to YYYY-MM-DD, reading ambiguous
// numeric dates day-first.
func NormalizeDOB(s string) string {
	return normalizeDate(s, DayFirst)
}

// DateNormalizer returns a date normalizer that resolves ambiguous numeric
// dates using order.
func DateNormalizer(order DateOrder) Normalizer {
	return func(s string) string {
		return normalizeDate(s, order)
	}
}

func normalizeDate(s string, order DateOrder) string {
	s = CollapseWhitespace(DigitsToASCII(s))
	if s == "" {
		return ""
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		return numericISO(m[1], m[2], m[3], order)
	}

	named := ordinalSuffix.ReplaceAllString(s, "$1")
	named = strings.TrimSuffix(named, ".")
	for _, layout := range namedLayouts {
		if t, err := time.Parse(layout, named); err == nil {
			return t.Format(isoLayout)
		}
	}

	if m := numericDateInText.FindStringSubmatch(s); m != nil {
		if parts := numericDate.FindStringSubmatch(m[1]); parts != nil {
			return numericISO(parts[1], parts[2], parts[3], order)
		}
	}
	return ""
}

func numericISO(a, b, c string, order DateOrder) string {
	first, _ := strconv.Atoi(a)
	second, _ := strconv.Atoi(b)
	third, _ := strconv.Atoi(c)

	var year, month, day int
	switch {
	case len(a) == 4:
		year, month, day = first, second, third
		if len(c) > 2 {
			return ""
		}
	case len(c) == 4 || len(c) == 2:
		if len(a) > 2 {
			return ""
		}
		year = third
		if len(c) == 2 {
			year += 2000
		}
		day, month = resolveDayMonth(first, second, order)
	default:
		return ""
	}

	return isoDate(year, month, day)
}

// resolveDayMonth assigns the first two numeric components of a date to day
// and month, honoring order unless that would make the month invalid.
func resolveDayMonth(first, second int, order DateOrder) (day, month int) {
	if order == MonthFirst {
		if first > 12 && second <= 12 {
			return first, second
		}
		return second, first
	}
	if second > 12 && first <= 12 {
		return second, first
	}
	return first, second
}

func isoDate(year, month, day int) string {
	if year < 1000 || month < 1 || month > 12 || day < 1 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return ""
	}
	return t.Format(isoLayout)
}

// ParseISODate parses a canonical YYYY-MM-DD date.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
