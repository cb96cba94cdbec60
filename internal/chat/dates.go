package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
)

// parseDate parses a visit date from free text, trying formats in a fixed
// precedence: ISO YYYY-MM-DD prefix, DD-MM-YYYY (or DD/MM/YYYY), MM-DD-YYYY
// (or MM/DD/YYYY), natural-language tokens, and finally generic parsing.
//
// The DD-MM and MM-DD tiers share the same pattern, so the day-first reading
// wins whenever both are plausible; the month-first tier only fires when the
// day-first construction is not a real calendar date. Ambiguous numeric dates
// are therefore always read day-first.
//
// Returns the parsed date (time truncated) and whether parsing succeeded.
func parseDate(message string, now time.Time) (time.Time, bool) {
	normalized := strings.TrimSpace(message)
	if normalized == "" {
		return time.Time{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(normalized); m != nil {
		if d, ok := makeDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	if m := slashDatePattern.FindStringSubmatch(normalized); m != nil {
		// Day-first reading
		if d, ok := makeDate(m[3], m[2], m[1]); ok {
			return d, true
		}
		// Month-first reading
		if d, ok := makeDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}

	lower := strings.ToLower(normalized)
	today := truncateDate(now)
	switch {
	case strings.Contains(lower, "today"):
		return today, true
	case strings.Contains(lower, "day after tomorrow"):
		return today.AddDate(0, 0, 2), true
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1), true
	}

	if d, err := dateparse.ParseAny(normalized); err == nil {
		return truncateDate(d), true
	}

	return time.Time{}, false
}

// makeDate builds a date from numeric components, rejecting values that do
// not form a real calendar date (e.g. month 13 or February 30).
func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those
	if date.Year() != y || date.Month() != time.Month(m) || date.Day() != d {
		return time.Time{}, false
	}
	return date, true
}

// isValidVisitDate reports whether d is today or later, comparing dates only.
func isValidVisitDate(d, now time.Time) bool {
	return !truncateDate(d).Before(truncateDate(now))
}

// truncateDate drops the time-of-day component.
func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// formatVisitDate renders a date the way the bot presents it in replies.
func formatVisitDate(d time.Time) string {
	return d.Format("Monday, 2 January 2006")
}

// formatINR renders a rupee amount with Indian digit grouping (12,34,567).
func formatINR(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		head := s[:len(s)-3]
		tail := s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		s = "-" + s
	}
	return fmt.Sprintf("₹%s", s)
}
