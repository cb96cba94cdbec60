package chat

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func TestParseDateISO(t *testing.T) {
	d, ok := parseDate("2026-05-01", testNow)
	if !ok {
		t.Fatal("expected ISO date to parse")
	}
	if d.Year() != 2026 || d.Month() != time.May || d.Day() != 1 {
		t.Errorf("got %v, want 2026-05-01", d)
	}
}

func TestParseDateDayFirst(t *testing.T) {
	// 05-04-2026 must be read as 5 April, not 4 May
	d, ok := parseDate("05-04-2026", testNow)
	if !ok {
		t.Fatal("expected day-first date to parse")
	}
	if d.Month() != time.April || d.Day() != 5 {
		t.Errorf("got %v, want 5 April 2026", d)
	}

	// Slash separator works the same way
	d, ok = parseDate("25/12/2026", testNow)
	if !ok {
		t.Fatal("expected slash date to parse")
	}
	if d.Month() != time.December || d.Day() != 25 {
		t.Errorf("got %v, want 25 December 2026", d)
	}
}

func TestParseDateNaturalLanguage(t *testing.T) {
	cases := []struct {
		message string
		want    time.Time
	}{
		{"today", time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)},
		{"day after tomorrow", time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)},
		{"I'd like to come tomorrow", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		d, ok := parseDate(c.message, testNow)
		if !ok {
			t.Errorf("parseDate(%q) failed", c.message)
			continue
		}
		if !d.Equal(c.want) {
			t.Errorf("parseDate(%q) = %v, want %v", c.message, d, c.want)
		}
	}
}

func TestParseDateRejectsBadCalendarDates(t *testing.T) {
	for _, msg := range []string{"2026-02-30", "31-02-2026", "not a date at all xyzzy"} {
		if _, ok := parseDate(msg, testNow); ok {
			t.Errorf("parseDate(%q) succeeded, want failure", msg)
		}
	}
}

func TestVisitDateBoundaries(t *testing.T) {
	far, ok := parseDate("2099-01-01", testNow)
	if !ok || !isValidVisitDate(far, testNow) {
		t.Error("2099-01-01 should parse and be a valid visit date")
	}
	past, ok := parseDate("2000-01-01", testNow)
	if !ok {
		t.Fatal("2000-01-01 should still parse")
	}
	if isValidVisitDate(past, testNow) {
		t.Error("2000-01-01 should be rejected as a past date")
	}
}

func TestIsValidVisitDate(t *testing.T) {
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !isValidVisitDate(today, testNow) {
		t.Error("today should be a valid visit date")
	}
	if !isValidVisitDate(today.AddDate(0, 0, 1), testNow) {
		t.Error("tomorrow should be a valid visit date")
	}
	if isValidVisitDate(today.AddDate(0, 0, -1), testNow) {
		t.Error("yesterday should not be a valid visit date")
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "₹0"},
		{150, "₹150"},
		{1500, "₹1,500"},
		{150000, "₹1,50,000"},
		{12345678, "₹1,23,45,678"},
	}
	for _, c := range cases {
		if got := formatINR(c.amount); got != c.want {
			t.Errorf("formatINR(%d) = %s, want %s", c.amount, got, c.want)
		}
	}
}
