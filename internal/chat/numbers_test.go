package chat

import "testing"

func TestExtractTicketCountDigits(t *testing.T) {
	cases := []struct {
		message string
		want    int
		ok      bool
	}{
		{"2", 2, true},
		{"I need 5 tickets", 5, true},
		{"100", 100, true},
		{"1", 1, true},
		{"0", 0, false},
		{"101", 0, false},
		{"999", 0, false},
	}
	for _, c := range cases {
		got, ok := extractTicketCount(c.message)
		if ok != c.ok || got != c.want {
			t.Errorf("extractTicketCount(%q) = (%d, %v), want (%d, %v)", c.message, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractTicketCountWords(t *testing.T) {
	cases := []struct {
		message string
		want    int
	}{
		{"two", 2},
		{"just one please", 1},
		{"a couple", 2},
		{"a few tickets", 3},
		{"fifteen", 15},
		{"single ticket", 1},
	}
	for _, c := range cases {
		got, ok := extractTicketCount(c.message)
		if !ok {
			t.Errorf("extractTicketCount(%q) failed", c.message)
			continue
		}
		if got != c.want {
			t.Errorf("extractTicketCount(%q) = %d, want %d", c.message, got, c.want)
		}
	}
}

func TestExtractTicketCountDigitsWinOverWords(t *testing.T) {
	got, ok := extractTicketCount("two or 3 tickets")
	if !ok || got != 3 {
		t.Errorf("got (%d, %v), want digits to win with 3", got, ok)
	}
}

func TestExtractTicketCountNothingUsable(t *testing.T) {
	if _, ok := extractTicketCount("many many tickets"); ok {
		t.Error("expected no count from vague message")
	}
}
