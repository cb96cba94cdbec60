package chat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

var digitsPattern = regexp.MustCompile(`\d+`)

// wordNumber pairs are checked in this order; substring matching means the
// earliest entry found anywhere in the message wins.
var wordNumbers = []struct {
	word  string
	count int
}{
	{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
	{"eleven", 11}, {"twelve", 12}, {"thirteen", 13}, {"fourteen", 14}, {"fifteen", 15},
	{"single", 1}, {"double", 2}, {"couple", 2}, {"few", 3},
}

// extractTicketCount pulls a ticket count out of a message: first any digit
// run within [1, 100], then the word-number vocabulary. Returns (0, false)
// when nothing usable is found.
func extractTicketCount(message string) (int, bool) {
	if m := digitsPattern.FindString(message); m != "" {
		if count, err := strconv.Atoi(m); err == nil {
			if count > 0 && count <= models.MaxTicketCount {
				return count, true
			}
		}
	}

	normalized := normalizeMessage(message)
	for _, wn := range wordNumbers {
		if strings.Contains(normalized, wn.word) {
			return wn.count, true
		}
	}

	return 0, false
}
