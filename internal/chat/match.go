package chat

import (
	"strings"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

// Minimum lengths for the substring-containment matching tier.
const minSubstringMatchLen = 3

// matchMuseum resolves a user message to a museum, trying three tiers in
// order and returning the first museum any tier accepts:
//
//  1. exact case-insensitive match against name or slug,
//  2. substring containment in either direction (name or slug), requiring
//     both the museum name and the message to be at least 3 characters,
//  3. word overlap: at least 2 shared significant words (length > 2), or at
//     least half of the message's significant words appearing in the name.
//
// Returns nil when no tier matches.
func matchMuseum(message string, museums []models.Museum) *models.Museum {
	normalized := normalizeMessage(message)

	for i := range museums {
		name := normalizeMessage(museums[i].Name)
		slug := normalizeMessage(museums[i].Slug)
		if normalized == name || (slug != "" && normalized == slug) {
			return &museums[i]
		}
	}

	for i := range museums {
		name := normalizeMessage(museums[i].Name)
		slug := normalizeMessage(museums[i].Slug)
		contained := strings.Contains(normalized, name) || strings.Contains(name, normalized)
		if slug != "" {
			contained = contained || strings.Contains(normalized, slug) || strings.Contains(slug, normalized)
		}
		if contained && len(name) >= minSubstringMatchLen && len(normalized) >= minSubstringMatchLen {
			return &museums[i]
		}
	}

	messageWords := significantWords(normalized)
	for i := range museums {
		museumWords := significantWords(normalizeMessage(museums[i].Name))
		matching := 0
		for _, w := range messageWords {
			for _, mw := range museumWords {
				if w == mw {
					matching++
					break
				}
			}
		}
		if matching >= 2 || (len(messageWords) > 0 && float64(matching)/float64(len(messageWords)) >= 0.5) {
			return &museums[i]
		}
	}

	return nil
}

// significantWords splits s into words longer than 2 characters.
func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
