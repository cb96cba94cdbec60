// Package chat implements the rule-based conversation flow engine for the
// museum ticketing chatbot.
//
// Intent detection is a fixed, ordered list of keyword predicates evaluated
// top to bottom with first-match-wins semantics. The order is load-bearing:
// greeting overrides any in-progress flow, cancellation only applies while a
// flow is active, and the booking/support branches claim every message while
// their step is set.
package chat

import "strings"

func normalizeMessage(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// containsAny reports whether normalized contains any of the keywords.
func containsAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

var (
	exactGreetings  = []string{"hi", "hello", "hey", "hai", "yo", "greetings", "greeting"}
	greetingPhrases = []string{"good morning", "good afternoon", "good evening", "good night", "good day"}
	greetingWords   = []string{"hi", "hello", "hey", "hai"}

	exactBookingWords = []string{"ticket", "tickets", "book", "booking", "museum"}
	bookingPhrases    = []string{
		"book ticket", "book tickets", "museum tickets", "i want to book",
		"want to book", "book museum", "book a ticket", "book a museum",
		"new booking", "make booking", "buy ticket", "reserve ticket",
		"buy tickets", "reserve tickets", "get tickets", "get ticket",
		"i want tickets", "i need tickets", "i need ticket", "i want ticket",
	}

	supportKeywords = []string{"create support ticket", "raise complaint", "support ticket", "file complaint", "create ticket", "help ticket"}

	myBookingsKeywords = []string{"show my bookings", "my bookings", "my tickets", "show bookings", "booking history", "view bookings", "list bookings"}

	downloadKeywords = []string{"download ticket", "download my ticket", "get ticket pdf", "ticket pdf", "download pdf"}

	museumListKeywords = []string{"what museums", "list museums", "show museums", "available museums", "museums available", "which museums"}

	helpKeywords = []string{"help", "i need help", "assistance", "support", "how can you help"}

	cancelKeywords = []string{"cancel", "stop", "nevermind", "never mind", "no thanks", "no thank you", "exit", "quit"}

	goBackKeywords = []string{"go back", "back", "undo", "previous", "change", "modify", "edit"}

	confirmKeywords = []string{"yes", "y", "ok", "okay", "confirm", "proceed", "continue", "pay", "payment", "sure", "go ahead"}
)

// isGreeting detects standalone greetings, greeting phrases, and greeting
// words embedded in a sentence.
func isGreeting(message string) bool {
	normalized := normalizeMessage(message)

	for _, g := range exactGreetings {
		if normalized == g {
			return true
		}
	}
	if containsAny(normalized, greetingPhrases) {
		return true
	}
	for _, word := range strings.Fields(normalized) {
		for _, g := range greetingWords {
			if word == g {
				return true
			}
		}
	}
	return false
}

// wantsBooking detects booking intent, either as a standalone booking word or
// a booking phrase anywhere in the message. The support, booking-history and
// download vocabularies all contain bare booking words ("support ticket",
// "my tickets", "download ticket"), so those more specific phrases are
// excluded here; otherwise the later rules in the dispatch order could never
// fire on their primary triggers.
func wantsBooking(message string) bool {
	normalized := normalizeMessage(message)

	if containsAny(normalized, supportKeywords) ||
		containsAny(normalized, myBookingsKeywords) ||
		containsAny(normalized, downloadKeywords) {
		return false
	}

	for _, word := range strings.Fields(normalized) {
		for _, bw := range exactBookingWords {
			if word == bw {
				return true
			}
		}
	}
	return containsAny(normalized, bookingPhrases)
}

func wantsSupportTicket(message string) bool {
	return containsAny(normalizeMessage(message), supportKeywords)
}

func wantsMyBookings(message string) bool {
	return containsAny(normalizeMessage(message), myBookingsKeywords)
}

func wantsDownloadTicket(message string) bool {
	return containsAny(normalizeMessage(message), downloadKeywords)
}

func wantsMuseumList(message string) bool {
	return containsAny(normalizeMessage(message), museumListKeywords)
}

func wantsHelp(message string) bool {
	return containsAny(normalizeMessage(message), helpKeywords)
}

func wantsCancel(message string) bool {
	return containsAny(normalizeMessage(message), cancelKeywords)
}

func wantsGoBack(message string) bool {
	normalized := normalizeMessage(message)
	for _, kw := range goBackKeywords {
		if normalized == kw || strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// isConfirmation matches the confirmation vocabulary. Single-letter entries
// only match the whole message; longer entries also match as substrings.
func isConfirmation(message string) bool {
	normalized := normalizeMessage(message)
	for _, kw := range confirmKeywords {
		if normalized == kw {
			return true
		}
		if len(kw) > 1 && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
