// Package util provides utility functions for the ticketing chatbot.
package util

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// GenerateRandomID generates a random ID with the specified prefix and length.
// The returned ID will be in the format: "{prefix}{alphanumeric_string}".
func GenerateRandomID(prefix string, length int) string {
	return prefix + GenerateRandomUpperAlphaNumeric(length)
}

// GenerateRandomUpperAlphaNumeric generates a random uppercase alphanumeric
// string of the specified length. Uses math/rand/v2; these IDs are checked
// for uniqueness against the store before use, not relied on as secrets.
func GenerateRandomUpperAlphaNumeric(length int) string {
	if length <= 0 {
		return ""
	}

	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(chars[rand.IntN(len(chars))])
	}

	return builder.String()
}

// GenerateBookingID generates a candidate human-readable booking ID.
// Callers must verify uniqueness against the store before use.
func GenerateBookingID() string {
	return GenerateRandomID("MUS-", 8)
}

// GenerateTicketID generates a candidate human-readable support ticket ID.
// Callers must verify uniqueness against the store before use.
func GenerateTicketID() string {
	return GenerateRandomID("TKT-", 8)
}

// GenerateSessionID generates an opaque session token for clients that do
// not supply their own.
func GenerateSessionID() string {
	return uuid.NewString()
}
