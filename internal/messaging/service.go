// Package messaging bridges chat channels to the conversation flow engine.
package messaging

import "context"

// Service defines a pluggable message channel abstraction.
// It delivers outbound replies and feeds inbound messages into the engine.
type Service interface {
	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins background processing (e.g., listening for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error
}
