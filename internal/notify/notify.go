// Package notify delivers confirmation side effects for tickets and bookings.
//
// Notification content is a plain string; rendering rich templates is a
// caller concern. Delivery failures are reported to callers but the chat
// engine treats them as best-effort.
package notify

import (
	"context"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

// Notifier sends out-of-band confirmations to users.
type Notifier interface {
	// SendTicketConfirmation notifies the user that a support ticket was created.
	SendTicketConfirmation(ctx context.Context, to string, ticket models.SupportTicket) error
	// SendBookingConfirmation notifies the user that a booking was paid.
	SendBookingConfirmation(ctx context.Context, to string, booking models.Booking) error
}

// NoopNotifier drops all notifications. Used when no provider is configured.
type NoopNotifier struct{}

// SendTicketConfirmation does nothing.
func (NoopNotifier) SendTicketConfirmation(ctx context.Context, to string, ticket models.SupportTicket) error {
	return nil
}

// SendBookingConfirmation does nothing.
func (NoopNotifier) SendBookingConfirmation(ctx context.Context, to string, booking models.Booking) error {
	return nil
}
