// Package notify delivers confirmation side effects for tickets and bookings.
//
// This file implements the Twilio SMS notifier.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// TwilioNotifier sends confirmations as SMS messages via the Twilio API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier creates a Twilio notifier, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for unset options.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio notifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioNotifier{client: client, from: cfg.FromNumber}, nil
}

// SendTicketConfirmation sends a support ticket confirmation SMS.
func (n *TwilioNotifier) SendTicketConfirmation(ctx context.Context, to string, ticket models.SupportTicket) error {
	body := fmt.Sprintf("Hi %s, your support ticket %s (%s, priority %s) has been created. We'll get back to you soon.",
		ticket.Name, ticket.TicketID, ticket.IssueType, ticket.Priority)
	return n.send(to, body)
}

// SendBookingConfirmation sends a booking confirmation SMS.
func (n *TwilioNotifier) SendBookingConfirmation(ctx context.Context, to string, booking models.Booking) error {
	body := fmt.Sprintf("Your booking %s for %s on %s (%d tickets) is confirmed.",
		booking.BookingID, booking.MuseumName, booking.Date.Format("02 Jan 2006"), booking.TicketCount)
	return n.send(to, body)
}

func (n *TwilioNotifier) send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	_, err := n.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("TwilioNotifier send failed", "error", err, "to", to)
		return fmt.Errorf("failed to send notification to %s: %w", to, err)
	}
	slog.Debug("TwilioNotifier message sent", "to", to)
	return nil
}
