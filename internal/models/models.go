// Package models defines the core data structures for the museum ticketing chatbot.
//
// It includes the conversation session, catalog, booking and support ticket
// types shared across modules.
package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an inbound chat message
	MaxMessageLength = 2048
	// MaxTicketCount defines the upper bound for tickets in a single booking
	MaxTicketCount = 100
	// MuseumListLimit bounds how many museums the bot presents at once
	MuseumListLimit = 10
	// BookingListLimit bounds how many bookings the bot lists in a reply
	BookingListLimit = 5
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID   = errors.New("session ID cannot be empty")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidPriority  = errors.New("priority must be Low, Medium or High")
	ErrInvalidStep      = errors.New("context fields inconsistent with step")
	ErrMissingCheckout  = errors.New("museum ID, date, ticket count and amount are required")
	ErrMuseumNotFound   = errors.New("museum not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrPaymentDeclined  = errors.New("payment session could not be created")
	ErrPaymentPending   = errors.New("payment not completed")
)

// emailPattern mirrors the basic local@domain.tld shape accepted by the support flow.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s has a plausible email shape.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Museum is a catalog entry. Read-only from the chat engine's point of view.
type Museum struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Price       int64     `json:"price"` // rupees per ticket
	ImageURL    string    `json:"image_url,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentStatus tracks the lifecycle of a booking's payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is a paid (or pending) museum visit reservation.
type Booking struct {
	ID              string        `json:"id"`
	BookingID       string        `json:"booking_id"` // human-readable, unique
	UserID          string        `json:"user_id"`
	MuseumID        string        `json:"museum_id"`
	MuseumName      string        `json:"museum_name,omitempty"`
	Date            time.Time     `json:"date"`
	TicketCount     int           `json:"ticket_count"`
	Amount          int64         `json:"amount"` // rupees
	PaymentStatus   PaymentStatus `json:"payment_status"`
	StripeSessionID string        `json:"stripe_session_id,omitempty"`
	PDFURL          string        `json:"pdf_url,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// TicketPriority is the urgency a user assigns to a support ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
)

// NormalizePriority case-normalizes s against the fixed priority set.
// Returns the canonical value and whether s matched.
func NormalizePriority(s string) (TicketPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// TicketStatus tracks the handling state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
)

// SupportTicket is a complaint or inquiry raised through the chatbot.
type SupportTicket struct {
	ID          string         `json:"id"`
	TicketID    string         `json:"ticket_id"` // human-readable, unique
	UserID      string         `json:"user_id,omitempty"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	IssueType   string         `json:"issue_type"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Sender identifies which side of the conversation produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatTurn is one transcript entry of a conversation session.
type ChatTurn struct {
	SessionID string    `json:"session_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the inbound payload of the chat endpoint.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
}

// Validate performs basic validation on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrEmptySessionID
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ChatResult is what the engine returns for one processed message.
type ChatResult struct {
	Reply      string         `json:"reply"`
	NextAction NextAction     `json:"next_action,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// CheckoutRequest carries the TRIGGER_PAYMENT payload to the payment initiator.
type CheckoutRequest struct {
	UserID      string    `json:"user_id"`
	MuseumID    string    `json:"museum_id"`
	Date        time.Time `json:"date"`
	TicketCount int       `json:"ticket_count"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
}

// Validate checks that all booking fields required for checkout are present.
func (r *CheckoutRequest) Validate() error {
	if r.MuseumID == "" || r.Date.IsZero() || r.TicketCount <= 0 || r.Amount <= 0 {
		return ErrMissingCheckout
	}
	if r.TicketCount > MaxTicketCount {
		return ErrMissingCheckout
	}
	return nil
}

// CheckoutSession is the result of initiating a payment session.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	BookingID string `json:"booking_id"`
}
