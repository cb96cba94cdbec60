// Package models defines conversation session state for the chatbot flows.
package models

import "time"

// BookingStep is the current position in the booking flow.
type BookingStep string

const (
	// BookingStepNone means no booking flow is in progress.
	BookingStepNone BookingStep = ""
	// BookingStepMuseum waits for the user to pick a museum.
	BookingStepMuseum BookingStep = "museum"
	// BookingStepDate waits for a visit date.
	BookingStepDate BookingStep = "date"
	// BookingStepTickets waits for a ticket count.
	BookingStepTickets BookingStep = "tickets"
	// BookingStepConfirm waits for a yes/cancel decision.
	BookingStepConfirm BookingStep = "confirm"
)

// BookingContext holds the partial booking collected so far. Fields are only
// set or cleared through the transition methods so that no field can outlive
// the step it belongs to.
type BookingContext struct {
	Step        BookingStep `json:"step,omitempty"`
	MuseumID    string      `json:"museum_id,omitempty"`
	MuseumName  string      `json:"museum_name,omitempty"`
	Date        *time.Time  `json:"date,omitempty"`
	TicketCount *int        `json:"ticket_count,omitempty"`
	Amount      *int64      `json:"amount,omitempty"`
}

// Active reports whether a booking flow is in progress.
func (b *BookingContext) Active() bool {
	return b.Step != BookingStepNone
}

// Reset clears the whole context, leaving no flow in progress.
func (b *BookingContext) Reset() {
	*b = BookingContext{}
}

// Start begins a fresh booking at the museum-selection step.
func (b *BookingContext) Start() {
	*b = BookingContext{Step: BookingStepMuseum}
}

// SelectMuseum records the chosen museum and advances to the date step.
func (b *BookingContext) SelectMuseum(id, name string) {
	*b = BookingContext{Step: BookingStepDate, MuseumID: id, MuseumName: name}
}

// SetDate records the visit date and advances to the tickets step.
func (b *BookingContext) SetDate(d time.Time) {
	b.Step = BookingStepTickets
	b.Date = &d
	b.TicketCount = nil
	b.Amount = nil
}

// SetTickets records the count and computed amount and advances to confirm.
func (b *BookingContext) SetTickets(count int, amount int64) {
	b.Step = BookingStepConfirm
	b.TicketCount = &count
	b.Amount = &amount
}

// BackToMuseum returns to museum selection, dropping the date and everything after it.
func (b *BookingContext) BackToMuseum() {
	*b = BookingContext{Step: BookingStepMuseum}
}

// BackToDate returns to the date step, dropping count and amount.
func (b *BookingContext) BackToDate() {
	b.Step = BookingStepDate
	b.Date = nil
	b.TicketCount = nil
	b.Amount = nil
}

// BackToTickets returns to the tickets step, dropping count and amount but
// keeping museum and date.
func (b *BookingContext) BackToTickets() {
	b.Step = BookingStepTickets
	b.TicketCount = nil
	b.Amount = nil
}

// Validate checks the step/field invariant: a field may only be set if the
// flow has advanced past the step that collects it.
func (b *BookingContext) Validate() error {
	switch b.Step {
	case BookingStepNone, BookingStepMuseum:
		if b.MuseumID != "" || b.Date != nil || b.TicketCount != nil || b.Amount != nil {
			return ErrInvalidStep
		}
	case BookingStepDate:
		if b.MuseumID == "" || b.Date != nil || b.TicketCount != nil || b.Amount != nil {
			return ErrInvalidStep
		}
	case BookingStepTickets:
		if b.MuseumID == "" || b.Date == nil || b.TicketCount != nil || b.Amount != nil {
			return ErrInvalidStep
		}
	case BookingStepConfirm:
		if b.MuseumID == "" || b.Date == nil || b.TicketCount == nil || b.Amount == nil {
			return ErrInvalidStep
		}
	default:
		return ErrInvalidStep
	}
	return nil
}

// SupportStep is the current position in the support-ticket flow.
type SupportStep string

const (
	SupportStepNone        SupportStep = ""
	SupportStepName        SupportStep = "name"
	SupportStepEmail       SupportStep = "email"
	SupportStepIssueType   SupportStep = "issueType"
	SupportStepDescription SupportStep = "description"
	SupportStepPriority    SupportStep = "priority"
)

// SupportContext holds the support ticket fields collected so far.
type SupportContext struct {
	Step        SupportStep    `json:"step,omitempty"`
	Name        string         `json:"name,omitempty"`
	Email       string         `json:"email,omitempty"`
	IssueType   string         `json:"issue_type,omitempty"`
	Description string         `json:"description,omitempty"`
	Priority    TicketPriority `json:"priority,omitempty"`
}

// Active reports whether a support flow is in progress.
func (s *SupportContext) Active() bool {
	return s.Step != SupportStepNone
}

// Reset clears the whole context, leaving no flow in progress.
func (s *SupportContext) Reset() {
	*s = SupportContext{}
}

// ConversationSession correlates a client-held session token with the
// persisted flow contexts. The transcript is stored separately as ChatTurns.
type ConversationSession struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id,omitempty"`
	Booking   BookingContext `json:"booking_context"`
	Support   SupportContext `json:"support_context"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Validate enforces the session invariant: at most one flow active at a time.
func (s *ConversationSession) Validate() error {
	if s.SessionID == "" {
		return ErrEmptySessionID
	}
	if s.Booking.Active() && s.Support.Active() {
		return ErrInvalidStep
	}
	return s.Booking.Validate()
}
