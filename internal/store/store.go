// Package store provides storage backends for the museum ticketing chatbot.
//
// It defines the Store interface consumed by the chat engine and API layer,
// with SQLite, PostgreSQL and in-memory implementations.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string // database connection string
}

// Option defines a configuration option for store implementations.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType determines the database type from a DSN string.
// Returns "postgres" for PostgreSQL-style DSNs, "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// Store is the persistence interface shared by the chat engine and API server.
// Read methods return (nil, nil) when no record exists.
type Store interface {
	// Conversation sessions
	GetSession(sessionID string) (*models.ConversationSession, error)
	SaveSession(session models.ConversationSession) error
	DeleteSessionsIdleSince(cutoff time.Time) (int, error)
	AddChatTurn(turn models.ChatTurn) error
	GetChatTurns(sessionID string) ([]models.ChatTurn, error)

	// Museum catalog
	ListActiveMuseums(limit int) ([]models.Museum, error)
	GetMuseum(id string) (*models.Museum, error)
	SaveMuseum(m models.Museum) error

	// Bookings
	CreateBooking(b models.Booking) error
	BookingIDExists(bookingID string) (bool, error)
	GetBookingByBookingID(bookingID string) (*models.Booking, error)
	ListBookingsByUser(userID string, limit int) ([]models.Booking, error)
	LatestPaidBooking(userID string) (*models.Booking, error)
	UpdateBookingPayment(bookingID string, status models.PaymentStatus, stripeSessionID string) error
	SetBookingPDFURL(bookingID, pdfURL string) error

	// Support tickets
	CreateSupportTicket(t models.SupportTicket) error
	TicketIDExists(ticketID string) (bool, error)
	ListSupportTickets(limit int) ([]models.SupportTicket, error)

	Close() error
}

// InMemoryStore is a Store for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.ConversationSession
	turns    map[string][]models.ChatTurn
	museums  []models.Museum
	bookings []models.Booking
	tickets  []models.SupportTicket
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.ConversationSession),
		turns:    make(map[string][]models.ChatTurn),
	}
}

// GetSession retrieves a session by ID, or (nil, nil) if absent.
func (s *InMemoryStore) GetSession(sessionID string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// SaveSession inserts or replaces a session.
func (s *InMemoryStore) SaveSession(session models.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

// DeleteSessionsIdleSince removes sessions (and their transcripts) not
// updated since cutoff. Returns the number of sessions removed.
func (s *InMemoryStore) DeleteSessionsIdleSince(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.turns, id)
			removed++
		}
	}
	return removed, nil
}

// AddChatTurn appends a transcript entry.
func (s *InMemoryStore) AddChatTurn(turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

// GetChatTurns returns the transcript of a session in order.
func (s *InMemoryStore) GetChatTurns(sessionID string) ([]models.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]models.ChatTurn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	return turns, nil
}

// ListActiveMuseums returns up to limit active museums in insertion order.
func (s *InMemoryStore) ListActiveMuseums(limit int) ([]models.Museum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Museum
	for _, m := range s.museums {
		if !m.Active {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetMuseum retrieves a museum by ID, or (nil, nil) if absent.
func (s *InMemoryStore) GetMuseum(id string) (*models.Museum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.museums {
		if m.ID == id {
			museum := m
			return &museum, nil
		}
	}
	return nil, nil
}

// SaveMuseum inserts or replaces a museum by ID.
func (s *InMemoryStore) SaveMuseum(m models.Museum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.museums {
		if s.museums[i].ID == m.ID {
			s.museums[i] = m
			return nil
		}
	}
	s.museums = append(s.museums, m)
	return nil
}

// CreateBooking appends a booking record.
func (s *InMemoryStore) CreateBooking(b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
	return nil
}

// BookingIDExists reports whether a booking with the given human-readable ID exists.
func (s *InMemoryStore) BookingIDExists(bookingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

// GetBookingByBookingID retrieves a booking by human-readable ID, or (nil, nil).
func (s *InMemoryStore) GetBookingByBookingID(bookingID string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.BookingID == bookingID {
			booking := b
			s.fillMuseumNameLocked(&booking)
			return &booking, nil
		}
	}
	return nil, nil
}

// ListBookingsByUser returns the user's bookings, newest first, up to limit.
func (s *InMemoryStore) ListBookingsByUser(userID string, limit int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			booking := b
			s.fillMuseumNameLocked(&booking)
			out = append(out, booking)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestPaidBooking returns the user's most recent paid booking with a PDF, or (nil, nil).
func (s *InMemoryStore) LatestPaidBooking(userID string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Booking
	for i := range s.bookings {
		b := s.bookings[i]
		if b.UserID != userID || b.PaymentStatus != models.PaymentPaid || b.PDFURL == "" {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			booking := b
			latest = &booking
		}
	}
	if latest != nil {
		s.fillMuseumNameLocked(latest)
	}
	return latest, nil
}

// UpdateBookingPayment records the payment outcome for a booking.
func (s *InMemoryStore) UpdateBookingPayment(bookingID string, status models.PaymentStatus, stripeSessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].BookingID == bookingID {
			s.bookings[i].PaymentStatus = status
			if stripeSessionID != "" {
				s.bookings[i].StripeSessionID = stripeSessionID
			}
			return nil
		}
	}
	return models.ErrBookingNotFound
}

// SetBookingPDFURL records where a booking's generated ticket PDF is served from.
func (s *InMemoryStore) SetBookingPDFURL(bookingID, pdfURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].BookingID == bookingID {
			s.bookings[i].PDFURL = pdfURL
			return nil
		}
	}
	return models.ErrBookingNotFound
}

// CreateSupportTicket appends a support ticket record.
func (s *InMemoryStore) CreateSupportTicket(t models.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
	return nil
}

// TicketIDExists reports whether a ticket with the given human-readable ID exists.
func (s *InMemoryStore) TicketIDExists(ticketID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.TicketID == ticketID {
			return true, nil
		}
	}
	return false, nil
}

// ListSupportTickets returns tickets, newest first, up to limit.
func (s *InMemoryStore) ListSupportTickets(limit int) ([]models.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SupportTicket, len(s.tickets))
	copy(out, s.tickets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// fillMuseumNameLocked populates MuseumName from the catalog; callers hold the lock.
func (s *InMemoryStore) fillMuseumNameLocked(b *models.Booking) {
	if b.MuseumName != "" {
		return
	}
	for _, m := range s.museums {
		if m.ID == b.MuseumID {
			b.MuseumName = m.Name
			return
		}
	}
}
