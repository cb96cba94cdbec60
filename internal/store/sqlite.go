// Package store provides storage backends for the museum ticketing chatbot.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetSession retrieves a session by ID, or (nil, nil) if absent.
func (s *SQLiteStore) GetSession(sessionID string) (*models.ConversationSession, error) {
	query := `SELECT session_id, user_id, booking_context, support_context, created_at, updated_at
			  FROM sessions WHERE session_id = ?`

	var sess models.ConversationSession
	var bookingJSON, supportJSON string
	err := s.db.QueryRow(query, sessionID).Scan(
		&sess.SessionID, &sess.UserID, &bookingJSON, &supportJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}

	if err := unmarshalContexts(&sess, bookingJSON, supportJSON); err != nil {
		slog.Error("SQLiteStore GetSession context unmarshal failed", "error", err, "sessionID", sessionID)
		// Continue with empty contexts rather than failing the turn
		sess.Booking = models.BookingContext{}
		sess.Support = models.SupportContext{}
	}
	return &sess, nil
}

// SaveSession stores or updates a session.
func (s *SQLiteStore) SaveSession(session models.ConversationSession) error {
	bookingJSON, supportJSON, err := marshalContexts(&session)
	if err != nil {
		slog.Error("SQLiteStore SaveSession context marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}

	query := `
		INSERT OR REPLACE INTO sessions (session_id, user_id, booking_context, support_context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, session.SessionID, session.UserID, bookingJSON, supportJSON,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", session.SessionID)
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

// DeleteSessionsIdleSince removes sessions not updated since cutoff, with their transcripts.
func (s *SQLiteStore) DeleteSessionsIdleSince(cutoff time.Time) (int, error) {
	if _, err := s.db.Exec(`DELETE FROM chat_turns WHERE session_id IN (SELECT session_id FROM sessions WHERE updated_at < ?)`, cutoff); err != nil {
		slog.Error("SQLiteStore DeleteSessionsIdleSince turns cleanup failed", "error", err)
		return 0, err
	}
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		slog.Error("SQLiteStore DeleteSessionsIdleSince failed", "error", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	slog.Debug("SQLiteStore DeleteSessionsIdleSince succeeded", "removed", n)
	return int(n), nil
}

// AddChatTurn appends a transcript entry.
func (s *SQLiteStore) AddChatTurn(turn models.ChatTurn) error {
	_, err := s.db.Exec(`INSERT INTO chat_turns (session_id, sender, text, timestamp) VALUES (?, ?, ?, ?)`,
		turn.SessionID, string(turn.Sender), turn.Text, turn.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore AddChatTurn failed", "error", err, "sessionID", turn.SessionID)
		return fmt.Errorf("failed to insert chat turn for %s: %w", turn.SessionID, err)
	}
	return nil
}

// GetChatTurns returns the transcript of a session in order.
func (s *SQLiteStore) GetChatTurns(sessionID string) ([]models.ChatTurn, error) {
	rows, err := s.db.Query(`SELECT session_id, sender, text, timestamp FROM chat_turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore GetChatTurns query failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		var sender string
		if err := rows.Scan(&t.SessionID, &sender, &t.Text, &t.Timestamp); err != nil {
			slog.Error("SQLiteStore GetChatTurns scan failed", "error", err)
			return nil, err
		}
		t.Sender = models.Sender(sender)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ListActiveMuseums returns up to limit active museums.
func (s *SQLiteStore) ListActiveMuseums(limit int) ([]models.Museum, error) {
	query := `SELECT id, name, slug, description, location, price, image_url, active, created_at
			  FROM museums WHERE active = 1 ORDER BY created_at`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		slog.Error("SQLiteStore ListActiveMuseums query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var museums []models.Museum
	for rows.Next() {
		m, err := scanMuseum(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActiveMuseums scan failed", "error", err)
			return nil, err
		}
		museums = append(museums, m)
	}
	return museums, rows.Err()
}

// GetMuseum retrieves a museum by ID, or (nil, nil) if absent.
func (s *SQLiteStore) GetMuseum(id string) (*models.Museum, error) {
	query := `SELECT id, name, slug, description, location, price, image_url, active, created_at
			  FROM museums WHERE id = ?`
	row := s.db.QueryRow(query, id)
	m, err := scanMuseumRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetMuseum not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetMuseum failed", "error", err, "id", id)
		return nil, err
	}
	return &m, nil
}

// SaveMuseum inserts or replaces a museum.
func (s *SQLiteStore) SaveMuseum(m models.Museum) error {
	query := `
		INSERT OR REPLACE INTO museums (id, name, slug, description, location, price, image_url, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, m.ID, m.Name, m.Slug, m.Description, m.Location, m.Price, m.ImageURL, m.Active, m.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveMuseum failed", "error", err, "id", m.ID)
		return fmt.Errorf("failed to save museum %s: %w", m.ID, err)
	}
	return nil
}

// CreateBooking inserts a booking record.
func (s *SQLiteStore) CreateBooking(b models.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_id, user_id, museum_id, date, ticket_count, amount, payment_status, stripe_session_id, pdf_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, b.ID, b.BookingID, b.UserID, b.MuseumID, b.Date, b.TicketCount, b.Amount,
		string(b.PaymentStatus), b.StripeSessionID, b.PDFURL, b.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateBooking failed", "error", err, "bookingID", b.BookingID)
		return fmt.Errorf("failed to insert booking %s: %w", b.BookingID, err)
	}
	return nil
}

// BookingIDExists reports whether a booking with the given human-readable ID exists.
func (s *SQLiteStore) BookingIDExists(bookingID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM bookings WHERE booking_id = ?`, bookingID).Scan(&n)
	if err != nil {
		slog.Error("SQLiteStore BookingIDExists failed", "error", err, "bookingID", bookingID)
		return false, err
	}
	return n > 0, nil
}

// GetBookingByBookingID retrieves a booking by human-readable ID, or (nil, nil).
func (s *SQLiteStore) GetBookingByBookingID(bookingID string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.booking_id = ?`
	row := s.db.QueryRow(query, bookingID)
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetBookingByBookingID not found", "bookingID", bookingID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetBookingByBookingID failed", "error", err, "bookingID", bookingID)
		return nil, err
	}
	return &b, nil
}

// ListBookingsByUser returns the user's bookings, newest first, up to limit.
func (s *SQLiteStore) ListBookingsByUser(userID string, limit int) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = ? ORDER BY b.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, userID)
	if err != nil {
		slog.Error("SQLiteStore ListBookingsByUser query failed", "error", err, "userID", userID)
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			slog.Error("SQLiteStore ListBookingsByUser scan failed", "error", err)
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// LatestPaidBooking returns the user's most recent paid booking with a PDF, or (nil, nil).
func (s *SQLiteStore) LatestPaidBooking(userID string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = ? AND b.payment_status = 'paid' AND b.pdf_url != ''
		ORDER BY b.created_at DESC LIMIT 1`
	row := s.db.QueryRow(query, userID)
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore LatestPaidBooking failed", "error", err, "userID", userID)
		return nil, err
	}
	return &b, nil
}

// UpdateBookingPayment records the payment outcome for a booking.
func (s *SQLiteStore) UpdateBookingPayment(bookingID string, status models.PaymentStatus, stripeSessionID string) error {
	res, err := s.db.Exec(`UPDATE bookings SET payment_status = ?, stripe_session_id = CASE WHEN ? != '' THEN ? ELSE stripe_session_id END WHERE booking_id = ?`,
		string(status), stripeSessionID, stripeSessionID, bookingID)
	if err != nil {
		slog.Error("SQLiteStore UpdateBookingPayment failed", "error", err, "bookingID", bookingID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// SetBookingPDFURL records where a booking's generated ticket PDF is served from.
func (s *SQLiteStore) SetBookingPDFURL(bookingID, pdfURL string) error {
	res, err := s.db.Exec(`UPDATE bookings SET pdf_url = ? WHERE booking_id = ?`, pdfURL, bookingID)
	if err != nil {
		slog.Error("SQLiteStore SetBookingPDFURL failed", "error", err, "bookingID", bookingID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// CreateSupportTicket inserts a support ticket record.
func (s *SQLiteStore) CreateSupportTicket(t models.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (id, ticket_id, user_id, name, email, issue_type, description, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, t.ID, t.TicketID, t.UserID, t.Name, t.Email, t.IssueType, t.Description,
		string(t.Priority), string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateSupportTicket failed", "error", err, "ticketID", t.TicketID)
		return fmt.Errorf("failed to insert support ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// TicketIDExists reports whether a ticket with the given human-readable ID exists.
func (s *SQLiteStore) TicketIDExists(ticketID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM support_tickets WHERE ticket_id = ?`, ticketID).Scan(&n)
	if err != nil {
		slog.Error("SQLiteStore TicketIDExists failed", "error", err, "ticketID", ticketID)
		return false, err
	}
	return n > 0, nil
}

// ListSupportTickets returns tickets, newest first, up to limit.
func (s *SQLiteStore) ListSupportTickets(limit int) ([]models.SupportTicket, error) {
	query := `SELECT id, ticket_id, user_id, name, email, issue_type, description, priority, status, created_at, updated_at
			  FROM support_tickets ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		slog.Error("SQLiteStore ListSupportTickets query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var tickets []models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			slog.Error("SQLiteStore ListSupportTickets scan failed", "error", err)
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}

// marshalContexts serializes the session flow contexts as JSON columns.
// Inactive contexts serialize to the empty string.
func marshalContexts(sess *models.ConversationSession) (string, string, error) {
	var bookingJSON, supportJSON string
	if sess.Booking.Active() {
		b, err := json.Marshal(sess.Booking)
		if err != nil {
			return "", "", err
		}
		bookingJSON = string(b)
	}
	if sess.Support.Active() {
		b, err := json.Marshal(sess.Support)
		if err != nil {
			return "", "", err
		}
		supportJSON = string(b)
	}
	return bookingJSON, supportJSON, nil
}

// unmarshalContexts restores the session flow contexts from JSON columns.
func unmarshalContexts(sess *models.ConversationSession, bookingJSON, supportJSON string) error {
	if bookingJSON != "" {
		if err := json.Unmarshal([]byte(bookingJSON), &sess.Booking); err != nil {
			return err
		}
	}
	if supportJSON != "" {
		if err := json.Unmarshal([]byte(supportJSON), &sess.Support); err != nil {
			return err
		}
	}
	return nil
}
