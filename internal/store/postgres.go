// Package store provides storage backends for the museum ticketing chatbot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements Store on a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetSession retrieves a session by ID, or (nil, nil) if absent.
func (s *PostgresStore) GetSession(sessionID string) (*models.ConversationSession, error) {
	query := `SELECT session_id, user_id, booking_context, support_context, created_at, updated_at
			  FROM sessions WHERE session_id = $1`

	var sess models.ConversationSession
	var bookingJSON, supportJSON string
	err := s.db.QueryRow(query, sessionID).Scan(
		&sess.SessionID, &sess.UserID, &bookingJSON, &supportJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}

	if err := unmarshalContexts(&sess, bookingJSON, supportJSON); err != nil {
		slog.Error("PostgresStore GetSession context unmarshal failed", "error", err, "sessionID", sessionID)
		sess.Booking = models.BookingContext{}
		sess.Support = models.SupportContext{}
	}
	return &sess, nil
}

// SaveSession stores or updates a session.
func (s *PostgresStore) SaveSession(session models.ConversationSession) error {
	bookingJSON, supportJSON, err := marshalContexts(&session)
	if err != nil {
		slog.Error("PostgresStore SaveSession context marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}

	query := `
		INSERT INTO sessions (session_id, user_id, booking_context, support_context, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			booking_context = EXCLUDED.booking_context,
			support_context = EXCLUDED.support_context,
			updated_at = EXCLUDED.updated_at`
	_, err = s.db.Exec(query, session.SessionID, session.UserID, bookingJSON, supportJSON,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", session.SessionID)
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

// DeleteSessionsIdleSince removes sessions not updated since cutoff, with their transcripts.
func (s *PostgresStore) DeleteSessionsIdleSince(cutoff time.Time) (int, error) {
	if _, err := s.db.Exec(`DELETE FROM chat_turns WHERE session_id IN (SELECT session_id FROM sessions WHERE updated_at < $1)`, cutoff); err != nil {
		slog.Error("PostgresStore DeleteSessionsIdleSince turns cleanup failed", "error", err)
		return 0, err
	}
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		slog.Error("PostgresStore DeleteSessionsIdleSince failed", "error", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	slog.Debug("PostgresStore DeleteSessionsIdleSince succeeded", "removed", n)
	return int(n), nil
}

// AddChatTurn appends a transcript entry.
func (s *PostgresStore) AddChatTurn(turn models.ChatTurn) error {
	_, err := s.db.Exec(`INSERT INTO chat_turns (session_id, sender, text, timestamp) VALUES ($1, $2, $3, $4)`,
		turn.SessionID, string(turn.Sender), turn.Text, turn.Timestamp)
	if err != nil {
		slog.Error("PostgresStore AddChatTurn failed", "error", err, "sessionID", turn.SessionID)
		return fmt.Errorf("failed to insert chat turn for %s: %w", turn.SessionID, err)
	}
	return nil
}

// GetChatTurns returns the transcript of a session in order.
func (s *PostgresStore) GetChatTurns(sessionID string) ([]models.ChatTurn, error) {
	rows, err := s.db.Query(`SELECT session_id, sender, text, timestamp FROM chat_turns WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		slog.Error("PostgresStore GetChatTurns query failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		var sender string
		if err := rows.Scan(&t.SessionID, &sender, &t.Text, &t.Timestamp); err != nil {
			slog.Error("PostgresStore GetChatTurns scan failed", "error", err)
			return nil, err
		}
		t.Sender = models.Sender(sender)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ListActiveMuseums returns up to limit active museums.
func (s *PostgresStore) ListActiveMuseums(limit int) ([]models.Museum, error) {
	query := `SELECT id, name, slug, description, location, price, image_url, active, created_at
			  FROM museums WHERE active = TRUE ORDER BY created_at`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		slog.Error("PostgresStore ListActiveMuseums query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var museums []models.Museum
	for rows.Next() {
		m, err := scanMuseum(rows)
		if err != nil {
			slog.Error("PostgresStore ListActiveMuseums scan failed", "error", err)
			return nil, err
		}
		museums = append(museums, m)
	}
	return museums, rows.Err()
}

// GetMuseum retrieves a museum by ID, or (nil, nil) if absent.
func (s *PostgresStore) GetMuseum(id string) (*models.Museum, error) {
	query := `SELECT id, name, slug, description, location, price, image_url, active, created_at
			  FROM museums WHERE id = $1`
	row := s.db.QueryRow(query, id)
	m, err := scanMuseumRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetMuseum not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetMuseum failed", "error", err, "id", id)
		return nil, err
	}
	return &m, nil
}

// SaveMuseum inserts or updates a museum.
func (s *PostgresStore) SaveMuseum(m models.Museum) error {
	query := `
		INSERT INTO museums (id, name, slug, description, location, price, image_url, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
			location = EXCLUDED.location, price = EXCLUDED.price, image_url = EXCLUDED.image_url,
			active = EXCLUDED.active`
	_, err := s.db.Exec(query, m.ID, m.Name, m.Slug, m.Description, m.Location, m.Price, m.ImageURL, m.Active, m.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveMuseum failed", "error", err, "id", m.ID)
		return fmt.Errorf("failed to save museum %s: %w", m.ID, err)
	}
	return nil
}

// CreateBooking inserts a booking record.
func (s *PostgresStore) CreateBooking(b models.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_id, user_id, museum_id, date, ticket_count, amount, payment_status, stripe_session_id, pdf_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(query, b.ID, b.BookingID, b.UserID, b.MuseumID, b.Date, b.TicketCount, b.Amount,
		string(b.PaymentStatus), b.StripeSessionID, b.PDFURL, b.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateBooking failed", "error", err, "bookingID", b.BookingID)
		return fmt.Errorf("failed to insert booking %s: %w", b.BookingID, err)
	}
	return nil
}

// BookingIDExists reports whether a booking with the given human-readable ID exists.
func (s *PostgresStore) BookingIDExists(bookingID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM bookings WHERE booking_id = $1`, bookingID).Scan(&n)
	if err != nil {
		slog.Error("PostgresStore BookingIDExists failed", "error", err, "bookingID", bookingID)
		return false, err
	}
	return n > 0, nil
}

// GetBookingByBookingID retrieves a booking by human-readable ID, or (nil, nil).
func (s *PostgresStore) GetBookingByBookingID(bookingID string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.booking_id = $1`
	row := s.db.QueryRow(query, bookingID)
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetBookingByBookingID not found", "bookingID", bookingID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetBookingByBookingID failed", "error", err, "bookingID", bookingID)
		return nil, err
	}
	return &b, nil
}

// ListBookingsByUser returns the user's bookings, newest first, up to limit.
func (s *PostgresStore) ListBookingsByUser(userID string, limit int) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = $1 ORDER BY b.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, userID)
	if err != nil {
		slog.Error("PostgresStore ListBookingsByUser query failed", "error", err, "userID", userID)
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			slog.Error("PostgresStore ListBookingsByUser scan failed", "error", err)
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// LatestPaidBooking returns the user's most recent paid booking with a PDF, or (nil, nil).
func (s *PostgresStore) LatestPaidBooking(userID string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = $1 AND b.payment_status = 'paid' AND b.pdf_url != ''
		ORDER BY b.created_at DESC LIMIT 1`
	row := s.db.QueryRow(query, userID)
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore LatestPaidBooking failed", "error", err, "userID", userID)
		return nil, err
	}
	return &b, nil
}

// UpdateBookingPayment records the payment outcome for a booking.
func (s *PostgresStore) UpdateBookingPayment(bookingID string, status models.PaymentStatus, stripeSessionID string) error {
	res, err := s.db.Exec(`UPDATE bookings SET payment_status = $1,
		stripe_session_id = CASE WHEN $2 != '' THEN $2 ELSE stripe_session_id END WHERE booking_id = $3`,
		string(status), stripeSessionID, bookingID)
	if err != nil {
		slog.Error("PostgresStore UpdateBookingPayment failed", "error", err, "bookingID", bookingID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// SetBookingPDFURL records where a booking's generated ticket PDF is served from.
func (s *PostgresStore) SetBookingPDFURL(bookingID, pdfURL string) error {
	res, err := s.db.Exec(`UPDATE bookings SET pdf_url = $1 WHERE booking_id = $2`, pdfURL, bookingID)
	if err != nil {
		slog.Error("PostgresStore SetBookingPDFURL failed", "error", err, "bookingID", bookingID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// CreateSupportTicket inserts a support ticket record.
func (s *PostgresStore) CreateSupportTicket(t models.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (id, ticket_id, user_id, name, email, issue_type, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(query, t.ID, t.TicketID, t.UserID, t.Name, t.Email, t.IssueType, t.Description,
		string(t.Priority), string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateSupportTicket failed", "error", err, "ticketID", t.TicketID)
		return fmt.Errorf("failed to insert support ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// TicketIDExists reports whether a ticket with the given human-readable ID exists.
func (s *PostgresStore) TicketIDExists(ticketID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM support_tickets WHERE ticket_id = $1`, ticketID).Scan(&n)
	if err != nil {
		slog.Error("PostgresStore TicketIDExists failed", "error", err, "ticketID", ticketID)
		return false, err
	}
	return n > 0, nil
}

// ListSupportTickets returns tickets, newest first, up to limit.
func (s *PostgresStore) ListSupportTickets(limit int) ([]models.SupportTicket, error) {
	query := `SELECT id, ticket_id, user_id, name, email, issue_type, description, priority, status, created_at, updated_at
			  FROM support_tickets ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		slog.Error("PostgresStore ListSupportTickets query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var tickets []models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			slog.Error("PostgresStore ListSupportTickets scan failed", "error", err)
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
