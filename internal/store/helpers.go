package store

import (
	"database/sql"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

// bookingSelect joins the catalog so listings carry the museum display name.
const bookingSelect = `SELECT b.id, b.booking_id, b.user_id, b.museum_id, COALESCE(m.name, ''),
	b.date, b.ticket_count, b.amount, b.payment_status, b.stripe_session_id, b.pdf_url, b.created_at
	FROM bookings b LEFT JOIN museums m ON m.id = b.museum_id`

// scanMuseum scans a Museum from sql.Rows.
func scanMuseum(rows *sql.Rows) (models.Museum, error) {
	var m models.Museum
	err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Description, &m.Location, &m.Price, &m.ImageURL, &m.Active, &m.CreatedAt)
	return m, err
}

// scanMuseumRow scans a Museum from a single sql.Row.
func scanMuseumRow(row *sql.Row) (models.Museum, error) {
	var m models.Museum
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Description, &m.Location, &m.Price, &m.ImageURL, &m.Active, &m.CreatedAt)
	return m, err
}

// scanBooking scans a Booking (with joined museum name) from sql.Rows.
func scanBooking(rows *sql.Rows) (models.Booking, error) {
	var b models.Booking
	var status string
	err := rows.Scan(&b.ID, &b.BookingID, &b.UserID, &b.MuseumID, &b.MuseumName,
		&b.Date, &b.TicketCount, &b.Amount, &status, &b.StripeSessionID, &b.PDFURL, &b.CreatedAt)
	b.PaymentStatus = models.PaymentStatus(status)
	return b, err
}

// scanBookingRow scans a Booking (with joined museum name) from a single sql.Row.
func scanBookingRow(row *sql.Row) (models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(&b.ID, &b.BookingID, &b.UserID, &b.MuseumID, &b.MuseumName,
		&b.Date, &b.TicketCount, &b.Amount, &status, &b.StripeSessionID, &b.PDFURL, &b.CreatedAt)
	b.PaymentStatus = models.PaymentStatus(status)
	return b, err
}

// scanTicket scans a SupportTicket from sql.Rows.
func scanTicket(rows *sql.Rows) (models.SupportTicket, error) {
	var t models.SupportTicket
	var priority, status string
	err := rows.Scan(&t.ID, &t.TicketID, &t.UserID, &t.Name, &t.Email, &t.IssueType,
		&t.Description, &priority, &status, &t.CreatedAt, &t.UpdatedAt)
	t.Priority = models.TicketPriority(priority)
	t.Status = models.TicketStatus(status)
	return t, err
}
