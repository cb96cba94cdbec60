package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
)

const (
	invalidDateReply    = "Please provide a valid future date (e.g., YYYY-MM-DD, DD-MM-YYYY, or 'tomorrow')."
	invalidTicketsReply = "Please enter a valid number of tickets (1-100)."
	confirmNudgeReply   = "Please type 'yes' to proceed with payment, or 'cancel' to cancel the booking."
	museumGoneReply     = "Museum not found. Please start over."
)

// handleBooking advances the booking flow by one step. A booking intent on an
// idle session (or on the confirmation step) restarts the flow from museum
// selection.
func (e *Engine) handleBooking(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	// "go back" rewinds exactly one step.
	if sess.Booking.Active() && wantsGoBack(message) {
		return e.bookingGoBack(sess)
	}

	if !sess.Booking.Active() || (sess.Booking.Step == models.BookingStepConfirm && wantsBooking(message)) {
		return e.startBooking(sess)
	}

	switch sess.Booking.Step {
	case models.BookingStepMuseum:
		return e.bookingSelectMuseum(sess, message)
	case models.BookingStepDate:
		return e.bookingSelectDate(sess, message)
	case models.BookingStepTickets:
		return e.bookingSelectTickets(sess, message)
	case models.BookingStepConfirm:
		return e.bookingConfirm(sess, message)
	}

	// Unknown step state, restart rather than wedge the session.
	slog.Error("Engine.handleBooking: unknown booking step", "sessionID", sess.SessionID, "step", string(sess.Booking.Step))
	return e.startBooking(sess)
}

func (e *Engine) startBooking(sess *models.ConversationSession) models.ChatResult {
	sess.Support.Reset()
	sess.Booking.Start()

	museums, err := e.store.ListActiveMuseums(models.MuseumListLimit)
	if err != nil {
		slog.Error("Engine.startBooking: museum list failed", "error", err, "sessionID", sess.SessionID)
		sess.Booking.Reset()
		return models.ChatResult{Reply: museumsFetchFailed}
	}
	if len(museums) == 0 {
		return models.ChatResult{
			Reply:      "Sure! Which museum would you like to visit? Currently, there are no museums available.",
			NextAction: models.ActionAskMuseum,
		}
	}
	return models.ChatResult{
		Reply: "Sure! Which museum would you like to visit? Here are the available museums:\n\n" +
			museumMenu(museums) + "\nPlease select a museum by name or number.",
		NextAction: models.ActionAskMuseum,
	}
}

func (e *Engine) bookingSelectMuseum(sess *models.ConversationSession, message string) models.ChatResult {
	museums, err := e.store.ListActiveMuseums(models.MuseumListLimit)
	if err != nil {
		slog.Error("Engine.bookingSelectMuseum: museum list failed", "error", err, "sessionID", sess.SessionID)
		return models.ChatResult{Reply: museumsFetchFailed, NextAction: models.ActionAskMuseum}
	}

	museum := matchMuseum(message, museums)
	if museum == nil {
		reply := "I couldn't find that museum. "
		if len(museums) == 0 {
			reply += "Currently, there are no museums available."
		} else {
			reply += "Here are the available museums:\n\n" + museumMenu(museums)
		}
		return models.ChatResult{Reply: reply, NextAction: models.ActionAskMuseum}
	}

	sess.Booking.SelectMuseum(museum.ID, museum.Name)
	return models.ChatResult{
		Reply:      fmt.Sprintf("Great choice! %s. What date would you like to visit?", museum.Name),
		NextAction: models.ActionAskDate,
		Payload:    map[string]any{"museumId": museum.ID, "museumName": museum.Name},
	}
}

func (e *Engine) bookingSelectDate(sess *models.ConversationSession, message string) models.ChatResult {
	now := e.now()
	date, ok := parseDate(message, now)
	if !ok || !isValidVisitDate(date, now) {
		return models.ChatResult{Reply: invalidDateReply, NextAction: models.ActionAskDate}
	}

	sess.Booking.SetDate(truncateDate(date))
	return models.ChatResult{
		Reply:      fmt.Sprintf("Nice! %s. How many tickets do you need?", formatVisitDate(date)),
		NextAction: models.ActionAskTickets,
		Payload:    map[string]any{"date": truncateDate(date).Format(time.RFC3339)},
	}
}

func (e *Engine) bookingSelectTickets(sess *models.ConversationSession, message string) models.ChatResult {
	count, ok := extractTicketCount(message)
	if !ok {
		return models.ChatResult{Reply: invalidTicketsReply, NextAction: models.ActionAskTickets}
	}

	museum, err := e.store.GetMuseum(sess.Booking.MuseumID)
	if err != nil {
		slog.Error("Engine.bookingSelectTickets: museum fetch failed", "error", err, "sessionID", sess.SessionID, "museumID", sess.Booking.MuseumID)
		return models.ChatResult{Reply: museumsFetchFailed, NextAction: models.ActionAskTickets}
	}
	if museum == nil {
		sess.Booking.Reset()
		return models.ChatResult{Reply: museumGoneReply}
	}

	amount := int64(count) * museum.Price
	sess.Booking.SetTickets(count, amount)

	unit := "ticket"
	if count > 1 {
		unit = "tickets"
	}
	return models.ChatResult{
		Reply: fmt.Sprintf("You are booking %d %s for %s. Visit date: %s. Total: %s. Should I proceed to payment?",
			count, unit, museum.Name, formatVisitDate(*sess.Booking.Date), formatINR(amount)),
		NextAction: models.ActionConfirmBooking,
		Payload:    map[string]any{"ticketCount": count, "amount": amount},
	}
}

func (e *Engine) bookingConfirm(sess *models.ConversationSession, message string) models.ChatResult {
	if !isConfirmation(message) {
		return models.ChatResult{Reply: confirmNudgeReply, NextAction: models.ActionConfirmBooking}
	}

	payload := map[string]any{
		"museumId":    sess.Booking.MuseumID,
		"museumName":  sess.Booking.MuseumName,
		"date":        sess.Booking.Date.Format(time.RFC3339),
		"ticketCount": *sess.Booking.TicketCount,
		"amount":      *sess.Booking.Amount,
	}
	sess.Booking.Reset()
	return models.ChatResult{
		Reply:      "Redirecting to payment…",
		NextAction: models.ActionTriggerPayment,
		Payload:    payload,
	}
}

func (e *Engine) bookingGoBack(sess *models.ConversationSession) models.ChatResult {
	switch sess.Booking.Step {
	case models.BookingStepDate:
		sess.Booking.BackToMuseum()
		museums, err := e.store.ListActiveMuseums(models.MuseumListLimit)
		if err != nil {
			slog.Error("Engine.bookingGoBack: museum list failed", "error", err, "sessionID", sess.SessionID)
			return models.ChatResult{Reply: museumsFetchFailed, NextAction: models.ActionAskMuseum}
		}
		if len(museums) == 0 {
			return models.ChatResult{
				Reply:      "Which museum would you like to visit? Currently, there are no museums available.",
				NextAction: models.ActionAskMuseum,
			}
		}
		return models.ChatResult{
			Reply: "Which museum would you like to visit? Here are the available museums:\n\n" +
				museumMenu(museums) + "\nPlease select a museum by name or number.",
			NextAction: models.ActionAskMuseum,
		}
	case models.BookingStepTickets:
		sess.Booking.BackToDate()
		return models.ChatResult{
			Reply:      fmt.Sprintf("What date would you like to visit %s?", sess.Booking.MuseumName),
			NextAction: models.ActionAskDate,
		}
	case models.BookingStepConfirm:
		sess.Booking.BackToTickets()
		return models.ChatResult{
			Reply:      fmt.Sprintf("How many tickets do you need for %s?", sess.Booking.MuseumName),
			NextAction: models.ActionAskTickets,
		}
	}
	// At museum selection there is nothing earlier to go back to.
	return e.startBooking(sess)
}

func (e *Engine) handleMyBookings(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	if sess.UserID == "" {
		return models.ChatResult{Reply: loginForBookings, NextAction: models.ActionShowBookings}
	}

	bookings, err := e.store.ListBookingsByUser(sess.UserID, models.BookingListLimit)
	if err != nil {
		slog.Error("Engine.handleMyBookings: booking list failed", "error", err, "sessionID", sess.SessionID, "userID", sess.UserID)
		return models.ChatResult{Reply: bookingsFetchFailed}
	}
	if len(bookings) == 0 {
		return models.ChatResult{Reply: noBookingsYet, NextAction: models.ActionShowBookings}
	}

	unit := "booking"
	if len(bookings) > 1 {
		unit = "bookings"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d %s:\n\n", len(bookings), unit)
	for i, booking := range bookings {
		fmt.Fprintf(&b, "%d. %s - %s (%d tickets, %s)\n   Booking ID: %s\n",
			i+1, booking.MuseumName, booking.Date.Format("02/01/2006"),
			booking.TicketCount, formatINR(booking.Amount), booking.BookingID)
	}
	b.WriteString("\nVisit your dashboard to download tickets or view all bookings.")
	return models.ChatResult{Reply: b.String(), NextAction: models.ActionShowBookings}
}

func (e *Engine) handleDownloadTicket(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	if sess.UserID == "" {
		return models.ChatResult{Reply: loginForDownload, NextAction: models.ActionDownloadTicket}
	}

	booking, err := e.store.LatestPaidBooking(sess.UserID)
	if err != nil {
		slog.Error("Engine.handleDownloadTicket: lookup failed", "error", err, "sessionID", sess.SessionID, "userID", sess.UserID)
		return models.ChatResult{Reply: ticketsFetchFailed}
	}
	if booking == nil {
		return models.ChatResult{Reply: noDownloadable, NextAction: models.ActionDownloadTicket}
	}

	payload := map[string]any{"bookingId": booking.BookingID}
	if booking.PDFURL != "" {
		payload["pdfUrl"] = booking.PDFURL
	}
	return models.ChatResult{
		Reply: fmt.Sprintf("Your latest ticket for %s is ready! Visit your dashboard or booking history to download the PDF. Booking ID: %s",
			booking.MuseumName, booking.BookingID),
		NextAction: models.ActionDownloadTicket,
		Payload:    payload,
	}
}

func (e *Engine) handleMuseumList(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	museums, err := e.store.ListActiveMuseums(models.MuseumListLimit)
	if err != nil {
		slog.Error("Engine.handleMuseumList: museum list failed", "error", err, "sessionID", sess.SessionID)
		return models.ChatResult{Reply: museumsFetchFailed}
	}
	if len(museums) == 0 {
		return models.ChatResult{Reply: noMuseumsAvailable, NextAction: models.ActionShowMuseums}
	}
	return models.ChatResult{
		Reply: "Available museums in Bengaluru:\n\n" + museumMenu(museums) +
			"\nWould you like to book tickets for any of these?",
		NextAction: models.ActionShowMuseums,
	}
}

// museumMenu renders the numbered museum list shared by the booking prompt
// and the informational listing. Each line ends with a newline.
func museumMenu(museums []models.Museum) string {
	var b strings.Builder
	for i, m := range museums {
		fmt.Fprintf(&b, "%d. %s - %s/ticket\n", i+1, m.Name, formatINR(m.Price))
	}
	return b.String()
}
