package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/genai"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

// recordingResponder captures fallback calls for assertions.
type recordingResponder struct {
	calls []string
	reply string
}

func (r *recordingResponder) Respond(ctx context.Context, message string, summary genai.SessionSummary) (string, error) {
	r.calls = append(r.calls, message)
	if r.reply != "" {
		return r.reply, nil
	}
	return genai.FallbackReply, nil
}

// recordingNotifier captures ticket confirmations.
type recordingNotifier struct {
	notify.NoopNotifier
	tickets []models.SupportTicket
}

func (n *recordingNotifier) SendTicketConfirmation(ctx context.Context, to string, ticket models.SupportTicket) error {
	n.tickets = append(n.tickets, ticket)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *store.InMemoryStore, *recordingResponder, *recordingNotifier) {
	t.Helper()
	st := store.NewInMemoryStore()
	for _, m := range testMuseums {
		if err := st.SaveMuseum(m); err != nil {
			t.Fatalf("failed to seed museum: %v", err)
		}
	}
	responder := &recordingResponder{}
	notifier := &recordingNotifier{}
	return NewEngine(st, responder, notifier), st, responder, notifier
}

func send(t *testing.T, e *Engine, sessionID, message string) models.ChatResult {
	t.Helper()
	result, err := e.HandleMessage(context.Background(), sessionID, message, "")
	if err != nil {
		t.Fatalf("HandleMessage(%q) failed: %v", message, err)
	}
	return result
}

func TestGreetingResetsFlows(t *testing.T) {
	e, st, _, _ := newTestEngine(t)

	send(t, e, "s1", "book tickets")
	result := send(t, e, "s1", "hello")
	if result.NextAction != models.ActionGreeting {
		t.Fatalf("next action = %s, want GREETING", result.NextAction)
	}
	if result.Reply != greetingReply {
		t.Errorf("unexpected greeting reply: %q", result.Reply)
	}

	sess, err := st.GetSession("s1")
	if err != nil || sess == nil {
		t.Fatalf("session load failed: %v", err)
	}
	if sess.Booking.Active() || sess.Support.Active() {
		t.Error("greeting should reset both flow contexts")
	}
}

func TestBookingHappyPath(t *testing.T) {
	e, st, _, _ := newTestEngine(t)
	sid := "booking-session"

	result := send(t, e, sid, "I want to book tickets")
	if result.NextAction != models.ActionAskMuseum {
		t.Fatalf("next action = %s, want ASK_MUSEUM", result.NextAction)
	}
	if !strings.Contains(result.Reply, "Kempegowda Museum - ₹150/ticket") {
		t.Errorf("museum menu missing entry: %q", result.Reply)
	}

	result = send(t, e, sid, "Kempegowda Museum")
	if result.NextAction != models.ActionAskDate {
		t.Fatalf("next action = %s, want ASK_DATE", result.NextAction)
	}
	if !strings.Contains(result.Reply, "Great choice! Kempegowda Museum.") {
		t.Errorf("unexpected museum reply: %q", result.Reply)
	}

	result = send(t, e, sid, "tomorrow")
	if result.NextAction != models.ActionAskTickets {
		t.Fatalf("next action = %s, want ASK_TICKETS", result.NextAction)
	}

	result = send(t, e, sid, "2")
	if result.NextAction != models.ActionConfirmBooking {
		t.Fatalf("next action = %s, want CONFIRM_BOOKING", result.NextAction)
	}
	if !strings.Contains(result.Reply, "₹300") {
		t.Errorf("confirmation should show the total, got %q", result.Reply)
	}

	result = send(t, e, sid, "yes")
	if result.NextAction != models.ActionTriggerPayment {
		t.Fatalf("next action = %s, want TRIGGER_PAYMENT", result.NextAction)
	}
	if result.Payload["museumId"] != "m1" {
		t.Errorf("payload museumId = %v, want m1", result.Payload["museumId"])
	}
	if result.Payload["ticketCount"] != 2 {
		t.Errorf("payload ticketCount = %v, want 2", result.Payload["ticketCount"])
	}
	if result.Payload["amount"] != int64(300) {
		t.Errorf("payload amount = %v, want 300", result.Payload["amount"])
	}

	sess, _ := st.GetSession(sid)
	if sess.Booking.Active() {
		t.Error("booking context should be cleared after payment trigger")
	}
}

func TestBookingInvalidInputsRepeatStep(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	sid := "retry-session"

	send(t, e, sid, "book tickets")

	result := send(t, e, sid, "some place that does not exist zzz")
	if result.NextAction != models.ActionAskMuseum {
		t.Fatalf("unknown museum should repeat ASK_MUSEUM, got %s", result.NextAction)
	}
	if !strings.Contains(result.Reply, "I couldn't find that museum.") {
		t.Errorf("unexpected reply: %q", result.Reply)
	}

	send(t, e, sid, "Kempegowda Museum")

	result = send(t, e, sid, "2020-01-01")
	if result.NextAction != models.ActionAskDate {
		t.Fatalf("past date should repeat ASK_DATE, got %s", result.NextAction)
	}
	if result.Reply != invalidDateReply {
		t.Errorf("unexpected reply: %q", result.Reply)
	}

	send(t, e, sid, "tomorrow")

	result = send(t, e, sid, "250")
	if result.NextAction != models.ActionAskTickets {
		t.Fatalf("out-of-range count should repeat ASK_TICKETS, got %s", result.NextAction)
	}
	if result.Reply != invalidTicketsReply {
		t.Errorf("unexpected reply: %q", result.Reply)
	}

	result = send(t, e, sid, "3")
	if result.NextAction != models.ActionConfirmBooking {
		t.Fatalf("valid count should advance, got %s", result.NextAction)
	}

	result = send(t, e, sid, "maybe")
	if result.NextAction != models.ActionConfirmBooking {
		t.Fatalf("non-confirmation should repeat CONFIRM_BOOKING, got %s", result.NextAction)
	}
	if result.Reply != confirmNudgeReply {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
}

func TestBookingGoBack(t *testing.T) {
	e, st, _, _ := newTestEngine(t)
	sid := "goback-session"

	send(t, e, sid, "book tickets")
	send(t, e, sid, "Kempegowda Museum")

	result := send(t, e, sid, "go back")
	if result.NextAction != models.ActionAskMuseum {
		t.Fatalf("go back from date should return to ASK_MUSEUM, got %s", result.NextAction)
	}
	sess, _ := st.GetSession(sid)
	if sess.Booking.MuseumID != "" {
		t.Error("go back should drop the selected museum")
	}

	send(t, e, sid, "Kempegowda Museum")
	send(t, e, sid, "tomorrow")
	result = send(t, e, sid, "go back")
	if result.NextAction != models.ActionAskDate {
		t.Fatalf("go back from tickets should return to ASK_DATE, got %s", result.NextAction)
	}
	sess, _ = st.GetSession(sid)
	if sess.Booking.MuseumID == "" {
		t.Error("go back to date should keep the museum")
	}
	if sess.Booking.Date != nil {
		t.Error("go back to date should drop the date")
	}

	send(t, e, sid, "tomorrow")
	send(t, e, sid, "2")
	result = send(t, e, sid, "go back")
	if result.NextAction != models.ActionAskTickets {
		t.Fatalf("go back from confirm should return to ASK_TICKETS, got %s", result.NextAction)
	}
	sess, _ = st.GetSession(sid)
	if sess.Booking.TicketCount != nil || sess.Booking.Amount != nil {
		t.Error("go back to tickets should drop count and amount")
	}
	if sess.Booking.MuseumID == "" || sess.Booking.Date == nil {
		t.Error("go back to tickets should keep museum and date")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	e, st, responder, _ := newTestEngine(t)
	sid := "cancel-session"

	send(t, e, sid, "book tickets")
	result := send(t, e, sid, "cancel")
	if result.Reply != bookingCancelled {
		t.Fatalf("unexpected cancel reply: %q", result.Reply)
	}
	sess, _ := st.GetSession(sid)
	if sess.Booking.Active() {
		t.Fatal("cancel should clear the booking context")
	}

	// A second cancel has no flow to cancel and falls through to the responder.
	result = send(t, e, sid, "cancel")
	if result.NextAction != models.ActionAIResponse {
		t.Fatalf("second cancel should fall through, got %s", result.NextAction)
	}
	if len(responder.calls) != 1 {
		t.Errorf("responder calls = %d, want 1", len(responder.calls))
	}
	sess, _ = st.GetSession(sid)
	if sess.Booking.Active() || sess.Support.Active() {
		t.Error("second cancel must not change state")
	}
}

func TestSupportTicketFlow(t *testing.T) {
	e, st, _, notifier := newTestEngine(t)
	// WhatsApp-style session ID so the confirmation notification fires
	sid := "wa:919876543210"

	result := send(t, e, sid, "create support ticket")
	if result.NextAction != models.ActionAskSupportName {
		t.Fatalf("next action = %s, want ASK_SUPPORT_NAME", result.NextAction)
	}

	result = send(t, e, sid, "John Doe")
	if result.NextAction != models.ActionAskSupportEmail {
		t.Fatalf("next action = %s, want ASK_SUPPORT_EMAIL", result.NextAction)
	}
	if !strings.Contains(result.Reply, "Thank you, John Doe.") {
		t.Errorf("unexpected reply: %q", result.Reply)
	}

	result = send(t, e, sid, "not-an-email")
	if result.Reply != invalidEmailReply {
		t.Fatalf("invalid email should repeat the step, got %q", result.Reply)
	}

	send(t, e, sid, "john@example.com")
	send(t, e, sid, "Payment Issue")
	result = send(t, e, sid, "My payment failed but money was deducted")
	if result.NextAction != models.ActionAskSupportPriority {
		t.Fatalf("next action = %s, want ASK_SUPPORT_PRIORITY", result.NextAction)
	}

	result = send(t, e, sid, "urgent")
	if result.Reply != invalidPriorityRply {
		t.Fatalf("invalid priority should repeat the step, got %q", result.Reply)
	}

	result = send(t, e, sid, "HIGH")
	if result.NextAction != models.ActionSupportTicketCreated {
		t.Fatalf("next action = %s, want SUPPORT_TICKET_CREATED", result.NextAction)
	}
	ticketID, ok := result.Payload["ticketId"].(string)
	if !ok || !strings.HasPrefix(ticketID, "TKT-") {
		t.Fatalf("payload ticketId = %v, want TKT- prefix", result.Payload["ticketId"])
	}

	tickets, err := st.ListSupportTickets(10)
	if err != nil {
		t.Fatalf("ticket list failed: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("ticket count = %d, want 1", len(tickets))
	}
	ticket := tickets[0]
	if ticket.Name != "John Doe" || ticket.Email != "john@example.com" {
		t.Errorf("ticket identity fields wrong: %+v", ticket)
	}
	if ticket.Priority != models.PriorityHigh {
		t.Errorf("priority = %s, want High", ticket.Priority)
	}
	if ticket.Status != models.TicketOpen {
		t.Errorf("status = %s, want Open", ticket.Status)
	}

	if len(notifier.tickets) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(notifier.tickets))
	}

	sess, _ := st.GetSession(sid)
	if sess.Support.Active() {
		t.Error("support context should be cleared after ticket creation")
	}
}

// collidingIDStore reports the first misses ID candidates as taken.
type collidingIDStore struct {
	store.Store
	misses int
}

func (c *collidingIDStore) TicketIDExists(string) (bool, error) {
	if c.misses > 0 {
		c.misses--
		return true, nil
	}
	return false, nil
}

func TestUniqueTicketIDOutlastsCollisionRuns(t *testing.T) {
	st := &collidingIDStore{Store: store.NewInMemoryStore(), misses: 25}
	e := NewEngine(st, &recordingResponder{}, &recordingNotifier{})

	id, err := e.uniqueTicketID()
	if err != nil {
		t.Fatalf("uniqueTicketID failed after collisions: %v", err)
	}
	if id == "" {
		t.Error("expected a ticket ID once the collisions run out")
	}
	if st.misses != 0 {
		t.Errorf("generator gave up with %d collisions left", st.misses)
	}
}

func TestMyBookingsRequiresLogin(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	result := send(t, e, "anon", "show my bookings")
	if result.Reply != loginForBookings {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
}

func TestMyBookingsListsRecent(t *testing.T) {
	e, st, _, _ := newTestEngine(t)
	if err := st.CreateBooking(models.Booking{
		BookingID:     "MUS-TEST0001",
		UserID:        "u1",
		MuseumID:      "m1",
		MuseumName:    "Kempegowda Museum",
		Date:          time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		TicketCount:   2,
		Amount:        300,
		PaymentStatus: models.PaymentPaid,
	}); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	result, err := e.HandleMessage(context.Background(), "u1-session", "my bookings", "u1")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if result.NextAction != models.ActionShowBookings {
		t.Fatalf("next action = %s, want SHOW_BOOKINGS", result.NextAction)
	}
	if !strings.Contains(result.Reply, "MUS-TEST0001") {
		t.Errorf("booking list should include the booking ID, got %q", result.Reply)
	}
	if !strings.Contains(result.Reply, "01/06/2026") {
		t.Errorf("booking list should show the visit date, got %q", result.Reply)
	}
}

func TestDownloadTicketFindsLatestPaid(t *testing.T) {
	e, st, _, _ := newTestEngine(t)
	if err := st.CreateBooking(models.Booking{
		BookingID:     "MUS-PAID0001",
		UserID:        "u2",
		MuseumID:      "m1",
		MuseumName:    "Kempegowda Museum",
		Date:          time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		TicketCount:   1,
		Amount:        150,
		PaymentStatus: models.PaymentPaid,
		PDFURL:        "https://example.com/tickets/MUS-PAID0001.pdf",
	}); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	result, err := e.HandleMessage(context.Background(), "u2-session", "download ticket", "u2")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(result.Reply, "MUS-PAID0001") {
		t.Errorf("reply should include the booking ID, got %q", result.Reply)
	}
	if result.Payload["pdfUrl"] != "https://example.com/tickets/MUS-PAID0001.pdf" {
		t.Errorf("payload pdfUrl = %v", result.Payload["pdfUrl"])
	}
}

func TestFallbackGoesToResponder(t *testing.T) {
	e, _, responder, _ := newTestEngine(t)
	responder.reply = "The museum opens at 10am."

	result := send(t, e, "f1", "when do you open?")
	if result.NextAction != models.ActionAIResponse {
		t.Fatalf("next action = %s, want AI_RESPONSE", result.NextAction)
	}
	if result.Reply != "The museum opens at 10am." {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
	if len(responder.calls) != 1 || responder.calls[0] != "when do you open?" {
		t.Errorf("responder calls = %v", responder.calls)
	}
}

func TestTranscriptRecordsBothTurns(t *testing.T) {
	e, st, _, _ := newTestEngine(t)
	send(t, e, "t1", "hello")

	turns, err := st.GetChatTurns("t1")
	if err != nil {
		t.Fatalf("GetChatTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turn count = %d, want 2", len(turns))
	}
	if turns[0].Sender != models.SenderUser || turns[0].Text != "hello" {
		t.Errorf("first turn wrong: %+v", turns[0])
	}
	if turns[1].Sender != models.SenderBot || turns[1].Text != greetingReply {
		t.Errorf("second turn wrong: %+v", turns[1])
	}
}

func TestHandleMessageValidation(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	if _, err := e.HandleMessage(context.Background(), "", "hi", ""); err != models.ErrEmptySessionID {
		t.Errorf("empty session error = %v, want ErrEmptySessionID", err)
	}
	if _, err := e.HandleMessage(context.Background(), "s", "   ", ""); err != models.ErrEmptyMessage {
		t.Errorf("empty message error = %v, want ErrEmptyMessage", err)
	}
	if _, err := e.HandleMessage(context.Background(), "s", strings.Repeat("a", models.MaxMessageLength+1), ""); err != models.ErrMessageTooLong {
		t.Errorf("long message error = %v, want ErrMessageTooLong", err)
	}
}
