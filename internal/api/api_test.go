package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/chat"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/genai"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	if err := st.SaveMuseum(models.Museum{ID: "m1", Name: "Kempegowda Museum", Slug: "kempegowda-museum", Price: 150, Active: true}); err != nil {
		t.Fatalf("failed to seed museum: %v", err)
	}
	engine := chat.NewEngine(st, genai.NoopResponder{}, notify.NoopNotifier{})
	return NewServer(st, engine, nil, notify.NoopNotifier{}), st
}

// fakeInitiator stands in for the Stripe-backed payment initiator.
type fakeInitiator struct {
	booking *models.Booking
	settled bool
	err     error
}

func (f *fakeInitiator) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	return nil, models.ErrPaymentDeclined
}

func (f *fakeInitiator) VerifyCheckout(ctx context.Context, stripeSessionID string) (*models.Booking, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.booking, f.settled, nil
}

// recordingNotifier captures booking confirmations.
type recordingNotifier struct {
	notify.NoopNotifier
	bookingTo []string
}

func (n *recordingNotifier) SendBookingConfirmation(ctx context.Context, to string, booking models.Booking) error {
	n.bookingTo = append(n.bookingTo, to)
	return nil
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("status field = %q", resp.Status)
	}
}

func TestChatHandlerHappyPath(t *testing.T) {
	srv, _ := newTestServer(t)
	body, _ := json.Marshal(models.ChatRequest{SessionID: "web-1", Message: "hello"})
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result shape wrong: %v", resp.Result)
	}
	if result["session_id"] != "web-1" {
		t.Errorf("session_id = %v", result["session_id"])
	}
	if result["next_action"] != string(models.ActionGreeting) {
		t.Errorf("next_action = %v, want GREETING", result["next_action"])
	}
}

func TestChatHandlerAssignsSessionID(t *testing.T) {
	srv, _ := newTestServer(t)
	body := []byte(`{"message": "hi"}`)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	result := resp.Result.(map[string]any)
	sid, _ := result["session_id"].(string)
	if sid == "" {
		t.Error("server should assign a session ID when none is supplied")
	}
}

func TestChatHandlerRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}

	body, _ := json.Marshal(models.ChatRequest{SessionID: "s", Message: "   "})
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestMuseumsHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/museums", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	museums, ok := resp.Result.([]any)
	if !ok || len(museums) != 1 {
		t.Errorf("museum list wrong: %v", resp.Result)
	}
}

func TestBookingsHandlerRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBookingByIDHandler(t *testing.T) {
	srv, st := newTestServer(t)
	st.CreateBooking(models.Booking{BookingID: "MUS-TEST0001", UserID: "u1", MuseumID: "m1", TicketCount: 2, Amount: 300, PaymentStatus: models.PaymentPaid})

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/MUS-TEST0001", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/MUS-NOPE0000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing booking status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/MUS-TEST0001?user_id=somebody-else", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign booking status = %d, want 403", rec.Code)
	}
}

func TestCheckoutHandlerWithoutPayment(t *testing.T) {
	srv, _ := newTestServer(t)
	body, _ := json.Marshal(models.CheckoutRequest{MuseumID: "m1", TicketCount: 2, Amount: 300})
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/checkout", bytes.NewReader(body)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPaymentVerifyHandler(t *testing.T) {
	st := store.NewInMemoryStore()
	engine := chat.NewEngine(st, genai.NoopResponder{}, notify.NoopNotifier{})
	initiator := &fakeInitiator{
		booking: &models.Booking{BookingID: "MUS-PAY00001", UserID: "u1", PaymentStatus: models.PaymentPaid},
		settled: true,
	}
	notifier := &recordingNotifier{}
	srv := NewServer(st, engine, initiator, notifier)

	body := []byte(`{"session_id": "cs_test_123", "phone": "919876543210"}`)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(notifier.bookingTo) != 1 || notifier.bookingTo[0] != "919876543210" {
		t.Errorf("booking confirmations = %v, want one to the given phone", notifier.bookingTo)
	}

	// A booking that was already settled does not notify again.
	initiator.settled = false
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d, want 200", rec.Code)
	}
	if len(notifier.bookingTo) != 1 {
		t.Errorf("repeat verification sent %d extra confirmations", len(notifier.bookingTo)-1)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", strings.NewReader(`{"phone": "1"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing session ID status = %d, want 400", rec.Code)
	}

	initiator.err = models.ErrPaymentPending
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unpaid session status = %d, want 400", rec.Code)
	}

	initiator.err = models.ErrBookingNotFound
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown booking status = %d, want 404", rec.Code)
	}
}

func TestPaymentVerifyWithoutPayment(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/verify", strings.NewReader(`{"session_id": "cs_1"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAdminMuseumHandlers(t *testing.T) {
	srv, st := newTestServer(t)

	body := []byte(`{"name": "HAL Heritage Centre", "price": 50}`)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/museums", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	created, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result shape wrong: %v", resp.Result)
	}
	if created["slug"] != "hal-heritage-centre" {
		t.Errorf("slug = %v", created["slug"])
	}
	museumID, _ := created["id"].(string)
	if museumID == "" {
		t.Fatal("created museum has no ID")
	}

	museums, err := st.ListActiveMuseums(models.MuseumListLimit)
	if err != nil || len(museums) != 2 {
		t.Fatalf("catalog = (%d museums, %v), want 2", len(museums), err)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/museums/"+museumID, strings.NewReader(`{"price": 85}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	museum, err := st.GetMuseum(museumID)
	if err != nil || museum == nil || museum.Price != 85 {
		t.Errorf("updated museum = (%+v, %v), want price 85", museum, err)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/museums/nope", strings.NewReader(`{"price": 85}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown museum status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/museums", strings.NewReader(`{"name": "No Price"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing price status = %d, want 400", rec.Code)
	}
}

func TestSupportTicketsHandler(t *testing.T) {
	srv, st := newTestServer(t)

	payload := supportTicketRequest{
		Name:        "John Doe",
		Email:       "john@example.com",
		IssueType:   "Payment Issue",
		Description: "Charged twice",
		Priority:    "high",
	}
	body, _ := json.Marshal(payload)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/support-tickets", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	tickets, _ := st.ListSupportTickets(10)
	if len(tickets) != 1 || tickets[0].Priority != models.PriorityHigh {
		t.Errorf("persisted ticket wrong: %+v", tickets)
	}

	// Invalid email is rejected before anything is stored
	payload.Email = "nope"
	body, _ = json.Marshal(payload)
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/support-tickets", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/support-tickets", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("list status = %d, want 200", rec.Code)
	}
}
