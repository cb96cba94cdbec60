// Package api provides HTTP handlers for the ticketing chatbot endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/util"
)

// ticketListLimit bounds the support ticket listing endpoint.
const ticketListLimit = 50

// chatResponse is the result payload of the chat endpoint.
type chatResponse struct {
	SessionID  string            `json:"session_id"`
	Reply      string            `json:"reply"`
	NextAction models.NextAction `json:"next_action,omitempty"`
	Payload    map[string]any    `json:"payload,omitempty"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	// Clients without a session token get one assigned on first contact.
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = util.GenerateSessionID()
		slog.Debug("Server.chatHandler: assigned session", "sessionID", req.SessionID)
	}

	result, err := s.engine.HandleMessage(r.Context(), req.SessionID, req.Message, req.UserID)
	if err != nil {
		if errors.Is(err, models.ErrEmptyMessage) || errors.Is(err, models.ErrMessageTooLong) {
			slog.Warn("Server.chatHandler: validation failed", "error", err, "sessionID", req.SessionID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.chatHandler: engine failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	slog.Debug("Server.chatHandler: message processed", "sessionID", req.SessionID, "nextAction", string(result.NextAction))
	writeJSONResponse(w, http.StatusOK, models.Success(chatResponse{
		SessionID:  req.SessionID,
		Reply:      result.Reply,
		NextAction: result.NextAction,
		Payload:    result.Payload,
	}))
}

func (s *Server) museumsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.museumsHandler: processing museums request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.museumsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	museums, err := s.store.ListActiveMuseums(models.MuseumListLimit)
	if err != nil {
		slog.Error("Server.museumsHandler: museum list failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch museums"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(museums))
}

func (s *Server) bookingsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.bookingsHandler: processing bookings request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.bookingsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		slog.Warn("Server.bookingsHandler: missing user_id")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: user_id"))
		return
	}
	bookings, err := s.store.ListBookingsByUser(userID, models.BookingListLimit)
	if err != nil {
		slog.Error("Server.bookingsHandler: booking list failed", "error", err, "userID", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch bookings"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(bookings))
}

func (s *Server) bookingByIDHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.bookingByIDHandler: processing booking request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.bookingByIDHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	bookingID := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	if bookingID == "" || strings.Contains(bookingID, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid booking ID"))
		return
	}
	booking, err := s.ownedBooking(bookingID, r.URL.Query().Get("user_id"))
	switch {
	case errors.Is(err, models.ErrBookingNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Error("Booking not found"))
	case errors.Is(err, models.ErrNotAuthorized):
		slog.Warn("Server.bookingByIDHandler: ownership mismatch", "bookingID", bookingID)
		writeJSONResponse(w, http.StatusForbidden, models.Error("Not authorized to view this booking"))
	case err != nil:
		slog.Error("Server.bookingByIDHandler: booking fetch failed", "error", err, "bookingID", bookingID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch booking"))
	default:
		writeJSONResponse(w, http.StatusOK, models.Success(booking))
	}
}

// ownedBooking loads a booking and enforces ownership when the caller
// identifies itself with a user ID.
func (s *Server) ownedBooking(bookingID, userID string) (*models.Booking, error) {
	booking, err := s.store.GetBookingByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.ErrBookingNotFound
	}
	if userID != "" && booking.UserID != userID {
		return nil, models.ErrNotAuthorized
	}
	return booking, nil
}

func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.checkoutHandler: processing checkout request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.checkoutHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.payment == nil {
		slog.Warn("Server.checkoutHandler: payment not configured")
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Payment is not configured"))
		return
	}
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.checkoutHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.checkoutHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	checkout, err := s.payment.CreateCheckout(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMuseumNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("Museum not found"))
		case errors.Is(err, models.ErrPaymentDeclined):
			slog.Error("Server.checkoutHandler: payment session failed", "error", err)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to create payment session"))
		default:
			slog.Error("Server.checkoutHandler: checkout failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create checkout"))
		}
		return
	}

	slog.Info("Server.checkoutHandler: checkout created", "bookingID", checkout.BookingID)
	writeJSONResponse(w, http.StatusOK, models.Success(checkout))
}

// verifyRequest asks the server to settle a checkout session after the user
// returns from the hosted payment page. Phone is optional; when present the
// booking confirmation is sent there.
type verifyRequest struct {
	SessionID string `json:"session_id"`
	Phone     string `json:"phone,omitempty"`
}

func (s *Server) paymentVerifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.paymentVerifyHandler: processing verify request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.paymentVerifyHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.payment == nil {
		slog.Warn("Server.paymentVerifyHandler: payment not configured")
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Payment is not configured"))
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.paymentVerifyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session ID is required"))
		return
	}

	booking, settled, err := s.payment.VerifyCheckout(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPaymentPending):
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Payment not completed"))
		case errors.Is(err, models.ErrBookingNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("Booking not found"))
		case errors.Is(err, models.ErrPaymentDeclined):
			slog.Error("Server.paymentVerifyHandler: session retrieve failed", "error", err)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to verify payment"))
		default:
			slog.Error("Server.paymentVerifyHandler: verification failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to verify payment"))
		}
		return
	}

	// Confirmation goes out once, on the pending-to-paid transition.
	if settled && s.notifier != nil && req.Phone != "" {
		if err := s.notifier.SendBookingConfirmation(r.Context(), req.Phone, *booking); err != nil {
			slog.Error("Server.paymentVerifyHandler: confirmation failed", "error", err, "bookingID", booking.BookingID)
		}
	}

	slog.Info("Server.paymentVerifyHandler: payment verified", "bookingID", booking.BookingID, "settled", settled)
	writeJSONResponse(w, http.StatusOK, models.Success(booking))
}

// museumRequest is the inbound payload for creating or updating a catalog
// entry through the admin endpoints.
type museumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// slugPattern collapses every run of non-alphanumeric characters while
// building a museum slug.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func (s *Server) adminMuseumsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.adminMuseumsHandler: processing request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.adminMuseumsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req museumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.adminMuseumsHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Price <= 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required fields: name, price"))
		return
	}

	museum := models.Museum{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        slugify(req.Name),
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if museum.Location == "" {
		museum.Location = "Bengaluru"
	}
	if req.Active != nil {
		museum.Active = *req.Active
	}
	if err := s.store.SaveMuseum(museum); err != nil {
		slog.Error("Server.adminMuseumsHandler: persist failed", "error", err, "museumID", museum.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create museum"))
		return
	}
	slog.Info("Server.adminMuseumsHandler: museum created", "museumID", museum.ID, "slug", museum.Slug)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Museum created", museum))
}

func (s *Server) adminMuseumByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.adminMuseumByIDHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		slog.Warn("Server.adminMuseumByIDHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	museumID := strings.TrimPrefix(r.URL.Path, "/api/admin/museums/")
	if museumID == "" || strings.Contains(museumID, "/") {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid museum ID"))
		return
	}
	var req museumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.adminMuseumByIDHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	museum, err := s.store.GetMuseum(museumID)
	if err != nil {
		slog.Error("Server.adminMuseumByIDHandler: museum fetch failed", "error", err, "museumID", museumID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch museum"))
		return
	}
	if museum == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Museum not found"))
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		museum.Name = name
		museum.Slug = slugify(name)
	}
	if req.Description != "" {
		museum.Description = req.Description
	}
	if req.Location != "" {
		museum.Location = req.Location
	}
	if req.Price > 0 {
		museum.Price = req.Price
	}
	if req.ImageURL != "" {
		museum.ImageURL = req.ImageURL
	}
	if req.Active != nil {
		museum.Active = *req.Active
	}
	if err := s.store.SaveMuseum(*museum); err != nil {
		slog.Error("Server.adminMuseumByIDHandler: persist failed", "error", err, "museumID", museumID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update museum"))
		return
	}
	slog.Info("Server.adminMuseumByIDHandler: museum updated", "museumID", museumID)
	writeJSONResponse(w, http.StatusOK, models.Success(museum))
}

// supportTicketRequest is the inbound payload for creating a support ticket
// directly, bypassing the conversational flow.
type supportTicketRequest struct {
	UserID      string `json:"user_id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (s *Server) supportTicketsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.supportTicketsHandler: processing request", "method", r.Method)
	switch r.Method {
	case http.MethodGet:
		tickets, err := s.store.ListSupportTickets(ticketListLimit)
		if err != nil {
			slog.Error("Server.supportTicketsHandler: ticket list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch support tickets"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(tickets))

	case http.MethodPost:
		var req supportTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.supportTicketsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required fields: name, description"))
			return
		}
		if !models.IsValidEmail(req.Email) {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrInvalidEmail.Error()))
			return
		}
		priority, ok := models.NormalizePriority(req.Priority)
		if !ok {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrInvalidPriority.Error()))
			return
		}

		ticketID, err := s.uniqueTicketID()
		if err != nil {
			slog.Error("Server.supportTicketsHandler: ticket ID generation failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create support ticket"))
			return
		}
		now := time.Now()
		ticket := models.SupportTicket{
			ID:          uuid.NewString(),
			TicketID:    ticketID,
			UserID:      req.UserID,
			Name:        strings.TrimSpace(req.Name),
			Email:       strings.TrimSpace(req.Email),
			IssueType:   strings.TrimSpace(req.IssueType),
			Description: strings.TrimSpace(req.Description),
			Priority:    priority,
			Status:      models.TicketOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.CreateSupportTicket(ticket); err != nil {
			slog.Error("Server.supportTicketsHandler: persist failed", "error", err, "ticketID", ticketID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create support ticket"))
			return
		}
		slog.Info("Server.supportTicketsHandler: ticket created", "ticketID", ticketID)
		writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Support ticket created", ticket))

	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		slog.Warn("Server.supportTicketsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

// uniqueTicketID generates a ticket ID not already present in the store.
// Collisions are regenerated indefinitely; only a store failure ends the loop.
func (s *Server) uniqueTicketID() (string, error) {
	for {
		id := util.GenerateTicketID()
		exists, err := s.store.TicketIDExists(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}
