package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/genai"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

// Fixed replies for globally handled intents.
const (
	greetingReply       = "Hello! 👋 How can I assist you today? You can book museum tickets or create a support ticket."
	bookingCancelled    = "Booking cancelled. How else can I help you?"
	supportCancelled    = "Support ticket creation cancelled. How else can I help you?"
	helpReply           = "I can help you:\n• Book museum tickets\n• View your bookings\n• Download tickets\n• Create support tickets\n• Answer questions\n\nWhat would you like to do?"
	loginForBookings    = "Please login to view your bookings. Visit the dashboard after logging in."
	loginForDownload    = "Please login to download your tickets."
	noBookingsYet       = "You don't have any bookings yet. Would you like to book tickets?"
	noDownloadable      = "No downloadable tickets found. Book tickets first or check if your payment is complete."
	noMuseumsAvailable  = "No museums available at the moment."
	bookingsFetchFailed = "Sorry, I couldn't fetch your bookings right now. Please try again later."
	ticketsFetchFailed  = "Sorry, I couldn't find your tickets. Please try again later."
	museumsFetchFailed  = "Sorry, I couldn't fetch the museum list. Please try again."
)

// rule is one entry of the ordered intent table. Rules are evaluated top to
// bottom; the first rule whose predicate matches handles the message.
type rule struct {
	name    string
	matches func(message string, sess *models.ConversationSession) bool
	handle  func(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult
}

// Engine is the conversation flow engine. It consumes one message at a time,
// advances the persisted per-session state, and returns a reply plus an
// optional next-action hint for the caller's UI.
type Engine struct {
	store     store.Store
	responder genai.Responder
	notifier  notify.Notifier
	rules     []rule
	now       func() time.Time

	// locksMu guards locks; each session's mutex serializes its turns.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewEngine creates a conversation flow engine on the given collaborators.
func NewEngine(st store.Store, responder genai.Responder, notifier notify.Notifier) *Engine {
	e := &Engine{
		store:     st,
		responder: responder,
		notifier:  notifier,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	e.rules = []rule{
		{
			// Greeting always wins and resets any in-progress flow.
			name: "greeting",
			matches: func(message string, sess *models.ConversationSession) bool {
				return isGreeting(message)
			},
			handle: e.handleGreeting,
		},
		{
			// Cancellation only applies while a flow is active; otherwise the
			// message falls through to the later rules.
			name: "cancel",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsCancel(message) && (sess.Booking.Active() || sess.Support.Active())
			},
			handle: e.handleCancel,
		},
		{
			name: "booking",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsBooking(message) || sess.Booking.Active()
			},
			handle: e.handleBooking,
		},
		{
			name: "support",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsSupportTicket(message) || sess.Support.Active()
			},
			handle: e.handleSupport,
		},
		{
			name: "my-bookings",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsMyBookings(message)
			},
			handle: e.handleMyBookings,
		},
		{
			name: "download-ticket",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsDownloadTicket(message)
			},
			handle: e.handleDownloadTicket,
		},
		{
			name: "museum-list",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsMuseumList(message)
			},
			handle: e.handleMuseumList,
		},
		{
			name: "help",
			matches: func(message string, sess *models.ConversationSession) bool {
				return wantsHelp(message)
			},
			handle: e.handleHelp,
		},
		{
			// Fallback: no rule matched, delegate to the AI responder.
			name: "fallback",
			matches: func(message string, sess *models.ConversationSession) bool {
				return true
			},
			handle: e.handleFallback,
		},
	}
	return e
}

// HandleMessage processes one inbound chat message: it loads (or lazily
// creates) the session, classifies the message against the ordered rule
// table, advances the session state, appends both turns to the transcript,
// and persists the session. Turns on the same session are serialized by a
// per-session mutex; distinct sessions proceed concurrently.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, message, userID string) (models.ChatResult, error) {
	req := models.ChatRequest{SessionID: sessionID, Message: message, UserID: userID}
	if err := req.Validate(); err != nil {
		return models.ChatResult{}, err
	}

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Engine.HandleMessage: session load failed", "error", err, "sessionID", sessionID)
		return models.ChatResult{}, err
	}
	if sess == nil {
		now := e.now()
		sess = &models.ConversationSession{
			SessionID: sessionID,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		slog.Debug("Engine.HandleMessage: created session", "sessionID", sessionID, "user_set", userID != "")
	}
	if userID != "" {
		sess.UserID = userID
	}

	if err := e.store.AddChatTurn(models.ChatTurn{
		SessionID: sessionID, Sender: models.SenderUser, Text: message, Timestamp: e.now(),
	}); err != nil {
		slog.Error("Engine.HandleMessage: user turn append failed", "error", err, "sessionID", sessionID)
		return models.ChatResult{}, err
	}

	var result models.ChatResult
	for _, r := range e.rules {
		if r.matches(message, sess) {
			slog.Debug("Engine.HandleMessage: rule matched", "rule", r.name, "sessionID", sessionID,
				"bookingStep", string(sess.Booking.Step), "supportStep", string(sess.Support.Step))
			result = r.handle(ctx, sess, message)
			break
		}
	}

	if err := e.store.AddChatTurn(models.ChatTurn{
		SessionID: sessionID, Sender: models.SenderBot, Text: result.Reply, Timestamp: e.now(),
	}); err != nil {
		slog.Error("Engine.HandleMessage: bot turn append failed", "error", err, "sessionID", sessionID)
		return models.ChatResult{}, err
	}

	sess.UpdatedAt = e.now()
	if err := e.store.SaveSession(*sess); err != nil {
		slog.Error("Engine.HandleMessage: session save failed", "error", err, "sessionID", sessionID)
		return models.ChatResult{}, err
	}

	return result, nil
}

// sessionLock returns the mutex serializing turns for a session.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	return lock
}

func (e *Engine) handleGreeting(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	sess.Booking.Reset()
	sess.Support.Reset()
	return models.ChatResult{Reply: greetingReply, NextAction: models.ActionGreeting}
}

func (e *Engine) handleCancel(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	if sess.Booking.Active() {
		sess.Booking.Reset()
		return models.ChatResult{Reply: bookingCancelled}
	}
	sess.Support.Reset()
	return models.ChatResult{Reply: supportCancelled}
}

func (e *Engine) handleHelp(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	return models.ChatResult{Reply: helpReply, NextAction: models.ActionHelp}
}

func (e *Engine) handleFallback(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	summary := genai.SessionSummary{
		BookingStep:      string(sess.Booking.Step),
		HasActiveBooking: sess.Booking.Active(),
	}
	reply, err := e.responder.Respond(ctx, message, summary)
	if err != nil || reply == "" {
		// The responder contract already masks errors, but guard anyway:
		// internal failures must never reach the user.
		slog.Error("Engine.handleFallback: responder failed", "error", err, "sessionID", sess.SessionID)
		reply = genai.FallbackReply
	}
	return models.ChatResult{Reply: genai.ClampReply(reply), NextAction: models.ActionAIResponse}
}
