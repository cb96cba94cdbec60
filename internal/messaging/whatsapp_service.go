package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/chat"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/whatsapp"
)

// Constants for WhatsAppService configuration
const (
	// SessionIDPrefix namespaces WhatsApp-originated conversation sessions so
	// they never collide with web session tokens.
	SessionIDPrefix = "wa:"
	// HandleTimeout bounds how long one inbound message may occupy the engine.
	HandleTimeout = 30 * time.Second
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp
// client. Every inbound text message is run through the conversation flow
// engine and the reply is sent back on the same channel.
type WhatsAppService struct {
	client   whatsapp.Sender
	waClient *whatsapp.Client // access to underlying client for event handling
	engine   *chat.Engine
	done     chan struct{}
}

// NewWhatsAppService creates a WhatsAppService feeding the given engine.
func NewWhatsAppService(client whatsapp.Sender, engine *chat.Engine) *WhatsAppService {
	service := &WhatsAppService{
		client: client,
		engine: engine,
		done:   make(chan struct{}),
	}

	// If the client is a full Client (not just an interface), store it for event handling
	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsAppService created with full client for event handling")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}

	return service
}

// Start begins background event processing.
func (s *WhatsAppService) Start(ctx context.Context) error {
	slog.Debug("WhatsAppService Start invoked")
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Debug("WhatsAppService no full client available, skipping event handling (likely mock)")
		return nil
	}
	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(ctx, msg)
		}
	})
	slog.Debug("WhatsAppService event handler registered")
	return nil
}

// Stop stops background processing.
func (s *WhatsAppService) Stop() error {
	slog.Info("WhatsAppService Stop invoked")
	close(s.done)
	return nil
}

// SendMessage sends a message on the WhatsApp channel.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	slog.Debug("WhatsAppService SendMessage invoked", "to", to, "body_length", len(body))
	return s.client.SendMessage(ctx, to, body)
}

// handleIncomingMessage routes one inbound text message through the engine
// and sends the reply back to the sender.
func (s *WhatsAppService) handleIncomingMessage(ctx context.Context, evt *events.Message) {
	if evt.Message == nil || evt.Info.IsFromMe {
		return
	}

	// Extract text content; skip non-text messages (images, audio, etc.)
	var messageText string
	if evt.Message.Conversation != nil {
		messageText = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		messageText = *evt.Message.ExtendedTextMessage.Text
	} else {
		slog.Debug("WhatsAppService ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	phone := evt.Info.Sender.User
	sessionID := SessionIDPrefix + phone
	slog.Debug("WhatsAppService processing incoming message", "from", phone, "body_length", len(messageText))

	handleCtx, cancel := context.WithTimeout(ctx, HandleTimeout)
	defer cancel()

	result, err := s.engine.HandleMessage(handleCtx, sessionID, messageText, "")
	if err != nil {
		slog.Error("WhatsAppService engine failed", "error", err, "from", phone)
		return
	}

	if err := s.client.SendMessage(handleCtx, phone, result.Reply); err != nil {
		slog.Error("WhatsAppService reply send failed", "error", err, "to", phone)
		return
	}
	slog.Info("WhatsAppService reply sent", "to", phone, "nextAction", string(result.NextAction))
}
