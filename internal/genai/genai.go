// Package genai provides the AI fallback responder using the OpenAI API.
//
// The responder is only consulted when no rule-based intent matches a
// message. Its replies are clamped to a short length, and any failure is
// masked behind a fixed helper message so configuration or API errors never
// reach the end user.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Constants for responder configuration
const (
	// MaxReplyLength is the hard ceiling on fallback reply length
	MaxReplyLength = 200
	// MaxReplyLines is the number of lines a fallback reply is clipped to
	MaxReplyLines = 2
)

// FallbackReply is returned whenever the AI responder is unavailable or errors.
const FallbackReply = "I can help you book museum tickets, view your bookings, or create a support ticket. What would you like to do?"

const systemPrompt = `You are a helpful museum ticketing assistant for Bengaluru museums.

CRITICAL RULES:
- Keep responses SHORT (1-2 lines maximum, max 100 words)
- Do NOT override or interfere with booking flows
- Do NOT hallucinate or invent museum names - only mention museums that actually exist in Bengaluru
- Do NOT proceed with bookings unless explicitly asked through proper booking flow
- Focus ONLY on museum ticket booking system context
- Be friendly, helpful, and concise
- If asked about museums, suggest they use the booking flow
- If asked about booking, direct them to say "book tickets"

Respond briefly and helpfully within the museum ticketing context only.`

// SessionSummary is the minimal session context handed to the responder.
type SessionSummary struct {
	BookingStep      string `json:"bookingStep,omitempty"`
	HasActiveBooking bool   `json:"hasActiveBooking"`
}

// Responder generates a short free-text reply when no rule matches.
type Responder interface {
	Respond(ctx context.Context, message string, summary SessionSummary) (string, error)
}

// Opts holds configuration options for the OpenAI responder.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a configuration option for the OpenAI responder.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client is the OpenAI-backed Responder.
type Client struct {
	client openai.Client
	model  string
}

// NewClient initializes the responder, falling back to the OPENAI_API_KEY
// environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{client: cli, model: cfg.Model}, nil
}

// Respond generates a short reply for an unmatched message. On any API error
// it returns FallbackReply with a nil error; failures are logged, not surfaced.
func (c *Client) Respond(ctx context.Context, message string, summary SessionSummary) (string, error) {
	contextJSON, err := json.Marshal(summary)
	if err != nil {
		contextJSON = []byte("{}")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt + "\n\nCurrent session context: " + string(contextJSON)),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		slog.Error("genai Respond API call failed", "error", err)
		return FallbackReply, nil
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai Respond returned no choices")
		return FallbackReply, nil
	}

	return ClampReply(resp.Choices[0].Message.Content), nil
}

// ClampReply enforces the short-reply contract: at most MaxReplyLines lines
// and MaxReplyLength characters.
func ClampReply(text string) string {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")
	if len(lines) > MaxReplyLines {
		lines = lines[:MaxReplyLines]
	}
	out := strings.Join(lines, "\n")
	// Cut on rune boundaries so a clipped reply stays valid UTF-8.
	if runes := []rune(out); len(runes) > MaxReplyLength {
		out = string(runes[:MaxReplyLength-3]) + "..."
	}
	return out
}

// NoopResponder always answers with the fixed helper reply. It stands in when
// no API key is configured.
type NoopResponder struct{}

// Respond returns the fixed helper reply.
func (NoopResponder) Respond(ctx context.Context, message string, summary SessionSummary) (string, error) {
	return FallbackReply, nil
}
