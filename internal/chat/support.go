package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/util"
)

const (
	supportStartReply   = "I'll help you create a support ticket. What's your name?"
	invalidEmailReply   = "Please provide a valid email address."
	issueTypeReply      = "What type of issue are you experiencing? (e.g., Booking Problem, Payment Issue, Technical Support, General Inquiry)"
	descriptionReply    = "Please describe your issue in detail."
	priorityReply       = "What's the priority? (Low, Medium, High)"
	invalidPriorityRply = "Please choose Low, Medium, or High."
	ticketCreateFailed  = "Sorry, I couldn't create your support ticket right now. Please try again."
)

// handleSupport advances the support-ticket flow by one step. The flow is
// linear: name, email, issue type, description, priority, then the ticket is
// created.
func (e *Engine) handleSupport(ctx context.Context, sess *models.ConversationSession, message string) models.ChatResult {
	if !sess.Support.Active() {
		sess.Booking.Reset()
		sess.Support = models.SupportContext{Step: models.SupportStepName}
		return models.ChatResult{Reply: supportStartReply, NextAction: models.ActionAskSupportName}
	}

	answer := strings.TrimSpace(message)

	switch sess.Support.Step {
	case models.SupportStepName:
		sess.Support.Name = answer
		sess.Support.Step = models.SupportStepEmail
		return models.ChatResult{
			Reply:      fmt.Sprintf("Thank you, %s. What's your email address?", answer),
			NextAction: models.ActionAskSupportEmail,
		}

	case models.SupportStepEmail:
		if !models.IsValidEmail(answer) {
			return models.ChatResult{Reply: invalidEmailReply, NextAction: models.ActionAskSupportEmail}
		}
		sess.Support.Email = answer
		sess.Support.Step = models.SupportStepIssueType
		return models.ChatResult{Reply: issueTypeReply, NextAction: models.ActionAskSupportIssueType}

	case models.SupportStepIssueType:
		sess.Support.IssueType = answer
		sess.Support.Step = models.SupportStepDescription
		return models.ChatResult{Reply: descriptionReply, NextAction: models.ActionAskSupportDescription}

	case models.SupportStepDescription:
		sess.Support.Description = answer
		sess.Support.Step = models.SupportStepPriority
		return models.ChatResult{Reply: priorityReply, NextAction: models.ActionAskSupportPriority}

	case models.SupportStepPriority:
		priority, ok := models.NormalizePriority(answer)
		if !ok {
			return models.ChatResult{Reply: invalidPriorityRply, NextAction: models.ActionAskSupportPriority}
		}
		sess.Support.Priority = priority
		return e.createSupportTicket(ctx, sess)
	}

	slog.Error("Engine.handleSupport: unknown support step", "sessionID", sess.SessionID, "step", string(sess.Support.Step))
	sess.Support = models.SupportContext{Step: models.SupportStepName}
	return models.ChatResult{Reply: supportStartReply, NextAction: models.ActionAskSupportName}
}

// createSupportTicket persists the collected ticket under a fresh unique
// ticket ID and resets the support context. The confirmation notification is
// best effort and never blocks the reply.
func (e *Engine) createSupportTicket(ctx context.Context, sess *models.ConversationSession) models.ChatResult {
	ticketID, err := e.uniqueTicketID()
	if err != nil {
		slog.Error("Engine.createSupportTicket: ticket ID generation failed", "error", err, "sessionID", sess.SessionID)
		return models.ChatResult{Reply: ticketCreateFailed, NextAction: models.ActionAskSupportPriority}
	}

	now := e.now()
	ticket := models.SupportTicket{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		UserID:      sess.UserID,
		Name:        sess.Support.Name,
		Email:       sess.Support.Email,
		IssueType:   sess.Support.IssueType,
		Description: sess.Support.Description,
		Priority:    sess.Support.Priority,
		Status:      models.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateSupportTicket(ticket); err != nil {
		slog.Error("Engine.createSupportTicket: persist failed", "error", err, "sessionID", sess.SessionID)
		return models.ChatResult{Reply: ticketCreateFailed, NextAction: models.ActionAskSupportPriority}
	}

	// Confirmation SMS goes out only when the session carries a phone number.
	if phone, ok := strings.CutPrefix(sess.SessionID, "wa:"); ok && e.notifier != nil {
		if err := e.notifier.SendTicketConfirmation(ctx, phone, ticket); err != nil {
			slog.Error("Engine.createSupportTicket: notification failed", "error", err, "ticketID", ticketID)
		}
	}

	email := sess.Support.Email
	priority := sess.Support.Priority
	sess.Support.Reset()
	slog.Debug("Engine.createSupportTicket: ticket created", "ticketID", ticketID, "priority", string(priority))
	return models.ChatResult{
		Reply: fmt.Sprintf("Your support ticket has been created! 🎫\n\nTicket ID: %s\nPriority: %s\n\nOur team will contact you at %s soon.",
			ticketID, priority, email),
		NextAction: models.ActionSupportTicketCreated,
		Payload:    map[string]any{"ticketId": ticketID},
	}
}

// uniqueTicketID generates a ticket ID not already present in the store.
// Collisions are regenerated indefinitely; only a store failure ends the loop.
func (e *Engine) uniqueTicketID() (string, error) {
	for {
		id := util.GenerateTicketID()
		exists, err := e.store.TicketIDExists(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}
