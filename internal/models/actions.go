// Package models defines the next-action vocabulary and API response envelope.
package models

// NextAction hints to the calling UI what input affordance to render next.
type NextAction string

const (
	ActionNone                  NextAction = ""
	ActionGreeting              NextAction = "GREETING"
	ActionAskMuseum             NextAction = "ASK_MUSEUM"
	ActionAskDate               NextAction = "ASK_DATE"
	ActionAskTickets            NextAction = "ASK_TICKETS"
	ActionConfirmBooking        NextAction = "CONFIRM_BOOKING"
	ActionTriggerPayment        NextAction = "TRIGGER_PAYMENT"
	ActionAskSupportName        NextAction = "ASK_SUPPORT_NAME"
	ActionAskSupportEmail       NextAction = "ASK_SUPPORT_EMAIL"
	ActionAskSupportIssueType   NextAction = "ASK_SUPPORT_ISSUE_TYPE"
	ActionAskSupportDescription NextAction = "ASK_SUPPORT_DESCRIPTION"
	ActionAskSupportPriority    NextAction = "ASK_SUPPORT_PRIORITY"
	ActionSupportTicketCreated  NextAction = "SUPPORT_TICKET_CREATED"
	ActionShowBookings          NextAction = "SHOW_BOOKINGS"
	ActionDownloadTicket        NextAction = "DOWNLOAD_TICKET"
	ActionShowMuseums           NextAction = "SHOW_MUSEUMS"
	ActionHelp                  NextAction = "HELP"
	ActionAIResponse            NextAction = "AI_RESPONSE"
)

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string `json:"status"`            // status of the API response
	Message string `json:"message,omitempty"` // optional message for error responses or additional info
	Result  any    `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result any) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result any) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
