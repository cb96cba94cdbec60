// Package payment initiates checkout sessions for confirmed bookings.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/models"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/util"
)

// ticketPDFPathPrefix is where paid bookings' ticket PDFs are served from.
const ticketPDFPathPrefix = "/api/tickets/"

// Initiator turns a confirmed booking into a hosted checkout session and
// settles it once the processor reports the session paid.
type Initiator interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
	// VerifyCheckout checks the processor's view of a checkout session and,
	// when it is paid, marks the backing booking paid. The bool reports
	// whether this call performed the pending-to-paid transition.
	VerifyCheckout(ctx context.Context, stripeSessionID string) (*models.Booking, bool, error)
}

// Opts holds configuration options for the Stripe initiator.
type Opts struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// Option defines a configuration option for the Stripe initiator.
type Option func(*Opts)

// WithAPIKey sets the Stripe secret key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithSuccessURL sets the URL the user lands on after a successful payment.
func WithSuccessURL(u string) Option {
	return func(o *Opts) {
		o.SuccessURL = u
	}
}

// WithCancelURL sets the URL the user lands on after abandoning payment.
func WithCancelURL(u string) Option {
	return func(o *Opts) {
		o.CancelURL = u
	}
}

// StripeInitiator creates a pending booking and a Stripe Checkout session
// for it. Amounts are held in rupees and converted to paise on the wire.
type StripeInitiator struct {
	store      store.Store
	successURL string
	cancelURL  string
}

// NewStripeInitiator creates a Stripe-backed payment initiator. Defaults are
// taken from STRIPE_SECRET_KEY, CHECKOUT_SUCCESS_URL and CHECKOUT_CANCEL_URL
// when options are not provided.
func NewStripeInitiator(st store.Store, options ...Option) (*StripeInitiator, error) {
	opts := Opts{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("STRIPE_SECRET_KEY")
	}
	if opts.SuccessURL == "" {
		opts.SuccessURL = os.Getenv("CHECKOUT_SUCCESS_URL")
	}
	if opts.CancelURL == "" {
		opts.CancelURL = os.Getenv("CHECKOUT_CANCEL_URL")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if opts.SuccessURL == "" || opts.CancelURL == "" {
		return nil, fmt.Errorf("checkout success and cancel URLs are required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}

	stripe.Key = opts.APIKey
	slog.Debug("StripeInitiator initialized", "successURL", opts.SuccessURL, "cancelURL", opts.CancelURL)
	return &StripeInitiator{store: st, successURL: opts.SuccessURL, cancelURL: opts.CancelURL}, nil
}

// CreateCheckout validates the request, persists a pending booking under a
// fresh booking ID and opens a Stripe Checkout session for it. The returned
// URL is where the user completes payment.
func (s *StripeInitiator) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	museum, err := s.store.GetMuseum(req.MuseumID)
	if err != nil {
		slog.Error("StripeInitiator.CreateCheckout: museum fetch failed", "error", err, "museumID", req.MuseumID)
		return nil, fmt.Errorf("failed to load museum: %w", err)
	}
	if museum == nil {
		return nil, models.ErrMuseumNotFound
	}

	bookingID, err := s.uniqueBookingID()
	if err != nil {
		slog.Error("StripeInitiator.CreateCheckout: booking ID generation failed", "error", err)
		return nil, err
	}

	booking := models.Booking{
		ID:            uuid.NewString(),
		BookingID:     bookingID,
		UserID:        req.UserID,
		MuseumID:      museum.ID,
		MuseumName:    museum.Name,
		Date:          req.Date,
		TicketCount:   req.TicketCount,
		Amount:        req.Amount,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now(),
	}
	if err := s.store.CreateBooking(booking); err != nil {
		slog.Error("StripeInitiator.CreateCheckout: booking persist failed", "error", err, "bookingID", bookingID)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyINR)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(museum.Name + " - Museum Tickets"),
					},
					// Stripe expects the smallest currency unit.
					UnitAmount: stripe.Int64(museum.Price * 100),
				},
				Quantity: stripe.Int64(int64(req.TicketCount)),
			},
		},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(bookingID),
	}

	checkout, err := session.New(params)
	if err != nil {
		slog.Error("StripeInitiator.CreateCheckout: stripe session failed", "error", err, "bookingID", bookingID)
		if updateErr := s.store.UpdateBookingPayment(bookingID, models.PaymentFailed, ""); updateErr != nil {
			slog.Error("StripeInitiator.CreateCheckout: failed-status update failed", "error", updateErr, "bookingID", bookingID)
		}
		return nil, models.ErrPaymentDeclined
	}

	if err := s.store.UpdateBookingPayment(bookingID, models.PaymentPending, checkout.ID); err != nil {
		slog.Error("StripeInitiator.CreateCheckout: session ID update failed", "error", err, "bookingID", bookingID)
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}

	slog.Debug("StripeInitiator.CreateCheckout: session created", "bookingID", bookingID, "stripeSession", checkout.ID)
	return &models.CheckoutSession{SessionID: checkout.ID, URL: checkout.URL, BookingID: bookingID}, nil
}

// VerifyCheckout retrieves the checkout session from Stripe and settles the
// booking it references. A session that is not yet paid is reported as
// ErrPaymentPending without touching the booking.
func (s *StripeInitiator) VerifyCheckout(ctx context.Context, stripeSessionID string) (*models.Booking, bool, error) {
	checkout, err := session.Get(stripeSessionID, nil)
	if err != nil {
		slog.Error("StripeInitiator.VerifyCheckout: session retrieve failed", "error", err, "stripeSession", stripeSessionID)
		return nil, false, models.ErrPaymentDeclined
	}
	if checkout.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, false, models.ErrPaymentPending
	}
	if checkout.ClientReferenceID == "" {
		return nil, false, models.ErrBookingNotFound
	}
	return s.markBookingPaid(checkout.ClientReferenceID, stripeSessionID)
}

// markBookingPaid flips a booking to paid and records its ticket PDF
// location. Already-paid bookings are returned unchanged so that repeated
// verification calls stay idempotent.
func (s *StripeInitiator) markBookingPaid(bookingID, stripeSessionID string) (*models.Booking, bool, error) {
	booking, err := s.store.GetBookingByBookingID(bookingID)
	if err != nil {
		slog.Error("StripeInitiator.markBookingPaid: booking fetch failed", "error", err, "bookingID", bookingID)
		return nil, false, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, false, models.ErrBookingNotFound
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return booking, false, nil
	}

	if err := s.store.UpdateBookingPayment(bookingID, models.PaymentPaid, stripeSessionID); err != nil {
		slog.Error("StripeInitiator.markBookingPaid: paid-status update failed", "error", err, "bookingID", bookingID)
		return nil, false, fmt.Errorf("failed to update booking: %w", err)
	}
	if err := s.store.SetBookingPDFURL(bookingID, ticketPDFPathPrefix+bookingID); err != nil {
		slog.Error("StripeInitiator.markBookingPaid: pdf url update failed", "error", err, "bookingID", bookingID)
		return nil, false, fmt.Errorf("failed to record ticket location: %w", err)
	}

	booking, err = s.store.GetBookingByBookingID(bookingID)
	if err != nil || booking == nil {
		slog.Error("StripeInitiator.markBookingPaid: booking reload failed", "error", err, "bookingID", bookingID)
		return nil, false, fmt.Errorf("failed to reload booking: %w", err)
	}
	slog.Info("StripeInitiator.markBookingPaid: booking settled", "bookingID", bookingID, "stripeSession", stripeSessionID)
	return booking, true, nil
}

// uniqueBookingID generates a booking ID not already present in the store.
// Collisions are regenerated indefinitely; only a store failure ends the loop.
func (s *StripeInitiator) uniqueBookingID() (string, error) {
	for {
		id := util.GenerateBookingID()
		exists, err := s.store.BookingIDExists(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}
