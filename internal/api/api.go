// Package api provides HTTP handlers and the main API server logic for the
// museum ticketing chatbot.
//
// It exposes RESTful endpoints for the chat engine, the museum catalog,
// bookings, payment checkout and support tickets.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/chat"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/payment"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server wires the chat engine, store, payment initiator and notifier
// behind HTTP.
type Server struct {
	store    store.Store
	engine   *chat.Engine
	payment  payment.Initiator
	notifier notify.Notifier
	addr     string
	httpSrv  *http.Server
}

// NewServer creates an API server. The payment initiator may be nil, in
// which case the payment endpoints report that payment is not configured.
// A nil notifier disables booking confirmations.
func NewServer(st store.Store, engine *chat.Engine, initiator payment.Initiator, notifier notify.Notifier, options ...Option) *Server {
	opts := Opts{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Addr == "" {
		opts.Addr = os.Getenv("API_ADDR")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	return &Server{store: st, engine: engine, payment: initiator, notifier: notifier, addr: opts.Addr}
}

// routes registers all endpoint handlers on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.chatHandler)
	mux.HandleFunc("/api/museums", s.museumsHandler)
	mux.HandleFunc("/api/bookings", s.bookingsHandler)
	mux.HandleFunc("/api/bookings/", s.bookingByIDHandler)
	mux.HandleFunc("/api/payment/checkout", s.checkoutHandler)
	mux.HandleFunc("/api/payment/verify", s.paymentVerifyHandler)
	mux.HandleFunc("/api/admin/museums", s.adminMuseumsHandler)
	mux.HandleFunc("/api/admin/museums/", s.adminMuseumByIDHandler)
	mux.HandleFunc("/api/support-tickets", s.supportTicketsHandler)
	mux.HandleFunc("/api/health", s.healthHandler)
	return mux
}

// Start begins serving HTTP requests and blocks until the server exits.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Start: API listening", "addr", s.addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	slog.Info("Server.Shutdown: stopping API server")
	return s.httpSrv.Shutdown(ctx)
}
