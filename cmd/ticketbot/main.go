package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/api"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/chat"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/genai"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/messaging"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/payment"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/scheduler"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/util"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ticketbot state data
	DefaultStateDir = "/var/lib/ticketbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "ticketbot.db"
	// DefaultSessionTTLDays is the retention window for idle conversation sessions
	DefaultSessionTTLDays = 30
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := os.MkdirAll(*flags.stateDir, 0o755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "dir", *flags.stateDir)
		os.Exit(1)
	}

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	responder := buildResponder(flags)
	notifier := buildNotifier()
	engine := chat.NewEngine(st, responder, notifier)

	initiator := buildPaymentInitiator(st, flags)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	ttl := time.Duration(*flags.sessionTTLDays) * 24 * time.Hour
	if err := sched.ScheduleSessionSweep(st, ttl, config.SweepSchedule); err != nil {
		slog.Error("Failed to schedule session sweep", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *flags.whatsappEnabled {
		waClient, err := whatsapp.NewClient(buildWhatsAppOptions(flags)...)
		if err != nil {
			slog.Error("Failed to initialize WhatsApp client", "error", err)
			os.Exit(1)
		}
		waService := messaging.NewWhatsAppService(waClient, engine)
		if err := waService.Start(ctx); err != nil {
			slog.Error("Failed to start WhatsApp service", "error", err)
			os.Exit(1)
		}
		defer waService.Stop()
		slog.Info("WhatsApp channel enabled")
	}

	server := api.NewServer(st, engine, initiator, notifier, api.WithAddr(*flags.apiAddr))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("Shutdown signal received", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
		cancel()
	}()

	slog.Info("Bootstrapping ticketbot with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr,
		"whatsapp", *flags.whatsappEnabled, "session_ttl_days", *flags.sessionTTLDays)
	if err := server.Start(); err != nil {
		slog.Error("ticketbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ticketbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	OpenAIKey       string
	APIAddr         string
	WhatsAppDSN     string
	WhatsAppEnabled bool
	SessionTTLDays  int
	SweepSchedule   string
}

// Flags holds command line flag values
type Flags struct {
	stateDir        *string
	dbDSN           *string
	openaiKey       *string
	apiAddr         *string
	whatsappEnabled *bool
	whatsappDSN     *string
	qrOutput        *string
	numeric         *bool
	sessionTTLDays  *int
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("TICKETBOT_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		APIAddr:         os.Getenv("API_ADDR"),
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
		WhatsAppEnabled: util.ParseBoolEnv("WHATSAPP_ENABLED", false),
		SessionTTLDays:  util.ParseIntEnv("SESSION_TTL_DAYS", DefaultSessionTTLDays),
		SweepSchedule:   os.Getenv("SESSION_SWEEP_SCHEDULE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TICKETBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	return config
}

// parseCommandLineFlags parses command line flags, using environment values as defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:        flag.String("state-dir", config.StateDir, "Directory for state data"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "Database connection string (PostgreSQL DSN or SQLite path)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for the AI fallback responder"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server listen address"),
		whatsappEnabled: flag.Bool("whatsapp", config.WhatsAppEnabled, "Enable the WhatsApp channel"),
		whatsappDSN:     flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "WhatsApp session database connection string"),
		qrOutput:        flag.String("qr-output", "", "Write the WhatsApp login QR code to this file"),
		numeric:         flag.Bool("numeric-code", false, "Use a numeric WhatsApp login code instead of a QR code"),
		sessionTTLDays:  flag.Int("session-ttl-days", config.SessionTTLDays, "Delete conversation sessions idle this many days (0 disables)"),
	}
	flag.Parse()
	return flags
}

// buildStore selects a storage backend from the DSN. An empty DSN falls back
// to a SQLite database under the state directory.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, using SQLite in state directory", "path", dsn)
	}
	if store.DetectDSNType(dsn) == "postgres" {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildResponder returns the OpenAI-backed responder, or the canned fallback
// when no API key is configured.
func buildResponder(flags Flags) genai.Responder {
	if *flags.openaiKey == "" {
		slog.Info("No OpenAI API key configured, using canned fallback replies")
		return genai.NoopResponder{}
	}
	client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Error("Failed to initialize AI responder, using canned fallback replies", "error", err)
		return genai.NoopResponder{}
	}
	return client
}

// buildNotifier returns the Twilio notifier when credentials are configured.
func buildNotifier() notify.Notifier {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		slog.Debug("No Twilio credentials configured, notifications disabled")
		return notify.NoopNotifier{}
	}
	notifier, err := notify.NewTwilioNotifier()
	if err != nil {
		slog.Error("Failed to initialize Twilio notifier, notifications disabled", "error", err)
		return notify.NoopNotifier{}
	}
	return notifier
}

// buildPaymentInitiator returns the Stripe initiator, or nil when Stripe is
// not configured. The checkout endpoint reports unavailability in that case.
func buildPaymentInitiator(st store.Store, flags Flags) payment.Initiator {
	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		slog.Info("No Stripe secret key configured, payment checkout disabled")
		return nil
	}
	initiator, err := payment.NewStripeInitiator(st)
	if err != nil {
		slog.Error("Failed to initialize Stripe initiator, payment checkout disabled", "error", err)
		return nil
	}
	return initiator
}

// buildWhatsAppOptions assembles WhatsApp client options from flags.
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var opts []whatsapp.Option
	dsn := *flags.whatsappDSN
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, "whatsmeow.db") + "?_foreign_keys=on"
		slog.Debug("No WhatsApp DSN provided, using SQLite in state directory", "path", dsn)
	}
	opts = append(opts, whatsapp.WithDBDSN(dsn))
	if *flags.qrOutput != "" {
		opts = append(opts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		opts = append(opts, whatsapp.WithNumericCode())
	}
	return opts
}
