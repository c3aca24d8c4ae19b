// Package api implements app.Runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/balai/budget-middleware/pkg/app/http"
	"github.com/balai/budget-middleware/pkg/assistant"
	"github.com/balai/budget-middleware/pkg/assistant/anthropic"
	"github.com/balai/budget-middleware/pkg/auth"
	chatservice "github.com/balai/budget-middleware/pkg/chat/service"
	"github.com/balai/budget-middleware/pkg/chatstore"
	"github.com/balai/budget-middleware/pkg/config"
	"github.com/balai/budget-middleware/pkg/keys"
	"github.com/balai/budget-middleware/pkg/ledgerstore"
	"github.com/balai/budget-middleware/pkg/linkagestore"
	"github.com/balai/budget-middleware/pkg/linkservice"
	"github.com/balai/budget-middleware/pkg/pgutil"
	"github.com/balai/budget-middleware/pkg/provider/plaid"
	"github.com/balai/budget-middleware/pkg/room"
	syncpkg "github.com/balai/budget-middleware/pkg/sync"
	"github.com/balai/budget-middleware/pkg/webhook"
)

const requestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run wires the stores, clients and services together and serves HTTP
// until a shutdown signal arrives.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	cipher, err := s.openCipher()
	if err != nil {
		return err
	}

	ledgerStore := ledgerstore.NewStore(db)
	linkageStore := linkagestore.NewStore(db)
	chatStore := chatstore.NewStore(db)

	providerClient, err := plaid.NewClient(plaid.Config{
		Environment:    cfg.Provider.Environment,
		ClientID:       cfg.Provider.ClientID,
		Secret:         cfg.Provider.Secret,
		ClientName:     cfg.Provider.ClientName,
		CountryCodes:   cfg.Provider.CountryCodes,
		Language:       cfg.Provider.Language,
		WebhookURL:     cfg.Provider.WebhookURL,
		RequestTimeout: cfg.Provider.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("create provider client: %w", err)
	}

	responder, err := anthropic.NewClient(anthropic.Config{
		APIKey:         cfg.Assistant.APIKey,
		Model:          cfg.Assistant.Model,
		MaxTokens:      cfg.Assistant.MaxTokens,
		Temperature:    cfg.Assistant.Temperature,
		RequestTimeout: cfg.Assistant.RequestTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("create assistant client: %w", err)
	}

	reconciler := syncpkg.NewReconciler(ledgerStore, logger)
	orchestrator := syncpkg.NewOrchestrator(
		providerClient,
		linkageStore,
		reconciler,
		cipher,
		logger,
		cfg.Sync.TransactionWindowDays,
	)

	assembler := assistant.NewContextAssembler(ledgerStore, cfg.Chat.ContextTransactionLimit)
	hub := room.NewHub(cfg.Chat.SubscriberQueueSize)
	roomService := room.NewService(chatStore, assembler, responder, hub, logger)

	linkService := linkservice.NewLog(
		linkservice.NewService(providerClient, linkageStore, orchestrator, cipher, logger),
		logger,
	)
	chatService := chatservice.NewLog(chatservice.NewService(chatStore, logger), logger)
	webhookHandler := webhook.NewHandler(orchestrator, logger)

	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	router := s.setupRouter(verifier, linkService, chatService, roomService, webhookHandler, logger)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

// openCipher builds the credential cipher from the configured master key
// environment variable.
func (s *Server) openCipher() (*keys.CredentialCipher, error) {
	masterKeyStr := os.Getenv(s.cfg.Sync.MasterKeyEnv)
	if masterKeyStr == "" {
		return nil, fmt.Errorf(
			"credential master key not set: env=%s (hint: openssl rand -base64 32)",
			s.cfg.Sync.MasterKeyEnv,
		)
	}

	masterKey, err := keys.MasterKeyFromBase64(masterKeyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid credential master key: %w", err)
	}
	return keys.NewCredentialCipher(masterKey)
}

func (s *Server) setupRouter(
	verifier *auth.JWTVerifier,
	linkService linkservice.Service,
	chatService chatservice.Service,
	roomService *room.Service,
	webhookHandler *webhook.Handler,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check and metrics
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Provider webhooks authenticate via their own delivery channel,
	// not user tokens
	r.Mount("/webhooks/transactions", webhookHandler.Routes())

	// User-facing API
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Route("/api", func(r chi.Router) {
			// The chi timeout middleware does not apply to the websocket
			// mount below; long-lived connections manage their own deadlines
			r.Use(middleware.Timeout(time.Second * requestTimeout))

			linkservice.RegisterRoutes(r, linkService, logger)
			chatservice.RegisterRoutes(r, chatService, logger)
		})

		r.Mount("/ws", roomService.Routes())
	})

	return r
}
