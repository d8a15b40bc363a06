// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/config"
	"github.com/hostfolio-ai/guest-knowledge/internal/handler"
	"github.com/hostfolio-ai/guest-knowledge/internal/llm"
	"github.com/hostfolio-ai/guest-knowledge/internal/middleware"
	natsclient "github.com/hostfolio-ai/guest-knowledge/internal/nats"
	"github.com/hostfolio-ai/guest-knowledge/internal/normalizer"
	"github.com/hostfolio-ai/guest-knowledge/internal/notify"
	"github.com/hostfolio-ai/guest-knowledge/internal/reply"
	"github.com/hostfolio-ai/guest-knowledge/internal/service"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
	"github.com/hostfolio-ai/guest-knowledge/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "guest-knowledge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to the knowledge store. A missing or unreachable binding is
	// fatal; a degraded store at request time is not.
	kv, err := store.NewRedisKV(ctx, store.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Error("failed to connect to knowledge store", zap.Error(err))
		os.Exit(1)
	}
	defer kv.Close()

	knowledgeStore := store.NewKnowledgeStore(kv, cfg.IndexTTL, log)

	// Connect to NATS for host notifications; fall back to the logging stub
	// when no URL is configured or the connection fails.
	var notifier notify.Notifier
	var nats *natsclient.Client
	if cfg.NATSURL != "" {
		nats, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, notifications fall back to log stub", zap.Error(err))
		} else {
			defer nats.Close()
			natsNotifier := notify.NewNATSNotifier(nats)
			if err := natsNotifier.EnsureStream(ctx); err != nil {
				log.Error("failed to ensure notification stream", zap.Error(err))
				os.Exit(1)
			}
			notifier = natsNotifier
		}
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}

	// Initialize the reply generator; absent API keys disable the suggest
	// stage rather than the server.
	var replyGen reply.Generator
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, reply drafts disabled")
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client, reply drafts disabled")
		}
	}
	if llmClient != nil {
		replyGen = reply.NewLLMGenerator(llmClient, cfg.ReplyModel)
	}

	// Initialize services
	registry := normalizer.NewRegistry(cfg.OperatorDomains)
	normalizeSvc := service.NewNormalizeService(registry, log)
	ingestSvc := service.NewIngestService(normalizeSvc, knowledgeStore, replyGen, notifier,
		cfg.HostNotifyEmail, cfg.DefaultSource, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(kv, nats)
	ingestHandler := handler.NewIngestHandler(ingestSvc, log)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeStore, log)
	propertyHandler := handler.NewPropertyHandler(knowledgeStore, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/ingest/email", ingestHandler.Ingest)

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/threads/{threadID}", knowledgeHandler.ByThread)
			r.Get("/bookings/{bookingID}", knowledgeHandler.ByBooking)
			r.Get("/properties/{propertyID}", knowledgeHandler.ByProperty)
		})

		r.Route("/properties/{propertyID}/context", func(r chi.Router) {
			r.Get("/", propertyHandler.GetContext)
			r.Put("/", propertyHandler.PutContext)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
