package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"givegate/internal/contact"
	donationhandler "givegate/internal/donation/handler"
	"givegate/internal/donation/metrics"
	"givegate/internal/donation/payment"
	"givegate/internal/donation/service"
	"givegate/internal/donation/store"
	"givegate/internal/notification"
	"givegate/internal/platform/config"
	"givegate/internal/platform/events"
	"givegate/internal/platform/httpserver"
	"givegate/internal/platform/logger"
	platformredis "givegate/internal/platform/redis"
	"givegate/internal/ratelimit"
	webhookhandler "givegate/internal/webhook/handler"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal packages.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New()
	ctx := context.Background()

	// Stores: Postgres when configured, in-memory otherwise.
	donors, donations, pool := buildStores(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	// Mail: SMTP when configured, log-only fallback otherwise.
	var mailer notification.Mailer
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.FromEmail,
			FromName: "Adelante Story Foundation",
		})
	} else {
		log.Warn("SMTP not configured, email delivery disabled")
		mailer = &notification.LogMailer{Logger: log}
	}
	m := metrics.New()
	notifier := notification.NewNotifier(mailer, log, true).WithErrorCounter(m.NotificationErrors)

	// Event publishing is best-effort; run without it when RabbitMQ is absent.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.DonationEventQueue, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, donation events disabled", "error", err.Error())
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, rate limiting disabled", "error", err.Error())
	}
	var limiterMiddleware func(http.Handler) http.Handler
	if redisClient != nil {
		defer redisClient.Close()
		limiter := ratelimit.New(redisClient.Client, cfg.IntakeRateLimitPerMinute, config.RateLimitWindow, log)
		limiterMiddleware = limiter.Middleware
	}

	dispatcher := payment.NewDispatcher(
		payment.NewCardStrategy(payment.NewStripeClient(cfg.StripeSecretKey), log),
		buildWalletStrategy(cfg, log),
		payment.NewBankTransferStrategy(payment.BankAccount{
			AccountName:   cfg.BankAccountName,
			AccountNumber: cfg.BankAccountNumber,
			RoutingNumber: cfg.BankRoutingNumber,
			BankName:      cfg.BankName,
		}, log),
		log,
	)

	donationService := service.New(dispatcher, donors, donations, notifier, publisher, m, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	donationhandler.New(donationService, log, limiterMiddleware).Register(router)
	webhookhandler.New(donations, cfg.StripeWebhookSecret, m, log).Register(router)
	contact.NewHandler(contact.NewMemoryStore(), mailer, cfg.ContactEmail, log).Register(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.ServerAddr, router)

	go func() {
		log.Info("starting donation gateway", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	// Let in-flight confirmation emails drain before the process exits.
	notifier.Wait()
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (store.DonorStore, store.DonationStore, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return store.NewMemoryDonorStore(), store.NewMemoryDonationStore(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		log.Error("failed to connect to postgres, falling back to in-memory stores", "error", err.Error())
		return store.NewMemoryDonorStore(), store.NewMemoryDonationStore(), nil
	}

	return store.NewPostgresDonorStore(pool), store.NewPostgresDonationStore(pool), pool
}

func buildWalletStrategy(cfg config.Config, log *slog.Logger) payment.Strategy {
	client, err := payment.NewPayPalClient(cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalAPIBase)
	if err != nil {
		// Requests for paypal will fail at processing time with a clean result.
		log.Warn("paypal client init failed", "error", err.Error())
		return payment.NewWalletStrategy(nil, cfg.FrontendBaseURL, log)
	}
	return payment.NewWalletStrategy(client, cfg.FrontendBaseURL, log)
}
