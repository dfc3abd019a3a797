package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/config"
	"github.com/xavierca1/homni-leads/internal/entity"
	"github.com/xavierca1/homni-leads/internal/infra/database"
	"github.com/xavierca1/homni-leads/internal/infra/http/handlers"
	"github.com/xavierca1/homni-leads/internal/infra/http/middleware"
	"github.com/xavierca1/homni-leads/internal/infra/mail"
	"github.com/xavierca1/homni-leads/internal/infra/queue"
	"github.com/xavierca1/homni-leads/internal/infra/worker"
	"github.com/xavierca1/homni-leads/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if err := config.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.WithError(err).Fatal("invalid log configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			logrus.WithError(err).Fatal("migrations failed")
		}
	}

	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	leadRepo := database.NewLeadRepository(db)

	// 2. Event bus
	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logrus.WithError(err).Fatal("rabbitmq unavailable")
	}
	defer rabbitMQ.Close()

	producer := queue.NewProducer(rabbitMQ.Ch)

	// 3. Redis for the rate limiter
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// 4. UseCases
	metrics := middleware.PrometheusRecorder{}
	createUC := usecase.NewCreateLeadUseCase(leadRepo, producer, metrics)
	updateStatusUC := usecase.NewUpdateLeadStatusUseCase(leadRepo, producer, metrics)
	getUC := usecase.NewGetLeadUseCase(leadRepo)
	listUC := usecase.NewListLeadsUseCase(leadRepo)
	pipelineUC := usecase.NewPipelineSummaryUseCase(leadRepo)

	// 5. Workers
	mailSender := mail.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	mailSender.NotifyInbox = cfg.SMTP.NotifyInbox
	if !mailSender.Enabled() {
		logrus.Warn("SMTP_HOST not set, lead emails are disabled")
	}

	consumerCh, err := rabbitMQ.Conn.Channel()
	if err != nil {
		logrus.WithError(err).Fatal("failed to open consumer channel")
	}
	eventWorker := queue.NewWorker(consumerCh)
	eventWorker.Subscribe(entity.EventLeadCreated, queue.EventHandlerFunc(mailSender.HandleLeadCreated))
	eventWorker.Subscribe(entity.EventLeadStatusChanged, queue.EventHandlerFunc(mailSender.HandleStatusChanged))
	go func() {
		if err := eventWorker.Start(ctx, queue.QueueName); err != nil {
			logrus.WithError(err).Error("lead event worker exited")
		}
	}()

	staleWorker := worker.NewStaleLeadWorker(leadRepo, updateStatusUC, cfg.StaleLeadAfter, cfg.StaleLeadInterval)
	go staleWorker.Start(ctx)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(createUC, updateStatusUC, getUC, listUC, pipelineUC)
	healthHandler := handlers.NewHealthHandler(version).
		WithDatabase(db).
		WithRabbitMQ(rabbitMQ.Conn).
		WithRedis(redisClient)
	createLimiter := middleware.NewRateLimiter(redisClient, "create-lead", cfg.CreateRateLimit, time.Minute)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/leads", leadHandler.Routes(createLimiter.Middleware))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.Addr).Info("🔥 lead API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
