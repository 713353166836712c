package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mathdrill/internal/config"
	"mathdrill/internal/database"
	"mathdrill/internal/handlers"
	"mathdrill/internal/logger"
	"mathdrill/internal/realtime"
	"mathdrill/internal/repository"
	"mathdrill/internal/security"
	"mathdrill/internal/service"
)

const (
	stepDatabase   = "Database connection"
	stepMigrations = "Running migrations"
	stepContent    = "Seeding content"
	stepServices   = "Initializing services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve the health endpoint while the rest starts up
	startup := handlers.NewStartupStatus(stepDatabase, stepMigrations, stepContent, stepServices)
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      startup,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	app, err := initialize(ctx, cfg, log, startup)
	if err != nil {
		log.Fatal("Failed to initialize", "error", err)
	}
	defer app.close()
	startup.MarkReady(app.router)
	log.Info("Server ready", "database", cfg.DatabaseType, "auth", cfg.AuthEnabled())

	<-ctx.Done()
	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func initialize(ctx context.Context, cfg *config.Config, log *logger.Logger, startup *handlers.StartupStatus) (*app, error) {
	a := &app{}

	startup.SetCurrentStep(stepDatabase)
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, func() { db.Close() })
	startup.CompleteStep(stepDatabase)
	log.Info("Database connection established", "type", cfg.DatabaseType)

	startup.SetCurrentStep(stepMigrations)
	applied, err := db.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(stepMigrations)
	log.Info("Migrations completed", "applied", len(applied))

	startup.SetCurrentStep(stepContent)
	seeder := service.NewSeedService(db, log)
	if cfg.SeedContent {
		if _, err := seeder.SeedContent(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed content: %w", err)
		}
	}
	startup.CompleteStep(stepContent)

	startup.SetCurrentStep(stepServices)
	stores := service.PracticeStores{
		Skills:    repository.NewSkillRepository(db),
		Questions: repository.NewQuestionRepository(db),
		Attempts:  repository.NewAttemptRepository(db),
		Stats:     repository.NewStatsRepository(db),
		Prefs:     repository.NewPrefsRepository(db),
	}
	hub := service.NewHub(log)
	reviews := service.NewReviewService(repository.NewReviewRepository(db))
	achievements := service.NewAchievementService(repository.NewAchievementRepository(db), hub, log)

	emailService, err := service.NewEmailService(ctx, service.EmailOptions{
		AWSRegion:   cfg.Email.AWSRegion,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		NotifyEmail: cfg.Email.NotifyEmail,
		Debug:       cfg.Email.Debug,
	}, log)
	if err != nil {
		log.Warn("Achievement emails disabled", "error", err)
	} else if emailService.IsEnabled() {
		achievements.AddNotifier(emailService)
	}

	if cfg.Redis.Addr != "" {
		bus, err := realtime.NewRedisBus(ctx, cfg.Redis.Addr, cfg.Redis.Channel, log)
		if err != nil {
			log.Warn("Redis event forwarding disabled", "error", err)
		} else {
			events, unsubscribe := hub.Subscribe(256)
			go bus.Forward(ctx, events)
			a.closers = append(a.closers, func() {
				unsubscribe()
				bus.Close()
			})
		}
	}

	practiceService := service.NewPracticeService(stores, reviews, achievements, hub, service.PracticeOptions{
		FeedbackDelay:   cfg.Practice.FeedbackDelay,
		DefaultTimezone: cfg.Practice.DefaultTimezone,
		MinTarget:       cfg.Practice.MinTarget,
		MaxTarget:       cfg.Practice.MaxTarget,
	}, log)
	authService := service.NewAuthService(cfg.Auth.PasscodeHash, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	practiceHandler := handlers.NewPracticeHandler(practiceService, log)
	a.closers = append(a.closers, practiceHandler.Close)

	a.router = handlers.NewRouter(handlers.Routes{
		Middleware: handlers.NewMiddleware(authService, security.NewRateLimiter(ctx, 5, time.Minute), log),
		Auth:       handlers.NewAuthHandler(authService, log),
		Practice:   practiceHandler,
		Dashboard: handlers.NewDashboardHandler(
			service.NewDashboardService(stores, reviews, achievements, cfg.Practice.DefaultTimezone),
			reviews, achievements,
			service.NewPrefsService(repository.NewPrefsRepository(db), cfg.Practice.DefaultTimezone),
			stores.Skills, log),
		Admin:  handlers.NewAdminHandler(service.NewBackupService(db, log), seeder, practiceHandler.Close, log),
		Events: handlers.NewEventsHandler(hub, log),
	}, log)
	startup.CompleteStep(stepServices)
	return a, nil
}
