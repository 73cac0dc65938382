package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cetele/internal/config"
	"cetele/internal/database"
	"cetele/internal/handlers"
	"cetele/internal/repository"
	"cetele/internal/security"
	"cetele/internal/service"
	"cetele/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	log.WithField("type", cfg.DatabaseType).Info("database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations completed")

	if added, err := db.SeedUsernameBlocklist(); err != nil {
		log.WithError(err).Warn("failed to seed username blocklist")
	} else if added > 0 {
		log.WithField("words", added).Info("username blocklist seeded")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	requestRepo := repository.NewLinkRequestRepository(db)
	activationRepo := repository.NewActivationRepository(db)
	logRepo := repository.NewDailyLogRepository(db)

	// Services
	pinHasher := security.NewBcryptPinHasher()
	emailService, err := service.NewEmailService(cfg.EmailRegion, cfg.EmailSender, cfg.AppBaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize email service")
	}
	if !emailService.IsEnabled() {
		log.Warn("email sending disabled, no sender address configured")
	}

	authService := service.NewAuthService(userRepo, childRepo, sessionRepo, requestRepo,
		pinHasher, cfg.AdminToken, cfg.SessionDuration, log)
	provisionService := service.NewProvisionService(db, userRepo, childRepo, activationRepo,
		pinHasher, emailService, cfg.ActivationTTL, log)
	adminService := service.NewAdminService(db, userRepo, childRepo, requestRepo,
		activationRepo, emailService, log)
	statsService := service.NewStatsService(logRepo, childRepo, userRepo, log)

	if err := authService.EnsureAdminUser(); err != nil {
		log.WithError(err).Fatal("failed to ensure admin account")
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
		},
	}

	// Handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, limiter, log)
	authHandler := handlers.NewAuthHandler(authService, provisionService, oauthProviders, cfg.GoogleRedirectURL, log)
	childHandler := handlers.NewChildHandler(statsService, log)
	parentHandler := handlers.NewParentHandler(authService, provisionService, statsService, log)
	adminHandler := handlers.NewAdminHandler(adminService, provisionService, log)

	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /auth/child/login", middleware.RateLimit(authHandler.ChildLogin))
	mux.HandleFunc("POST /auth/admin/login", middleware.RateLimit(authHandler.AdminLogin))
	mux.HandleFunc("POST /auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /auth/activate", middleware.RateLimit(authHandler.Activate))
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Child routes
	mux.HandleFunc("GET /child/dashboard", middleware.RequireChildAuth(childHandler.Dashboard))
	mux.HandleFunc("GET /child/logs/{date}", middleware.RequireChildAuth(childHandler.GetLog))
	mux.HandleFunc("PUT /child/logs/{date}", middleware.RequireChildAuth(childHandler.PutLog))
	mux.HandleFunc("GET /child/history", middleware.RequireChildAuth(childHandler.History))

	// Parent routes
	mux.HandleFunc("GET /parent/dashboard", middleware.RequireAuth(parentHandler.Dashboard))
	mux.HandleFunc("POST /parent/children", middleware.RequireAuth(parentHandler.CreateChild))
	mux.HandleFunc("GET /parent/children/{id}/logs", middleware.RequireAuth(parentHandler.ChildWeek))

	// Admin routes
	mux.HandleFunc("GET /admin/requests", middleware.RequireAdmin(adminHandler.ListRequests))
	mux.HandleFunc("POST /admin/requests/{id}/approve", middleware.RequireAdmin(adminHandler.ApproveRequest))
	mux.HandleFunc("POST /admin/requests/{id}/reject", middleware.RequireAdmin(adminHandler.RejectRequest))
	mux.HandleFunc("GET /admin/children", middleware.RequireAdmin(adminHandler.ListChildren))
	mux.HandleFunc("POST /admin/children", middleware.RequireAdmin(adminHandler.CreateChild))
	mux.HandleFunc("GET /admin/codes", middleware.RequireAdmin(adminHandler.ListCodes))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background session cleanup
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.WithError(err).Error("failed to clean up expired sessions")
			}
		}
	}()

	go func() {
		log.WithField("addr", addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
