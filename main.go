package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brightboard/brightboard-server/src/config"
	"github.com/brightboard/brightboard-server/src/database"
	"github.com/brightboard/brightboard-server/src/handlers"
	"github.com/brightboard/brightboard-server/src/logging"
	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories/postgres"
	"github.com/brightboard/brightboard-server/src/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	log.Info().Msg("database connected")

	// Initialize JWT secret in middleware
	if err := middleware.SetJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT secret")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.GetPool())
	sessionRepo := postgres.NewEditSessionRepository(db.GetPool())
	auditRepo := postgres.NewAuditRepository(db.GetPool())
	resetRepo := postgres.NewPasswordResetRepository(db.GetPool())

	// Email
	var emailService *services.EmailService
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		emailService = services.NewEmailService(
			cfg.MailgunDomain,
			cfg.MailgunAPIKey,
			cfg.MailgunFromEmail,
			cfg.MailgunFromName,
		)
		log.Info().Str("domain", cfg.MailgunDomain).Msg("Mailgun email service initialized")
	} else {
		log.Warn().Msg("Mailgun credentials not configured - transactional email disabled")
	}

	// Analytics
	analyticsService, err := services.NewAnalyticsService(services.AnalyticsConfig{
		PostHogAPIKey: cfg.PostHogAPIKey,
		PostHogHost:   cfg.PostHogHost,
		Enabled:       cfg.PostHogEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analytics service")
	}
	defer analyticsService.Close()

	// Services
	captchaService := services.NewCaptchaService(cfg.CaptchaSecret)
	auditService := services.NewAuditService(auditRepo)
	sessionService := services.NewEditSessionService(sessionRepo, userRepo)
	authService := services.NewAuthService(userRepo, captchaService, auditService, analyticsService, emailService)
	userService := services.NewUserService(userRepo, sessionService, auditService)
	lockService := services.NewLockService(userRepo, auditService, analyticsService, emailService)
	passwordService := services.NewPasswordService(userRepo, resetRepo, emailService, auditService, analyticsService)
	retentionService := services.NewRetentionService(auditRepo, resetRepo, cfg.AuditLogMaxAge, cfg.EnableRetention)

	// Auto-seed admin user on first run (if ADMIN_EMAIL and ADMIN_PASSWORD are set)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		seedAdmin(userRepo, cfg.AdminEmail, cfg.AdminPassword)
	}

	retentionService.Start(context.Background())

	// Create Gin router
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if origin == "http://localhost" || strings.HasPrefix(origin, "http://localhost:") {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed != "" && origin == strings.TrimSpace(allowed) {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, db, authService, userService, sessionService, lockService, passwordService, auditService)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	retentionService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

// seedAdmin creates the initial admin account when no account exists for
// the configured email.
func seedAdmin(userRepo *postgres.UserRepository, email, password string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check for existing admin user")
		return
	}
	if existing != nil {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash admin password")
		return
	}

	now := time.Now()
	admin := &models.User{
		ID:           uuid.New(),
		FirstName:    "Admin",
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
		NotificationSettings: models.NotificationSettings{
			EmailNotifications: true,
			ProjectUpdates:     true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Error().Err(err).Msg("failed to create initial admin user")
		return
	}
	log.Info().Str("email", admin.Email).Msg("initial admin user created")
}

func setupRoutes(
	router *gin.Engine,
	db *database.Database,
	authService *services.AuthService,
	userService *services.UserService,
	sessionService *services.EditSessionService,
	lockService *services.LockService,
	passwordService *services.PasswordService,
	auditService *services.AuditService,
) {
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewEditSessionHandler(sessionService, userService)
	lockHandler := handlers.NewLockHandler(lockService, userService)
	passwordHandler := handlers.NewPasswordHandler(passwordService)
	logHandler := handlers.NewLogHandler(auditService)
	healthHandler := handlers.NewHealthHandler(db)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)

	auth := router.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	{
		auth.POST("/signup", authHandler.HandleSignup)
		auth.POST("/login", authHandler.HandleLogin)
		auth.GET("/verify", middleware.AuthMiddleware(), authHandler.HandleVerify)
		auth.POST("/logout", authHandler.HandleLogout)
		auth.POST("/forgot-password", passwordHandler.HandleForgotPassword)
		auth.POST("/verify-reset-code", passwordHandler.HandleVerifyResetCode)
		auth.POST("/reset-password", passwordHandler.HandleResetPassword)
	}

	users := router.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.PUT("/change-password", userHandler.HandleChangePassword)

		admin := users.Group("")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("", userHandler.HandleList)
			admin.GET("/search", userHandler.HandleSearch)
			admin.POST("", userHandler.HandleCreate)
			admin.GET("/:id", userHandler.HandleGet)
			admin.PUT("/:id", userHandler.HandleUpdate)
			admin.DELETE("/:id", userHandler.HandleDelete)
			admin.PUT("/:id/role", userHandler.HandleChangeRole)

			admin.POST("/:id/start-edit", sessionHandler.HandleStartEdit)
			admin.POST("/:id/heartbeat", sessionHandler.HandleHeartbeat)
			admin.GET("/:id/edit-status", sessionHandler.HandleEditStatus)
			admin.DELETE("/:id/end-edit", sessionHandler.HandleEndEdit)

			admin.POST("/:id/lock", lockHandler.HandleLock)
			admin.POST("/:id/unlock", lockHandler.HandleUnlock)
			admin.GET("/:id/lock-status", lockHandler.HandleLockStatus)
			admin.GET("/:id/lock-history", lockHandler.HandleLockHistory)
		}
	}

	logs := router.Group("/logs")
	logs.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	{
		logs.GET("/user/:id", logHandler.HandleUserLogs)
	}
}
