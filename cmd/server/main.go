// Package main Intelligent Email Filter API
// @title Intelligent Email Filter API
// @version 1.0
// @description Email browsing and importance classification backed by per-user trained models.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/hardikSrivastav/imp-mail-sub002/config"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/auth"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/email"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/gmail"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/oauth"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/sanitize"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/vector"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/classifier"
	httpdelivery "github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/controllers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/repository/postgres"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	prefRepo := postgres.NewPreferenceRepository(db)
	emailRepo := postgres.NewEmailRepository(db)
	exampleRepo := postgres.NewExampleRepository(db)

	// Adapters
	tokenCodec := auth.NewJWTCodec(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	var exchanger domain.OAuthExchanger
	if cfg.GoogleClientID != "" {
		exchanger = oauth.NewGoogleExchanger(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google login disabled")
	}

	var fetcher domain.MailboxFetcher
	if cfg.GoogleClientID != "" {
		fetcher = gmail.NewFetcher(gmail.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			TokenDir:     cfg.GmailTokenDir,
		})
	}

	mailerCfg := email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	}
	if missing := mailerCfg.Validate(); len(missing) > 0 {
		logger.Error("incomplete mail configuration", "missing", missing)
		os.Exit(1)
	}
	mailer, err := email.NewMailer(mailerCfg)
	if err != nil {
		logger.Error("failed to create mailer", "error", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()

	vectors := vector.NewQdrantStore(nil, cfg.QdrantURL, cfg.QdrantCollection)
	sanitizer := sanitize.NewHTMLSanitizer()

	modelStore, err := classifier.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open model store", "error", err)
		os.Exit(1)
	}

	// Services
	notifications := services.NewNotificationService(mailer, renderer, logger)
	userService := services.NewUserService(userRepo, prefRepo, hasher, tokenCodec, cfg.TokenExpiry, exchanger, notifications, logger)
	preferenceService := services.NewPreferenceService(prefRepo)
	emailService := services.NewEmailService(emailRepo, prefRepo, fetcher, sanitizer, logger)
	classifierService := services.NewClassifierService(vectors, exampleRepo, emailRepo, modelStore, logger)
	if _, err := classifierService.WarmUp(context.Background()); err != nil {
		logger.Error("failed to load persisted models", "error", err)
		os.Exit(1)
	}

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:        controllers.NewAuthController(logger, userService),
		Emails:      controllers.NewEmailController(logger, emailService, preferenceService),
		Preferences: controllers.NewPreferenceController(logger, preferenceService),
		Classifier:  controllers.NewClassifierController(logger, classifierService),
		Models:      controllers.NewModelController(logger, classifierService),
	}, tokenCodec, logger)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr, "env", cfg.Environment)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
