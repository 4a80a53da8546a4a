package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentals/internal/api"
	"rentals/internal/auth"
	"rentals/internal/config"
	"rentals/internal/db"
	apperrors "rentals/internal/errors"
	"rentals/internal/repository"
	"rentals/internal/service"
	"rentals/internal/validator"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	bookingRepo := repository.NewBookingRepository(conn)
	fleetRepo := repository.NewFleetRepository(conn)
	paymentMethodRepo := repository.NewPaymentMethodRepository(conn)
	adminAuthRepo := repository.NewAdminAuthRepository(conn)
	jobRepo := repository.NewJobRepository(conn)

	var email service.EmailSender
	if cfg.EmailEnabled() {
		email = service.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)
	} else {
		logger.Warn("SendGrid not configured, email notifications disabled")
	}
	var sms service.SMSSender
	if cfg.SMSEnabled() {
		sms = service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Warn("Twilio not configured, SMS notifications disabled")
	}
	sender := service.NewSenderService(email, sms, logger)

	validate := validator.New()
	gateway := service.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	bookingService := service.NewBookingService(bookingRepo, fleetRepo, gateway, sender, validate, logger)
	checkoutService := service.NewCheckoutService(bookingRepo, gateway, sender, logger, cfg.FrontendURL)
	paymentMethodService := service.NewPaymentMethodService(paymentMethodRepo, gateway, validate, logger)
	fleetService := service.NewFleetService(fleetRepo, validate, cfg.Currency, logger)
	adminService := service.NewAdminService(bookingService, validate, logger)
	adminAuthService := service.NewAdminAuthService(adminAuthRepo, cfg.JWTSecret, logger)
	jobService := service.NewJobService(jobRepo, cfg.PendingTTL, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		err := adminAuthService.CreateAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		switch {
		case err == nil:
			logger.Info("Seeded admin account", "email", cfg.AdminEmail)
		case apperrors.Is(err, apperrors.KindConflict):
		default:
			return err
		}
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.JobSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := jobService.RunAll(jobCtx); err != nil {
			logger.Error("Cron job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	logger.Info("Cron jobs scheduled", "schedule", cfg.JobSchedule)

	router := api.NewRouter(api.Handlers{
		Bookings:       api.NewUserBookingHandler(bookingService, checkoutService, logger),
		Webhook:        api.NewStripeWebhookHandler(checkoutService, logger),
		PaymentMethods: api.NewPaymentMethodHandler(paymentMethodService, logger),
		Fleet:          api.NewFleetHandler(fleetService, logger),
		Admin:          api.NewAdminHandler(adminService, logger),
		AdminAuth:      api.NewAdminAuthHandler(adminAuthService, logger),
	}, api.RouterConfig{
		Auth:           auth.NewMiddleware(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      os.Stdout,
		Logger:         logger,
		Health:         conn.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("Cron job still running at shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	sender.Wait()
	logger.Info("Server stopped")
	return nil
}
