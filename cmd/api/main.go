package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/tripline/rideshare-api/internal/handlers"
	"github.com/tripline/rideshare-api/internal/mailer"
	"github.com/tripline/rideshare-api/internal/repository"
	"github.com/tripline/rideshare-api/internal/service"
	"github.com/tripline/rideshare-api/pkg/cache"
	"github.com/tripline/rideshare-api/pkg/config"
	"github.com/tripline/rideshare-api/pkg/database"
	"github.com/tripline/rideshare-api/pkg/events"
	"github.com/tripline/rideshare-api/pkg/logger"
	mw "github.com/tripline/rideshare-api/pkg/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	userRepo := repository.NewUserRepository(pool)
	verifyRepo := repository.NewVerifyRepository(pool)
	rideRepo := repository.NewRideRepository(pool)
	refreshRepo := repository.NewRefreshTokenRepository(redisClient, cfg.Auth.RefreshTokenTTL)
	resetRepo := repository.NewResetTokenRepository(redisClient, cfg.Auth.ResetTokenTTL)
	denylistRepo := repository.NewDenylistRepository(redisClient)
	rateLimitRepo := repository.NewRateLimitRepository(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow)

	mailService := selectMailer(cfg)

	authService := service.NewAuthService(userRepo, verifyRepo, refreshRepo, resetRepo,
		denylistRepo, rateLimitRepo, mailService, eventBus, cfg)
	rideService := service.NewRideService(rideRepo)
	userService := service.NewUserService(userRepo)

	h := handlers.New(authService, rideService, userService, cfg)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/send-verification", h.SendVerification)
		r.Post("/send-reset-verification", h.SendResetVerification)
		r.Post("/verify-code", h.VerifyCode)
		r.Post("/verify-reset-password-code", h.VerifyResetPasswordCode)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/refresh-token", h.RefreshToken)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.RequireJWT())

		r.Get("/verify-token", h.VerifyToken)
		r.Get("/user", h.Me)
		r.Post("/user/profile", h.UpdateProfile)

		r.Route("/rides", func(r chi.Router) {
			r.Get("/", h.ListRides)
			r.Post("/", h.CreateRide)
			r.Get("/filter", h.FilterRides)
			r.Get("/my", h.MyRides)
			r.Get("/{id}", h.GetRide)
			r.Put("/{id}", h.UpdateRide)
			r.Post("/{id}/archive", h.ToggleRideArchive)
			r.Delete("/{id}", h.DeleteRide)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// selectMailer picks the delivery backend: log-only in dev, MailerSend
// when an API key is present, SMTP otherwise.
func selectMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		logger.Info("Using dev mailer, emails will be logged only")
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.SMTPFromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}
