package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/handlers"
	"github.com/portfoliofuturo/portfolio-api/internal/i18n"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"github.com/portfoliofuturo/portfolio-api/internal/sse"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hub := sse.NewHub()
	go hub.Run(ctx)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	sessionService := services.NewSessionService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	identityService := services.NewIdentityService(db, sessionService, jwtService, hub, emailService, services.IdentityOptions{
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
		BaseURL:                  cfg.BaseURL,
		SiteURL:                  cfg.SiteURL,
	})
	profileService := services.NewProfileService(db)
	provisioner := services.NewProvisioner(identityService, profileService, services.ProvisionerOptions{
		Mode:          cfg.Provisioning.Mode,
		MaxAttempts:   cfg.Provisioning.MaxAttempts,
		RetryInterval: cfg.Provisioning.RetryInterval,
		DefaultState:  cfg.DefaultState,
	})

	if cfg.Provisioning.Mode == config.ProvisioningModeLegacy {
		log.Printf("Provisioning runs in legacy mode: profile and detail failures are not reported to callers")
	}

	var limiter handlers.SignInLimiterInterface
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Redis unreachable, sign-in throttling fails open: %v", err)
		}
		pingCancel()

		limiter = services.NewSignInLimiter(rdb, cfg.SignIn.MaxAttempts, cfg.SignIn.Window)
	} else {
		log.Printf("REDIS_URL not set, sign-in throttling disabled")
	}

	localizer := i18n.New(cfg.DefaultLocale)

	authHandler := handlers.NewAuthHandler(cfg, identityService, provisioner, limiter, localizer)
	userHandler := handlers.NewUserHandler(identityService, profileService)
	eventsHandler := handlers.NewEventsHandler(hub, identityService)
	docsHandler, err := handlers.NewDocsHandler(ctx)
	if err != nil {
		log.Fatalf("Failed to load API document: %v", err)
	}

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.SiteURL},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	handlers.RegisterRoutes(app, jwtService, handlers.Routes{
		Auth:   authHandler,
		Users:  userHandler,
		Events: eventsHandler,
		Docs:   docsHandler,
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := sessionService.CleanupExpired(ctx)
				if err != nil {
					log.Printf("Session cleanup failed: %v", err)
				} else if n > 0 {
					log.Printf("Removed %d expired sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
}
