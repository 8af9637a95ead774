package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/pepedome/backend/internal/api"
	"github.com/pepedome/backend/internal/config"
	"github.com/pepedome/backend/internal/content"
	"github.com/pepedome/backend/internal/mailer"
	"github.com/pepedome/backend/internal/newsletter"
	"github.com/pepedome/backend/internal/subscriber"
	"github.com/pepedome/backend/internal/tracking"
	"github.com/pepedome/backend/internal/worker"
)

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}
	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}

	log.Printf("DB host: %s", extractHost(cfg.Database.URL))
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Database connected")

	// Redis is optional: locks fall back to PG advisory locks and the rate
	// limiter becomes a passthrough.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to PG advisory locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — using PG advisory locks, rate limiting disabled")
	}

	newsletters := newsletter.NewStore(db)
	catalog := content.NewStore(db)
	subscribers := subscriber.NewStore(db)
	trackStore := tracking.NewStore(db)
	signer := tracking.NewSigner(cfg.Tracking.Secret, cfg.Tracking.BaseURL)

	// SES is optional in local development; sending endpoints answer 503.
	var sender *mailer.Sender
	var confirmMailer *mailer.ConfirmationMailer
	if cfg.SES.Enabled && cfg.SES.FromAddress != "" {
		sesClient, err := mailer.NewSESClient(ctx, cfg.SES)
		if err != nil {
			log.Fatalf("Failed to initialize SES client: %v", err)
		}
		renderer, err := mailer.NewRenderer()
		if err != nil {
			log.Fatalf("Failed to initialize renderer: %v", err)
		}
		sender = mailer.NewSender(newsletters, subscribers, catalog, renderer,
			sesClient, signer, cfg.Site.Name, cfg.Site.BaseURL)
		sender.SetBatchSize(cfg.Worker.SendBatchSize)
		confirmMailer = mailer.NewConfirmationMailer(sesClient, cfg.Site.Name, cfg.Tracking.BaseURL)
		log.Printf("SES configured (region=%s, from=%s)", cfg.SES.Region, cfg.SES.FromAddress)
	} else {
		log.Println("SES not configured — email delivery disabled")
	}

	var handlers *api.Handlers
	if sender != nil {
		handlers = api.NewHandlers(newsletters, catalog, subscribers, sender, cfg.Site.BaseURL)
		handlers.SetConfirmationMailer(confirmMailer)
	} else {
		handlers = api.NewHandlers(newsletters, catalog, subscribers, nil, cfg.Site.BaseURL)
	}

	var limiter *api.RateLimiter
	if redisClient != nil && cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window())
		log.Printf("Rate limiting enabled: %d requests / %s", cfg.RateLimit.Requests, cfg.RateLimit.Window())
	}

	trackingHandler := tracking.NewHandler(signer, trackStore, subscribers)

	var origins []string
	if o := os.Getenv("CORS_ALLOWED_ORIGINS"); o != "" {
		origins = strings.Split(o, ",")
	}
	router := api.NewRouter(handlers, trackingHandler, limiter, origins)

	// Scheduled send dispatcher and feed importer run in-process unless a
	// standalone worker handles them.
	var dispatcher *worker.Dispatcher
	if sender != nil && os.Getenv("DISABLE_DISPATCHER") == "" {
		dispatcher = worker.NewDispatcher(db, sender)
		dispatcher.SetPollInterval(cfg.Worker.PollInterval())
		if redisClient != nil {
			dispatcher.SetRedisClient(redisClient)
		}
		if cfg.Feed.Enabled && cfg.Feed.URL != "" {
			dispatcher.SetFeedImporter(content.NewFeedImporter(catalog, cfg.Feed.URL), cfg.Feed.Interval())
			log.Printf("Feed importer enabled: %s every %s", cfg.Feed.URL, cfg.Feed.Interval())
		}
		if err := dispatcher.Start(); err != nil {
			log.Printf("Warning: Failed to start dispatcher: %v", err)
		} else {
			log.Printf("Dispatcher started (polls every %s)", cfg.Worker.PollInterval())
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if dispatcher != nil {
		dispatcher.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
