package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	stripe "github.com/stripe/stripe-go"

	"github.com/evreno/event-ticketing/internal/clock"
	"github.com/evreno/event-ticketing/internal/config"
	"github.com/evreno/event-ticketing/internal/database"
	"github.com/evreno/event-ticketing/internal/handler"
	"github.com/evreno/event-ticketing/internal/middleware"
	"github.com/evreno/event-ticketing/internal/queue"
	"github.com/evreno/event-ticketing/internal/repository"
	"github.com/evreno/event-ticketing/internal/reservation"
	"github.com/evreno/event-ticketing/internal/router"
	"github.com/evreno/event-ticketing/internal/sweeper"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; limiter/cache degrade to pass-through

	stripe.Key = cfg.StripeSecret
	testMode := cfg.StripeSecret == ""
	if testMode {
		log.Println("payments: no Stripe key configured, running with the simulated payment flow")
	}

	// Repositories.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	venueRepo := repository.NewVenueRepo(db)
	eventRepo := repository.NewEventRepo(db)
	tierRepo := repository.NewTierRepo(db)
	resRepo := repository.NewReservationRepo(db)

	// Reservation engine over the transactional store.
	store := repository.NewStore(db)
	clk := clock.NewReal()
	engine := reservation.NewEngine(store, clk, cfg.CommissionRate, cfg.Currency)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	organizerH := handler.NewOrganizerHandler(venueRepo, eventRepo, tierRepo)
	publicH := handler.NewPublicHandler(eventRepo, tierRepo, venueRepo)
	notifier := handler.NewConfirmationNotifier(eventRepo, tierRepo, venueRepo)
	attendeeH := handler.NewAttendeeHandler(cfg, engine, resRepo, tierRepo, eventRepo, notifier)
	webhookH := handler.NewWebhookHandler(cfg, engine, notifier)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, config.LoadCacheConfig(), rdb)
	router.RegisterOrganizer(e, organizerH, cfg.JWTSecret, limiter)
	router.RegisterAttendee(e, attendeeH, cfg.JWTSecret, limiter, testMode)
	router.RegisterPayments(e, webhookH)

	// Expiry sweeper: returns tickets of unpaid reservations to inventory.
	sw := sweeper.New(engine, resRepo, clk,
		time.Duration(cfg.ReservationTTLMin)*time.Minute,
		time.Duration(cfg.SweepIntervalSec)*time.Second)
	go sw.Run(context.Background())

	// Broker consumer for confirmation events.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
