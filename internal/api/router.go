package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/carelink/booking-availability/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability endpoints
	r.Get("/providers/{id}/availability", checkAvailabilityHandler(cfg.Service))
	r.Get("/providers/{id}/schedule", providerScheduleHandler(cfg.Service))

	// Booking endpoints
	r.Post("/bookings/{id}/assign", assignProviderHandler(cfg.Service))
	r.Get("/bookings/{id}/contact", bookingContactHandler(cfg.Service))

	return r
}
