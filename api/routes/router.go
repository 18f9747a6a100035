package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safetradehq/safetrade-backend/api/controllers"
	"github.com/safetradehq/safetrade-backend/api/middleware"
	"github.com/safetradehq/safetrade-backend/internal/disputes"
	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/internal/history"
	"github.com/safetradehq/safetrade-backend/internal/inventory"
	"github.com/safetradehq/safetrade-backend/pkg/config"
	"github.com/safetradehq/safetrade-backend/pkg/db"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
	"github.com/safetradehq/safetrade-backend/pkg/redis"
)

// Deps carries everything the router wires into its handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Escrow    escrow.Service
	Disputes  disputes.Service
	Inventory inventory.Service
	History   history.Service

	// Metrics serves the Prometheus scrape endpoint when set.
	Metrics http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	writePolicy := middleware.NewWriteRateLimitPolicy(
		"write",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
		cfg.RateLimit.WriteActorLimit,
	)
	var limiterStore middleware.RateLimiterStore
	var stockCache controllers.StockCache
	if deps.Redis != nil {
		limiterStore = deps.Redis
		stockCache = deps.Redis
	}
	throttled := middleware.WriteRateLimit(writePolicy, limiterStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/transactions", func(r chi.Router) {
			r.With(throttled).Post("/", controllers.TransactionCreate(deps.Escrow, logg))
			r.Get("/{trackingId}", controllers.TransactionGet(deps.Escrow, deps.History, logg))
			r.With(throttled).Post("/{trackingId}/advance", controllers.TransactionAdvance(deps.Escrow, logg))
			r.With(throttled).Post("/{trackingId}/dispute", controllers.DisputeOpen(deps.Disputes, logg))
			r.Get("/{trackingId}/dispute", controllers.DisputeGetByTransaction(deps.Disputes, deps.Escrow, logg))
		})

		r.Route("/disputes", func(r chi.Router) {
			r.With(throttled).Post("/{disputeId}/resolve", controllers.DisputeResolve(deps.Disputes, logg))
		})

		r.Route("/variants/{variantId}/stock", func(r chi.Router) {
			r.Get("/", controllers.StockGet(deps.Inventory, stockCache, cfg.Escrow.StockCacheTTL, logg))
			r.With(throttled).Put("/", controllers.StockEnsureVariant(deps.Inventory, logg))
			r.With(throttled).Post("/add", controllers.StockAdd(deps.Inventory, stockCache, logg))
			r.With(throttled).Post("/restock", controllers.StockRestock(deps.Inventory, stockCache, logg))
			r.Get("/movements", controllers.StockMovements(deps.Inventory, logg))
		})
	})

	return r
}
