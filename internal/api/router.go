package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/zotapay/deposit-gateway/internal/api/handler"
	"github.com/zotapay/deposit-gateway/internal/api/middleware"
	"github.com/zotapay/deposit-gateway/internal/api/spec"
	"github.com/zotapay/deposit-gateway/internal/config"
	"github.com/zotapay/deposit-gateway/internal/idempotency"
	"github.com/zotapay/deposit-gateway/internal/service"
	"go.uber.org/zap"
)

// Router wires handlers, middleware and services into the HTTP surface.
type Router struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *pgxpool.Pool
	redis        redis.Cmdable
	idemStore    *idempotency.Store
	orderStore   service.OrderStore
	depositSvc   *service.DepositService
	reconcileSvc *service.ReconcileService
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	idemStore *idempotency.Store,
	orderStore service.OrderStore,
	depositSvc *service.DepositService,
	reconcileSvc *service.ReconcileService,
) *Router {
	return &Router{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		redis:        redisClient,
		idemStore:    idemStore,
		orderStore:   orderStore,
		depositSvc:   depositSvc,
		reconcileSvc: reconcileSvc,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(chiMiddleware.RealIP)

	depositHandler := handler.NewDepositHandler(api.depositSvc)
	callbackHandler := handler.NewCallbackHandler(api.reconcileSvc)
	orderHandler := handler.NewOrderHandler(api.orderStore, api.reconcileSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/deposits", depositHandler.CreateDeposit)
		r.Get("/v1/orders/{id}/return", orderHandler.Return)

		// The processor may deliver notifications as GET or POST.
		r.Get("/v1/gateway/{gateway_id}/callback", callbackHandler.HandleCallback)
		r.Post("/v1/gateway/{gateway_id}/callback", callbackHandler.HandleCallback)
	})

	// Admin routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.RequireRole("admin"))
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/admin/orders/{id}", orderHandler.GetOrder)
		r.Post("/v1/admin/orders/{id}/status-check", orderHandler.CheckStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondError(w, r, http.StatusNotFound, "request/not-found", "resource not found")
	})

	return r
}
