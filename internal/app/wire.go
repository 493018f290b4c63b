package app

import (
	"log/slog"

	"github.com/bancalot/platform/internal/cache"
	"github.com/bancalot/platform/internal/guard"
	"github.com/bancalot/platform/internal/handler"
	"github.com/bancalot/platform/internal/infra"
	"github.com/bancalot/platform/internal/ledger"
	"github.com/bancalot/platform/internal/policy"
	"github.com/bancalot/platform/internal/repository"
	"github.com/bancalot/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client // nil when the rule cache is disabled
	Config *infra.Config
	Logger *slog.Logger
}

// Components exposes what main needs beyond the router.
type Components struct {
	Router    chi.Router
	RuleCache *cache.RuleCache // nil when Redis is not configured
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) (*Components, error) {
	pool := deps.Pool
	cfg := deps.Config
	logger := deps.Logger

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Repositories
	ruleRepo := repository.NewRuleRepository()
	drawRepo := repository.NewDrawRepository()
	ticketRepo := repository.NewTicketRepository()
	paymentRepo := repository.NewPaymentRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine
	ledgerEngine := ledger.NewEngine(ticketRepo, paymentRepo, outboxRepo)

	// Rule cache. Nil interfaces keep the services cache-free.
	var (
		ruleCache *cache.RuleCache
		snapshots service.RuleSnapshotCache
		evictor   service.RuleEvictor
	)
	if deps.Redis != nil {
		breaker := guard.NewCircuitBreaker(cfg.CacheBreakerThreshold, cfg.CacheBreakerReset)
		ruleCache = cache.NewRuleCache(deps.Redis, cfg.RuleCacheTTL, logger).WithBreaker(breaker)
		snapshots, evictor = ruleCache, ruleCache
	}

	// Services
	saleSvc := service.NewSaleService(pool, ruleRepo, drawRepo, ticketRepo, outboxRepo, snapshots, service.SaleConfig{
		Defaults:  policy.Defaults{CutoffMinutes: cfg.DefaultCutoffMinutes},
		Admission: policy.AdmissionOptions{MaxBetsPerTicket: cfg.MaxBetsPerTicket},
		Location:  loc,
	}, logger)
	payoutSvc := service.NewPayoutService(pool, ticketRepo, ledgerEngine, nil, logger)
	ruleSvc := service.NewRuleService(pool, ruleRepo, outboxRepo, evictor, nil, logger)

	// Handlers
	var limiter handler.Limiter
	if cfg.SubmitRateLimit > 0 {
		limiter = guard.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	}
	ticketHandler := handler.NewTicketHandler(saleSvc, limiter)
	ruleHandler := handler.NewRuleHandler(saleSvc, ruleSvc)
	sellerHandler := handler.NewSellerHandler(saleSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)

	health := map[string]infra.Pinger{"postgres": pool}
	if deps.Redis != nil {
		health["redis"] = infra.RedisPinger{Client: deps.Redis}
	}

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(cfg.CORSOrigins()...))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(health))

	r.Get("/rules/effective", ruleHandler.Effective)
	r.Get("/sellers/{sellerID}/daily-sales", sellerHandler.DailySales)

	r.Route("/tickets", func(r chi.Router) {
		r.Post("/", ticketHandler.Submit)
		r.Post("/admission", ticketHandler.Preview)
		r.Get("/{ticketID}/payout", payoutHandler.GetPayout)
		r.Post("/{ticketID}/payments", payoutHandler.RegisterPayment)
	})

	r.Post("/payments/{paymentID}/reverse", payoutHandler.ReversePayment)

	// Admin routes. Authentication is enforced by the upstream gateway.
	r.Route("/admin", func(r chi.Router) {
		r.Post("/rules", ruleHandler.Create)
	})

	return &Components{Router: r, RuleCache: ruleCache}, nil
}
