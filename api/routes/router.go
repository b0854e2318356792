package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracklock/tracklock-backend/api/controllers"
	"github.com/tracklock/tracklock-backend/api/middleware"
	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	"github.com/tracklock/tracklock-backend/internal/splits"
	"github.com/tracklock/tracklock-backend/pkg/config"
	"github.com/tracklock/tracklock-backend/pkg/logger"
	pkgredis "github.com/tracklock/tracklock-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	intentsRepo intents.Repository,
	splitsRepo splits.Repository,
	settlementRepo settlement.Repository,
	settlementSvc settlement.Service,
) http.Handler {
	var redisP controllers.Pinger
	var idemStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idemStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Get("/healthz", controllers.HealthLive(cfg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/intents", controllers.CreateIntent(intentsRepo, logg))

		r.Route("/splits", func(r chi.Router) {
			r.Post("/", controllers.CreateSplit(splitsRepo, logg))
			r.Post("/{versionId}/lock", controllers.LockSplit(splitsRepo, logg))
		})

		r.Post("/settlements/{intentId}/finalize", controllers.FinalizeSettlement(settlementSvc, logg))

		r.Get("/content/{contentId}/access", controllers.ContentAccess(intentsRepo, settlementRepo, logg))
		r.Get("/proofs/{proofHash}", controllers.ProofDetail(settlementRepo, logg))
	})

	return r
}
