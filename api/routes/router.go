package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classpilot/classpilot-backend/api/controllers"
	webhookcontrollers "github.com/classpilot/classpilot-backend/api/controllers/webhooks"
	"github.com/classpilot/classpilot-backend/api/middleware"
	"github.com/classpilot/classpilot-backend/pkg/config"
	"github.com/classpilot/classpilot-backend/pkg/logger"
	"github.com/classpilot/classpilot-backend/pkg/metrics"
)

// Dependencies carries everything the router wires into controllers.
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	Reconciler     webhookcontrollers.Reconciler
	TierReader     controllers.TierReader
	Registrations  controllers.RegistrationLister
	Syncer         controllers.RegistrationSyncer
	WebhookMetrics *metrics.WebhookMetrics
	ITNProxyTarget string
}

// NewRouter builds the API's chi router.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payfast", webhookcontrollers.PayFastITN(deps.Reconciler, cfg.PayFast, deps.WebhookMetrics, logg))
	})

	// Legacy path kept for gateway configs that predate the /api/v1 move.
	proxy := webhookcontrollers.PayFastProxy(deps.ITNProxyTarget, nil, logg)
	r.Post("/api/payfast/webhook", proxy)
	r.Options("/api/payfast/webhook", proxy)

	r.Route("/api/v1/tiers", func(r chi.Router) {
		r.Get("/{userId}", controllers.TierCurrent(deps.TierReader, logg))
		r.Get("/{userId}/usage", controllers.TierUsage(deps.TierReader, logg))
	})

	r.Route("/api/internal/v1", func(r chi.Router) {
		r.Use(middleware.ServiceKey(cfg.Sync.ServiceKey, logg))
		r.Post("/sync-registrations", controllers.SyncRegistrations(deps.Syncer, logg))
		r.Get("/registrations", controllers.AdminRegistrations(deps.Registrations, logg))
	})

	return r
}
