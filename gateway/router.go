// Package gateway exposes a read-only REST surface for dashboards and
// explorers. Mutating operations stay on the JSON-RPC server.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lottobox/core"
	"lottobox/gateway/middleware"
)

type Config struct {
	RateLimit middleware.RateLimit
	CORS      middleware.CORSConfig
	Logger    *slog.Logger
}

// New builds the gateway handler over the node's display queries.
func New(node *core.Node, cfg Config) http.Handler {
	obs := middleware.NewObservability("ltb_gateway", cfg.Logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	srv := &server{node: node}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(obs.Middleware("gateway"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware())
		v1.Get("/campaigns", srv.listCampaigns)
		v1.Get("/campaigns/{id}", srv.campaignInfo)
		v1.Get("/campaigns/{id}/boxes/{index}", srv.campaignBox)
		v1.Get("/campaigns/{id}/boxes/{index}/owner", srv.campaignBoxOwner)
		v1.Get("/campaigns/{id}/accounts/{address}", srv.campaignAccount)
		v1.Get("/accounts/{address}/sponsor", srv.accountSponsor)
		v1.Get("/sponsors/root", srv.sponsorRoot)
		v1.Get("/factory", srv.factoryStatus)
		v1.Get("/tokens/{symbol}", srv.tokenInfo)
		v1.Get("/tokens/{symbol}/accounts/{address}", srv.tokenBalance)
	})

	r.Handle("/metrics", obs.MetricsHandler())
	return r
}
