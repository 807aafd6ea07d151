package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/viamover/moverd/internal/auth"
	"github.com/viamover/moverd/internal/governance"
	"github.com/viamover/moverd/internal/savings"
	"github.com/viamover/moverd/internal/subsidized"
	"github.com/viamover/moverd/internal/treasury"
	"github.com/viamover/moverd/internal/version"
	"github.com/viamover/moverd/pkg/metrics"
	"github.com/viamover/moverd/pkg/mover"
)

type Router struct {
	apiKey string
	clock  mover.Clock

	gov *governance.Service
	sub *subsidized.Service
	sav *savings.Service
	tr  *treasury.Service
	ver *version.Service
}

func NewServer(apiKey string, clock mover.Clock, gov *governance.Service, sub *subsidized.Service, sav *savings.Service, tr *treasury.Service, ver *version.Service) *Router {
	if clock == nil {
		clock = mover.SystemClock
	}

	return &Router{
		apiKey: apiKey,
		clock:  clock,
		gov:    gov,
		sub:    sub,
		sav:    sav,
		tr:     tr,
		ver:    ver,
	}
}

// Handler builds the routes of the daemon
func (r *Router) Handler() http.Handler {
	cr := chi.NewRouter()

	a := auth.New(r.apiKey)

	// configure middleware
	cr.Use(middleware.RequestID)
	cr.Use(middleware.Logger)

	// configure custom middleware
	cr.Use(OptionsMiddleware)
	cr.Use(HealthMiddleware)
	cr.Use(RequestSizeLimitMiddleware(10 << 20)) // Limit request bodies to 10MB
	cr.Use(a.AuthMiddleware)
	cr.Use(metrics.InstrumentHandler)
	cr.Use(middleware.Compress(9))

	cr.Handle("/metrics", metrics.Handler())
	cr.Get("/version", r.ver.Current)

	// configure routes
	cr.Route("/governance", func(cr chi.Router) {
		cr.Get("/stats", r.gov.GetStats)
		cr.Get("/power", r.gov.GetPower)

		cr.Route("/proposals", func(cr chi.Router) {
			cr.Get("/", r.gov.GetProposals)
			cr.Post("/", r.gov.CreateProposal)
			cr.Get("/last", r.gov.GetLastProposal)
			cr.Get("/{id}", r.gov.GetProposal)
			cr.Post("/{id}/vote", r.gov.Vote)
		})
	})

	cr.Route("/subsidized", func(cr chi.Router) {
		cr.Get("/allowed", r.sub.IsAllowed)
		cr.Post("/swap", r.sub.Swap)
		cr.Post("/burn", r.sub.Burn)
		cr.Post("/relay", withSignature(r.clock, r.sub.Relay))
	})

	cr.Route("/savings", func(cr chi.Router) {
		cr.Get("/info", r.sav.GetInfo)
		cr.Get("/chart", r.sav.GetChart)
		cr.Post("/deposit", r.sav.Deposit)
		cr.Post("/withdraw", r.sav.Withdraw)
	})

	cr.Route("/treasury", func(cr chi.Router) {
		cr.Get("/info", r.tr.GetInfo)
		cr.Get("/receipts/{year}/{month}", r.tr.GetReceipt)
		cr.Get("/boost", r.tr.GetBoost)
		cr.Get("/bonus", r.tr.GetBonus)
	})

	return cr
}

// implement the Server interface
func (r *Router) Start(port int) error {
	// start the server
	return http.ListenAndServe(fmt.Sprintf(":%v", port), r.Handler())
}
