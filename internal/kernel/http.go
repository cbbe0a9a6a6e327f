// Package kernel assembles the HTTP handler: global middleware, probes and
// the API routes.
package kernel

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/billdesk/app/routes"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/middleware"
	"github.com/shashiranjanraj/billdesk/pkg/reqid"
	"github.com/shashiranjanraj/billdesk/pkg/response"
	"github.com/shashiranjanraj/billdesk/pkg/router"
)

type Options struct {
	CORSOrigins []string
	// RateLimit caps requests per client IP per minute. <= 0 disables it.
	RateLimit int
}

// NewRouter returns the router with every route registered. route:list uses
// it directly; serve takes its Handler.
func NewRouter(svc routes.Services, opts Options) *router.Router {
	r := router.New()

	// Outermost first. The request id must exist before the logger runs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins)))
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	routes.RegisterAPI(r, svc)
	return r
}

func Handler(svc routes.Services, opts Options) http.Handler {
	return NewRouter(svc, opts).Handler()
}
