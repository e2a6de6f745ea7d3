// Package httpapi serves the HTTP control surface: a producer endpoint, a
// region snapshot for web renderers, a live event stream and the
// Prometheus scrape endpoint.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/notify"
)

// Deps are the collaborators the routes need. Gatherer may be nil when
// metrics are disabled. Without AllowedOrigins no CORS headers are sent.
type Deps struct {
	Notifier       *notify.Notifier
	Regions        *display.Regions
	Stream         *Stream
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RequestSize(1 << 20))
	r.Use(requestLogger(d.Logger))
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	h := &handler{notifier: d.Notifier, regions: d.Regions, logger: d.Logger}

	r.Get("/health", h.health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/notifications", h.create)
		r.Delete("/notifications", h.clear)
		r.Delete("/notifications/{id}", h.dismiss)
		r.Get("/regions", h.listRegions)
		if d.Stream != nil {
			d.Stream.SetAllowedOrigins(d.AllowedOrigins)
			r.Get("/events", d.Stream.ServeHTTP)
		}
	})

	return r
}
