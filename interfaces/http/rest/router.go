// Package rest exposes the lineage store over HTTP.
package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lineage-backend/infrastructure/observability"
)

// Handlers groups the HTTP handlers the router mounts
type Handlers struct {
	Nodes        *NodeHandler
	Associations *AssociationHandler
	Lineage      *LineageHandler
}

// NewRouter builds the chi router with the standard middleware stack. The
// metrics collector may be nil, in which case no /metrics endpoint is mounted.
func NewRouter(handlers Handlers, metrics *observability.Collector, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(requestLogger(logger))
	if metrics != nil {
		r.Use(metricsMiddleware(metrics))
		r.Handle("/metrics", metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", handlers.Nodes.Create)
			r.Get("/", handlers.Nodes.List)
			r.Get("/lookup", handlers.Nodes.GetByName)
			r.Route("/{nodeID}", func(r chi.Router) {
				r.Get("/", handlers.Nodes.Get)
				r.Patch("/properties", handlers.Nodes.UpdateProperties)
				r.Delete("/", handlers.Nodes.Delete)
				r.Get("/associations/incoming", handlers.Associations.ListIncoming)
				r.Get("/associations/outgoing", handlers.Associations.ListOutgoing)
				r.Get("/neighbors", handlers.Lineage.Neighbors)
				r.Get("/lineage", handlers.Lineage.Traverse)
			})
		})

		r.Route("/associations", func(r chi.Router) {
			r.Post("/", handlers.Associations.Create)
			r.Delete("/{sourceID}/{destID}", handlers.Associations.Delete)
		})

		r.Delete("/graph", handlers.Nodes.Purge)
	})

	return r
}

// requestLogger logs each request with its status and duration
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("Request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// metricsMiddleware records request counts and latencies per route pattern
func metricsMiddleware(metrics *observability.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
