package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/config"
	"github.com/DoyleJ11/dbd-character-picker/internal/hub"
	"github.com/DoyleJ11/dbd-character-picker/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	Settings config.Settings
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

func SetupRoutes(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	// Public routes
	r.Post("/sessions", CreateSession(d.Hub, d.Settings, logger))
	r.Get("/sessions/{code}", GetSession(d.Hub))
	r.Delete("/sessions/{code}", DeleteSession(d.Hub))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
