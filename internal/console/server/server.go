package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/vms-retention/internal/console/handler"
	"github.com/xela07ax/vms-retention/internal/infra"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router   *chi.Mux
	logger   *zap.Logger
	cfg      infra.ServerConfig
	gatherer prometheus.Gatherer

	retentionHandler *handler.RetentionPolicyHandler // /v1/retention-policies
}

// NewConsoleServer собирает админский API реестра политик хранения
func NewConsoleServer(
	cfg infra.ServerConfig,
	logger *zap.Logger,
	gatherer prometheus.Gatherer,
	retentionH *handler.RetentionPolicyHandler,
) *ConsoleServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &ConsoleServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("console-api"),
		cfg:              cfg,
		gatherer:         gatherer,
		retentionHandler: retentionH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// служебные роуты не ограничиваются
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))

		r.Route("/v1/retention-policies", func(r chi.Router) {
			r.Get("/", s.retentionHandler.List)
			r.Post("/", s.retentionHandler.Create)
			r.Get("/active", s.retentionHandler.ListActive)
			r.Get("/tables/{table}", s.retentionHandler.ForTable)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.retentionHandler.Get)
				r.Put("/", s.retentionHandler.Update)
				r.Delete("/", s.retentionHandler.Delete)
			})
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
