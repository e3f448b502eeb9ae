// Package api exposes forecasts and the metrics engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/logging"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/observability"
	"finance-dashboard/internal/orchestrator"
	"finance-dashboard/internal/storage"
)

// Options wires the API to stores and services.
type Options struct {
	Accounts  storage.AccountStore
	Flows     storage.ScheduledFlowStore
	Snapshots storage.MetricsSnapshotStore

	Orchestrator *orchestrator.Orchestrator
	Engine       metrics.Engine
	Hub          *Hub // nil disables /v1/stream

	DefaultScenario string
	DefaultHorizon  int

	// Token bucket shared by all clients; zero Rate disables limiting
	Rate  float64
	Burst int

	Status  func() interface{} // body of GET /status
	Metrics *observability.Metrics
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

// Server holds handler dependencies.
type Server struct {
	accounts  storage.AccountStore
	flows     storage.ScheduledFlowStore
	snapshots storage.MetricsSnapshotStore
	orch      *orchestrator.Orchestrator
	engine    metrics.Engine
	hub       *Hub

	defaultScenario string
	defaultHorizon  int

	status  func() interface{}
	metrics *observability.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(opts Options) http.Handler {
	s := &Server{
		accounts:        opts.Accounts,
		flows:           opts.Flows,
		snapshots:       opts.Snapshots,
		orch:            opts.Orchestrator,
		engine:          opts.Engine,
		hub:             opts.Hub,
		defaultScenario: opts.DefaultScenario,
		defaultHorizon:  opts.DefaultHorizon,
		status:          opts.Status,
		metrics:         opts.Metrics,
		log:             opts.Logger,
		now:             opts.Now,
	}
	if s.engine == (metrics.Engine{}) {
		s.engine = metrics.NewEngine(metrics.DefaultThresholds())
	}
	if s.defaultScenario == "" {
		s.defaultScenario = domain.ScenarioBaseline
	}
	if s.defaultHorizon <= 0 {
		s.defaultHorizon = 90
	}
	if s.metrics == nil {
		s.metrics = observability.DefaultMetrics
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.loggingMiddleware)

	// Operational endpoints are not rate limited
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		v1.Use(s.rateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.Rate), burst)))
	}

	v1.HandleFunc("/metrics", s.handleComputeMetrics).Methods(http.MethodPost)

	v1.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/flows", s.handleListFlows).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/flows", s.handleCreateFlow).Methods(http.MethodPost)
	v1.HandleFunc("/flows/{flowId}", s.handleDeleteFlow).Methods(http.MethodDelete)

	v1.HandleFunc("/accounts/{id}/forecast", s.handleForecast).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/metrics", s.handleLatestMetrics).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/metrics/history", s.handleMetricsHistory).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/refresh", s.handleRefresh).Methods(http.MethodPost)

	if s.hub != nil {
		v1.Handle("/stream", s.hub)
	}

	// Subrouters do not inherit these from the parent
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	for _, router := range []*mux.Router{r, v1} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}

	return r
}
