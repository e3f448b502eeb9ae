// Package main runs the forecast service:
// - HTTP API (metrics engine, forecasts, snapshots, websocket stream)
// - Forecast (scheduled): projection → metrics snapshot → risk alerts
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"finance-dashboard/internal/api"
	"finance-dashboard/internal/bootstrap"
	"finance-dashboard/internal/config"
	"finance-dashboard/internal/logging"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/observability"
	"finance-dashboard/internal/orchestrator"
)

// Server holds the scheduled forecast state.
type Server struct {
	orch *orchestrator.Orchestrator
	log  logrus.FieldLogger

	// State
	mu           sync.Mutex
	started      time.Time
	lastRun      time.Time
	lastErr      string
	forecastRuns int
	running      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Config{}).WithError(err).Fatal("invalid configuration")
	}

	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logger.WithField("service", cfg.OTel.ServiceName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName,
		Insecure:    cfg.OTel.Insecure,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to set up tracing")
	}

	stores, cleanup, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create stores")
	}

	notifier, err := bootstrap.NewNotifier(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create notifier")
	}

	scenarios, _ := cfg.ScenarioConfigs() // validated by config.Load
	engine := metrics.NewEngine(cfg.MetricsThresholds())
	hub := api.NewHub(log)
	m := observability.DefaultMetrics

	orch := orchestrator.New(orchestrator.Options{
		AccountStore:    stores.Accounts,
		FlowStore:       stores.Flows,
		ProjectionStore: stores.Projections,
		SnapshotStore:   stores.Snapshots,
		Rates:           bootstrap.NewRates(cfg, log, m),
		BaseCurrency:    cfg.Rates.Base,
		Engine:          engine,
		ScenarioConfigs: scenarios,
		HorizonDays:     cfg.Forecast.HorizonDays,
		Notifier:        notifier,
		OnSnapshot:      hub.Publish,
		Metrics:         m,
		Logger:          log.WithField("component", "orchestrator"),
	})

	server := &Server{orch: orch, log: log, started: time.Now()}

	// Forecast scheduler
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{log.WithField("component", "cron")}),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)
	if _, err := scheduler.AddFunc(cfg.Forecast.Cron, func() { server.runForecast(ctx) }); err != nil {
		log.WithError(err).WithField("spec", cfg.Forecast.Cron).Fatal("invalid forecast schedule")
	}
	scheduler.Start()

	// Initial forecast so the dashboard has data right away
	go server.runForecast(ctx)

	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.Options{
			Accounts:        stores.Accounts,
			Flows:           stores.Flows,
			Snapshots:       stores.Snapshots,
			Orchestrator:    orch,
			Engine:          engine,
			Hub:             hub,
			DefaultScenario: scenarios[0].ScenarioID,
			DefaultHorizon:  cfg.Forecast.HorizonDays,
			Rate:            cfg.HTTP.Rate,
			Burst:           cfg.HTTP.Burst,
			Status:          func() interface{} { return server.status() },
			Metrics:         m,
			Logger:          log.WithField("component", "api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	failed := false
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal, initiating graceful shutdown")
	case err := <-errCh:
		log.WithError(err).Error("HTTP server error")
		failed = true
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("forecast run still in progress at shutdown")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown failed")
	}

	cleanup()
	log.Info("shutdown complete")
	if failed {
		os.Exit(1)
	}
}

// runForecast executes one orchestrator run and records its outcome.
func (s *Server) runForecast(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Info("forecast already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.orch.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
	s.forecastRuns++
	s.lastErr = ""

	switch {
	case err != nil:
		s.lastErr = err.Error()
		s.log.WithError(err).Error("forecast run failed")
	case len(result.Errors) > 0:
		s.lastErr = result.Errors[0]
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Started         time.Time `json:"started"`
	LastForecastRun time.Time `json:"last_forecast_run,omitempty"`
	ForecastRuns    int       `json:"forecast_runs"`
	ForecastRunning bool      `json:"forecast_running"`
	LastError       string    `json:"last_error,omitempty"`
	LastAsOf        string    `json:"last_as_of,omitempty"`
	LastSnapshots   int       `json:"last_snapshots"`
	LastAlerts      int       `json:"last_alerts"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Started:         s.started,
		LastForecastRun: s.lastRun,
		ForecastRuns:    s.forecastRuns,
		ForecastRunning: s.running,
		LastError:       s.lastErr,
	}
	if last := s.orch.LastResult(); last != nil {
		resp.LastAsOf = last.AsOf
		resp.LastSnapshots = last.SnapshotsCreated
		resp.LastAlerts = last.AlertsSent
	}
	return resp
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
