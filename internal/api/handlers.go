package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/lookup"
	"finance-dashboard/internal/simulation"
	"finance-dashboard/internal/storage"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

// handleComputeMetrics runs the engine over a posted balance series.
func (s *Server) handleComputeMetrics(w http.ResponseWriter, r *http.Request) {
	var points domain.BalanceSeries
	if err := decodeBody(w, r, &points); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Compute(points))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.accounts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var acc domain.Account
	if err := decodeBody(w, r, &acc); err != nil {
		s.writeError(w, r, err)
		return
	}

	if acc.AccountID == "" {
		acc.AccountID = uuid.NewString()
	}
	if acc.Kind == "" {
		acc.Kind = domain.AccountChecking
	}
	acc.Currency = strings.ToUpper(acc.Currency)
	if !acc.Kind.IsValid() || len(acc.Currency) != 3 || acc.Name == "" {
		s.writeError(w, r, fmt.Errorf("%w: name, kind and 3-letter currency are required", storage.ErrInvalidInput))
		return
	}
	acc.CreatedAt = s.now().UnixMilli()

	if err := s.accounts.Insert(r.Context(), &acc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]
	if _, err := s.accounts.GetByID(r.Context(), accountID); err != nil {
		s.writeError(w, r, err)
		return
	}

	flows, err := s.flows.GetByAccount(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if flows == nil {
		flows = []*domain.ScheduledFlow{}
	}
	writeJSON(w, http.StatusOK, flows)
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]
	if _, err := s.accounts.GetByID(r.Context(), accountID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var f domain.ScheduledFlow
	if err := decodeBody(w, r, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	f.AccountID = accountID
	if f.FlowID == "" {
		f.FlowID = uuid.NewString()
	}
	f.Currency = strings.ToUpper(f.Currency)

	// Validates frequency and dates
	if _, err := simulation.Occurs(&f, f.StartDate); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Amount == 0 {
		s.writeError(w, r, fmt.Errorf("%w: amount must be non-zero", storage.ErrInvalidInput))
		return
	}

	if err := s.flows.Insert(r.Context(), &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.flows.Delete(r.Context(), mux.Vars(r)["flowId"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForecastResponse is a live projection with its metrics.
type ForecastResponse struct {
	AccountID   string                 `json:"accountId"`
	ScenarioID  string                 `json:"scenarioId"`
	AsOf        string                 `json:"asOf"`
	Points      []ForecastPoint        `json:"points"`
	Metrics     domain.CashFlowMetrics `json:"metrics"`
	Checkpoints []CheckpointResponse   `json:"checkpoints"`
}

// ForecastPoint is one projected day.
type ForecastPoint struct {
	Date    string  `json:"date"`
	Total   float64 `json:"total"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

// CheckpointResponse is the projected balance at a day offset.
type CheckpointResponse struct {
	OffsetDays int      `json:"offsetDays"`
	Date       string   `json:"date"`
	Total      *float64 `json:"total"` // null past the horizon
}

// handleForecast projects an account without persisting the run.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]

	scenario, err := s.scenarioParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	horizon := s.defaultHorizon
	if h := r.URL.Query().Get("horizon"); h != "" {
		horizon, err = strconv.Atoi(h)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: horizon must be an integer", errBadRequest))
			return
		}
	}

	asOf := s.now().UTC().Format(domain.DateLayout)
	points, err := s.orch.Runner().Preview(r.Context(), accountID, scenario, asOf, horizon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	series := points.Series()
	resp := ForecastResponse{
		AccountID:  accountID,
		ScenarioID: scenario.ScenarioID,
		AsOf:       asOf,
		Points:     make([]ForecastPoint, 0, len(points)),
		Metrics:    s.engine.Compute(series),
	}
	for _, p := range points {
		resp.Points = append(resp.Points, ForecastPoint{Date: p.Date, Total: p.Total, Inflow: p.Inflow, Outflow: p.Outflow})
	}

	cps, err := lookup.Checkpoints(series, lookup.DefaultCheckpointOffsets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, cp := range cps {
		c := CheckpointResponse{OffsetDays: cp.OffsetDays, Date: cp.Date}
		if cp.Found {
			total := cp.Total
			c.Total = &total
		}
		resp.Checkpoints = append(resp.Checkpoints, c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// SnapshotResponse is a stored metrics snapshot.
type SnapshotResponse struct {
	SnapshotID  string                 `json:"snapshotId"`
	AccountID   string                 `json:"accountId"`
	ScenarioID  string                 `json:"scenarioId"`
	AsOf        string                 `json:"asOf"`
	HorizonDays int                    `json:"horizonDays"`
	Metrics     domain.CashFlowMetrics `json:"metrics"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func toSnapshotResponse(s *domain.MetricsSnapshot) SnapshotResponse {
	return SnapshotResponse{
		SnapshotID:  s.SnapshotID,
		AccountID:   s.AccountID,
		ScenarioID:  s.ScenarioID,
		AsOf:        s.AsOf,
		HorizonDays: s.HorizonDays,
		Metrics:     s.Metrics,
		CreatedAt:   time.UnixMilli(s.CreatedAt).UTC(),
	}
}

func (s *Server) handleLatestMetrics(w http.ResponseWriter, r *http.Request) {
	scenario, err := s.scenarioParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.snapshots.GetLatest(r.Context(), mux.Vars(r)["id"], scenario.ScenarioID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

func (s *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	scenario, err := s.scenarioParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" {
		from = "0001-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: dates must be YYYY-MM-DD, got %q", errBadRequest, d))
			return
		}
	}

	history, err := s.snapshots.GetHistory(r.Context(), mux.Vars(r)["id"], scenario.ScenarioID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]SnapshotResponse, 0, len(history))
	for _, snap := range history {
		resp = append(resp, toSnapshotResponse(snap))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshResponse reports a single-account forecast run.
type RefreshResponse struct {
	AccountID string             `json:"accountId"`
	AsOf      string             `json:"asOf"`
	Snapshots []SnapshotResponse `json:"snapshots"`
	Reused    int                `json:"reused"`
	Errors    []string           `json:"errors"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]

	result, err := s.orch.RunAccount(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := RefreshResponse{
		AccountID: accountID,
		AsOf:      result.AsOf,
		Snapshots: make([]SnapshotResponse, 0, len(result.Snapshots)),
		Reused:    result.ProjectionsReused,
		Errors:    result.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	for _, snap := range result.Snapshots {
		resp.Snapshots = append(resp.Snapshots, toSnapshotResponse(snap))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) scenarioParam(r *http.Request) (domain.ScenarioConfig, error) {
	id := r.URL.Query().Get("scenario")
	if id == "" {
		id = s.defaultScenario
	}
	sc, ok := domain.ScenarioByID(id)
	if !ok {
		return domain.ScenarioConfig{}, fmt.Errorf("%w: unknown scenario %q", errBadRequest, id)
	}
	return sc, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}
