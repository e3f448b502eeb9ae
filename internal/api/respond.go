package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/simulation"
	"finance-dashboard/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks client errors that do not come from a lower layer.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, metrics.ErrNoProjection):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, errBadRequest),
		errors.Is(err, simulation.ErrInvalidHorizon),
		errors.Is(err, simulation.ErrInvalidDate),
		errors.Is(err, simulation.ErrInvalidFlow):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", requestIDFrom(r.Context())).Error("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
