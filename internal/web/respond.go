// ABOUTME: JSON response helpers and error-to-status mapping.
// ABOUTME: Server-side failures are logged; clients get user-facing messages only.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/charts"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/harperreed/healthstatus/internal/storage"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// errorStatuses maps taxonomy errors to HTTP status codes. Order matters:
// the first match wins.
var errorStatuses = []struct {
	err    error
	code   int
	detail bool // include the full error text
}{
	{models.ErrInvalidThresholds, http.StatusBadRequest, true},
	{registry.ErrInvalidName, http.StatusBadRequest, true},
	{metrics.ErrInvalidDate, http.StatusBadRequest, true},
	{metrics.ErrValueRequired, http.StatusBadRequest, true},
	{auth.ErrWeakPassword, http.StatusBadRequest, true},
	{auth.ErrInvalidEmail, http.StatusBadRequest, false},
	{auth.ErrAuthFailure, http.StatusUnauthorized, false},
	{auth.ErrNotSignedIn, http.StatusUnauthorized, false},
	{registry.ErrDuplicateID, http.StatusConflict, true},
	{registry.ErrProtectedEntity, http.StatusConflict, true},
	{auth.ErrEmailInUse, http.StatusConflict, false},
	{registry.ErrUnknownStatusType, http.StatusNotFound, true},
	{storage.ErrNotFound, http.StatusNotFound, false},
	{charts.ErrNoData, http.StatusNotFound, false},
	{auth.ErrTooManyAttempts, http.StatusTooManyRequests, false},
	{metrics.ErrMetricFetchFailed, http.StatusBadGateway, false},
	{metrics.ErrMetricWriteFailed, http.StatusBadGateway, false},
}

// writeErr maps err to a status code and message.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}
		msg := e.err.Error()
		if e.detail {
			msg = err.Error()
		}
		if e.code >= 500 {
			s.logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		writeJSONError(w, msg, e.code)
		return
	}

	s.logger.Error("unhandled error",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeJSONError(w, "internal server error", http.StatusInternalServerError)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return false
	}
	return true
}
