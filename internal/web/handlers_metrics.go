// ABOUTME: Status type, metric and chart handlers.
// ABOUTME: Charts are rendered on request from the same dashboard data the JSON view returns.
package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/harperreed/healthstatus/internal/charts"
	"github.com/harperreed/healthstatus/internal/models"
)

type statusTypeRequest struct {
	Name       string              `json:"name"`
	Thresholds models.ThresholdSet `json:"thresholds"`
}

type metricRequest struct {
	Value string `json:"value"`
	Date  string `json:"date"`
}

func (s *Server) handleListStatusTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.dash.Registry().List(r.Context(), currentUserID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleAddStatusType(w http.ResponseWriter, r *http.Request) {
	var req statusTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.dash.Registry().Add(r.Context(), currentUserID(r), req.Name, req.Thresholds)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleRemoveStatusType(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Registry().Remove(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dash.Load(r.Context(), currentUserID(r), chi.URLParam(r, "type"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleAddMetric stores a reading. A blank date means today.
func (s *Server) handleAddMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	uid := currentUserID(r)
	typeID := chi.URLParam(r, "type")

	if _, err := s.dash.Registry().Resolve(ctx, uid, typeID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	m := s.dash.Metrics()
	date := req.Date
	if strings.TrimSpace(date) == "" {
		date = m.Today()
	}
	rec, err := m.AddMetric(ctx, uid, typeID, req.Value, date)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Metrics().DeleteMetric(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChart renders {bar|line}.{png|svg}.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, ext, ok := strings.Cut(chi.URLParam(r, "chart"), ".")
	if !ok {
		writeJSONError(w, "chart must be bar.png, bar.svg, line.png or line.svg", http.StatusBadRequest)
		return
	}
	format, err := charts.ParseFormat(ext)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := s.dash.Load(r.Context(), currentUserID(r), chi.URLParam(r, "type"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var buf bytes.Buffer
	switch kind {
	case "bar":
		err = charts.RenderBar(&buf, d.StatusType.Name, d.StatusType.Thresholds, d.Buckets, format)
	case "line":
		err = charts.RenderLine(&buf, d.Line, format)
	default:
		writeJSONError(w, fmt.Sprintf("unknown chart %q", kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
