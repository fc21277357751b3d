// ABOUTME: MCP tool implementations for status types and metrics.
// ABOUTME: Provides registry CRUD, metric entry, and dashboard selection.
package mcp

import (
	"context"
	"fmt"

	"github.com/harperreed/healthstatus/internal/dashboard"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/series"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_status_types",
		Description: "List built-in and custom status types with their thresholds",
	}, s.handleListStatusTypes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_status_type",
		Description: "Define a custom status type with three ascending thresholds",
	}, s.handleAddStatusType)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_status_type",
		Description: "Delete a custom status type (built-in types cannot be deleted)",
	}, s.handleDeleteStatusType)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_metric",
		Description: "Record a reading for a status type on a given day",
	}, s.handleAddMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_metric",
		Description: "Delete a metric record by ID",
	}, s.handleDeleteMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Select a status type and return its 30-day distribution, one-year trend and recent readings",
	}, s.handleGetDashboard)
}

// Tool input/output types

type emptyInput struct{}

type addStatusTypeInput struct {
	Name          string  `json:"name" jsonschema:"Display name; the id is derived from it"`
	Normal        float64 `json:"normal" jsonschema:"Upper bound of the normal range"`
	Elevated      float64 `json:"elevated" jsonschema:"Upper bound of the elevated range"`
	High          float64 `json:"high" jsonschema:"Reference level for the high range"`
	NormalLabel   string  `json:"normal_label" jsonschema:"Label for the normal range"`
	ElevatedLabel string  `json:"elevated_label" jsonschema:"Label for the elevated range"`
	HighLabel     string  `json:"high_label" jsonschema:"Label for the high range"`
}

type statusTypeIDInput struct {
	ID string `json:"id" jsonschema:"Status type ID such as blood-pressure"`
}

type addMetricInput struct {
	StatusType string `json:"status_type" jsonschema:"Status type ID such as blood-pressure or sleep-quality"`
	Value      string `json:"value" jsonschema:"The reading as entered"`
	Date       string `json:"date,omitempty" jsonschema:"Day of the reading (YYYY-MM-DD), defaults to today"`
}

type deleteMetricInput struct {
	ID string `json:"id" jsonschema:"Metric record ID"`
}

type getDashboardInput struct {
	StatusType string `json:"status_type,omitempty" jsonschema:"Status type ID; defaults to the current selection"`
}

type metricOutput struct {
	ID         string `json:"id"`
	StatusType string `json:"status_type"`
	Value      string `json:"value"`
	Date       string `json:"date"`
	Message    string `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// dashboardSummary is the dashboard trimmed for tool output.
type dashboardSummary struct {
	StatusType models.StatusType      `json:"status_type"`
	Buckets    map[string]int         `json:"buckets"`
	MonthCount int                    `json:"month_count"`
	YearCount  int                    `json:"year_count"`
	Trend      series.Line            `json:"trend"`
	Recent     []*models.HealthMetric `json:"recent"`
}

func summarize(d *dashboard.Dashboard) dashboardSummary {
	buckets := make(map[string]int, len(models.AllBuckets))
	for _, b := range models.AllBuckets {
		buckets[d.StatusType.Thresholds.Ranges.Label(b)] = d.Buckets.Count(b)
	}
	return dashboardSummary{
		StatusType: d.StatusType,
		Buckets:    buckets,
		MonthCount: len(d.Month),
		YearCount:  len(d.Year),
		Trend:      d.Line.Primary,
		Recent:     d.Recent,
	}
}

func (s *Server) userID() (string, error) {
	return s.session.UserID()
}

// Tool handlers

func (s *Server) handleListStatusTypes(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, nil, err
	}
	types, err := s.dash.Registry().List(ctx, uid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list status types: %w", err)
	}
	return nil, map[string]any{"status_types": types}, nil
}

func (s *Server) handleAddStatusType(ctx context.Context, req *mcp.CallToolRequest, input addStatusTypeInput) (*mcp.CallToolResult, any, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, nil, err
	}
	st, err := s.dash.Registry().Add(ctx, uid, input.Name, models.ThresholdSet{
		Normal:   input.Normal,
		Elevated: input.Elevated,
		High:     input.High,
		Ranges: models.RangeNames{
			Normal:   input.NormalLabel,
			Elevated: input.ElevatedLabel,
			High:     input.HighLabel,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, st, nil
}

func (s *Server) handleDeleteStatusType(ctx context.Context, req *mcp.CallToolRequest, input statusTypeIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := s.dash.Registry().Remove(ctx, uid, input.ID); err != nil {
		return nil, simpleOutput{}, err
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted status type: %s", input.ID)}, nil
}

func (s *Server) handleAddMetric(ctx context.Context, req *mcp.CallToolRequest, input addMetricInput) (*mcp.CallToolResult, metricOutput, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, metricOutput{}, err
	}
	if _, err := s.dash.Registry().Resolve(ctx, uid, input.StatusType); err != nil {
		return nil, metricOutput{}, err
	}

	m := s.dash.Metrics()
	date := input.Date
	if date == "" {
		date = m.Today()
	}
	rec, err := m.AddMetric(ctx, uid, input.StatusType, input.Value, date)
	if err != nil {
		return nil, metricOutput{}, err
	}

	// Keep the current selection in step with the new record.
	if v, err := s.currentView(); err == nil && v.Selected() == input.StatusType {
		if _, err := v.Refresh(ctx); err != nil {
			s.logger.Debug("refresh after add failed", zap.Error(err))
		}
	}

	day := rec.Timestamp.In(m.Location()).Format("2006-01-02")
	return nil, metricOutput{
		ID:         rec.ID,
		StatusType: rec.Type,
		Value:      rec.Value,
		Date:       day,
		Message:    fmt.Sprintf("Added %s: %s on %s (ID: %s)", models.DisplayName(rec.Type), rec.Value, day, rec.ID),
	}, nil
}

func (s *Server) handleDeleteMetric(ctx context.Context, req *mcp.CallToolRequest, input deleteMetricInput) (*mcp.CallToolResult, simpleOutput, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := s.dash.Metrics().DeleteMetric(ctx, uid, input.ID); err != nil {
		return nil, simpleOutput{}, err
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted metric: %s", input.ID)}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, req *mcp.CallToolRequest, input getDashboardInput) (*mcp.CallToolResult, any, error) {
	v, err := s.currentView()
	if err != nil {
		return nil, nil, err
	}

	var d *dashboard.Dashboard
	switch {
	case input.StatusType != "":
		d, err = v.Select(ctx, input.StatusType)
	case v.Selected() != "":
		d, err = v.Refresh(ctx)
	default:
		d, err = v.Select(ctx, models.StatusBloodPressure)
	}
	if err != nil {
		return nil, nil, err
	}
	return nil, summarize(d), nil
}
