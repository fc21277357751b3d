// ABOUTME: MCP resource implementations for the health status tracker.
// ABOUTME: Provides healthstatus://status-types and per-type and current dashboard resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/healthstatus/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	statusTypesURI      = "healthstatus://status-types"
	currentDashboardURI = "healthstatus://dashboard/current"
	dashboardURIPrefix  = "healthstatus://dashboard/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         statusTypesURI,
		Name:        "Status Types",
		Description: "Built-in and custom status types with thresholds",
		MIMEType:    "application/json",
	}, s.handleStatusTypesResource)

	for _, st := range models.BuiltinStatusTypes() {
		uri := dashboardURIPrefix + st.ID
		s.mcpServer.AddResource(&mcp.Resource{
			URI:         uri,
			Name:        st.Name + " Dashboard",
			Description: fmt.Sprintf("30-day distribution and one-year trend for %s", models.DisplayName(st.ID)),
			MIMEType:    "application/json",
		}, s.dashboardResource(st.ID, uri))
	}

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         currentDashboardURI,
		Name:        "Current Dashboard",
		Description: "Dashboard for the status type last selected with get_dashboard",
		MIMEType:    "application/json",
	}, s.handleCurrentDashboardResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// Resource handlers

func (s *Server) handleStatusTypesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	types, err := s.dash.Registry().List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list status types: %w", err)
	}
	return jsonResource(statusTypesURI, map[string]any{"status_types": types})
}

func (s *Server) dashboardResource(typeID, uri string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uid, err := s.userID()
		if err != nil {
			return nil, err
		}
		d, err := s.dash.Load(ctx, uid, typeID)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, summarize(d))
	}
}

func (s *Server) handleCurrentDashboardResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	v, err := s.currentView()
	if err != nil {
		return nil, err
	}
	d := v.Current()
	if d == nil {
		return jsonResource(currentDashboardURI, map[string]string{
			"message": "No status type selected. Call get_dashboard first.",
		})
	}
	return jsonResource(currentDashboardURI, summarize(d))
}
