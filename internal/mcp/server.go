// ABOUTME: MCP server setup for the health status tracker.
// ABOUTME: Tools and resources act for the user signed in on the given session.
package mcp

import (
	"context"
	"sync"

	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/dashboard"
	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Server wraps the MCP server with dashboard access.
type Server struct {
	mcpServer *mcp.Server
	dash      *dashboard.Service
	session   *auth.Session
	logger    *zap.Logger

	mu          sync.Mutex
	view        *dashboard.View
	unsubscribe func()
}

// NewServer creates a new MCP server bound to sess.
func NewServer(dash *dashboard.Service, sess *auth.Session, logger *zap.Logger) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "healthstatus",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		dash:      dash,
		session:   sess,
		logger:    logging.OrNop(logger),
	}
	s.resetView(sess.Current())
	s.unsubscribe = sess.Subscribe(s.resetView)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	defer s.unsubscribe()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// resetView drops the selection when the signed-in user changes.
func (s *Server) resetView(u *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.view = nil
		return
	}
	s.view = dashboard.NewView(s.dash, u.ID)
}

// currentView returns the view for the signed-in user.
func (s *Server) currentView() (*dashboard.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return nil, auth.ErrNotSignedIn
	}
	return s.view, nil
}
