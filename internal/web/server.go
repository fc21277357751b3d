// ABOUTME: JSON HTTP API for the health status tracker.
// ABOUTME: chi router with cookie sessions, optional CSRF, and zap request logging.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/dashboard"
	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/harperreed/healthstatus/internal/storage"
	"go.uber.org/zap"
)

// Defaults for the HTTP server.
const (
	DefaultAddr       = "127.0.0.1:8080"
	DefaultSessionAge = 30 * 24 * time.Hour
	sessionName       = "healthstatus_session"
	csrfCookieName    = "healthstatus_csrf"
)

// Config holds HTTP server settings.
type Config struct {
	Addr          string
	SessionKey    []byte // signing key; generated when empty
	CSRFKey       []byte // 32 bytes; generated when empty
	SecureCookies bool
	CSRF          bool
	SessionAge    time.Duration
}

// Deps are the services the handlers call.
type Deps struct {
	Store     storage.Store
	Auth      *auth.Provider
	Dashboard *dashboard.Service
	Logger    *zap.Logger
}

// Server serves the JSON API.
type Server struct {
	cfg     Config
	store   storage.Store
	auth    *auth.Provider
	dash    *dashboard.Service
	logger  *zap.Logger
	cookies *sessions.CookieStore
	router  chi.Router
}

// New builds a Server and its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	logger := logging.OrNop(deps.Logger)
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.SessionAge == 0 {
		cfg.SessionAge = DefaultSessionAge
	}
	if len(cfg.SessionKey) == 0 {
		cfg.SessionKey = securecookie.GenerateRandomKey(32)
		if cfg.SessionKey == nil {
			return nil, errors.New("generate session key")
		}
		logger.Warn("no session key configured; sessions will not survive a restart")
	}
	if cfg.CSRF && len(cfg.CSRFKey) != 32 {
		cfg.CSRFKey = securecookie.GenerateRandomKey(32)
		if cfg.CSRFKey == nil {
			return nil, errors.New("generate csrf key")
		}
	}

	cookies := sessions.NewCookieStore(cfg.SessionKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionAge.Seconds()),
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		cfg:     cfg,
		store:   deps.Store,
		auth:    deps.Auth,
		dash:    deps.Dashboard,
		logger:  logger,
		cookies: cookies,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	if s.cfg.CSRF {
		if !s.cfg.SecureCookies {
			r.Use(plaintextHTTP)
		}
		r.Use(csrf.Protect(s.cfg.CSRFKey,
			csrf.Secure(s.cfg.SecureCookies),
			csrf.Path("/"),
			csrf.CookieName(csrfCookieName),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				s.logger.Warn("CSRF validation failed",
					zap.String("path", req.URL.Path),
					zap.String("method", req.Method),
					zap.NamedError("reason", csrf.FailureReason(req)))
				writeJSONError(w, "CSRF token invalid or missing", http.StatusForbidden)
			})),
		))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.loadSession)

		r.Get("/csrf", s.handleCSRFToken)
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/password", s.handleChangePassword)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)

			r.Get("/status-types", s.handleListStatusTypes)
			r.Post("/status-types", s.handleAddStatusType)
			r.Delete("/status-types/{id}", s.handleRemoveStatusType)

			r.Get("/metrics/{type}/dashboard", s.handleDashboard)
			r.Post("/metrics/{type}", s.handleAddMetric)
			r.Get("/metrics/{type}/charts/{chart}", s.handleChart)
			r.Delete("/records/{id}", s.handleDeleteMetric)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// plaintextHTTP marks requests as plain HTTP so CSRF origin checks do not
// require a TLS referer.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if ww.Status() >= 500 {
				logger.Error("http request", fields...)
				return
			}
			logger.Debug("http request", fields...)
		})
	}
}
