// ABOUTME: Cookie-backed request sessions.
// ABOUTME: Each request gets an auth.Session; sign-in/out changes are written back to the cookie.
package web

import (
	"context"
	"net/http"

	"github.com/harperreed/healthstatus/internal/auth"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

type ctxKey string

const sessionCtxKey ctxKey = "session"

func withSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

// sessionFrom returns the request's session. loadSession always sets one.
func sessionFrom(r *http.Request) *auth.Session {
	if sess, ok := r.Context().Value(sessionCtxKey).(*auth.Session); ok {
		return sess
	}
	return auth.NewSession()
}

// currentUserID returns the signed-in user's id.
func currentUserID(r *http.Request) string {
	if u := sessionFrom(r).Current(); u != nil {
		return u.ID
	}
	return ""
}

// loadSession restores the signed-in user from the cookie and persists changes.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs, err := s.cookies.Get(r, sessionName)
		if err != nil {
			s.logger.Debug("session cookie invalid, starting fresh", zap.Error(err))
		}

		sess := auth.NewSession()
		if uid, _ := cs.Values[userIDKey].(string); uid != "" {
			u, err := s.auth.Lookup(r.Context(), uid)
			if err == nil {
				sess.Restore(u)
			} else {
				s.logger.Info("session invalidated", zap.String("user_id", uid), zap.Error(err))
			}
		}

		unsubscribe := sess.Subscribe(func(u *auth.User) {
			if u == nil {
				delete(cs.Values, userIDKey)
				cs.Options.MaxAge = -1
			} else {
				cs.Values[userIDKey] = u.ID
				cs.Options.MaxAge = int(s.cfg.SessionAge.Seconds())
			}
			if err := cs.Save(r, w); err != nil {
				s.logger.Error("save session cookie failed", zap.Error(err))
			}
		})
		defer unsubscribe()

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// requireUser rejects requests without a signed-in user.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUserID(r) == "" {
			writeJSONError(w, auth.ErrNotSignedIn.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
