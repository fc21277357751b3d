// ABOUTME: Email/password identity provider over the document store.
// ABOUTME: Handles sign-up, sign-in with throttling, sign-out, and password change.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/sanitize"
	"github.com/harperreed/healthstatus/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var (
	// ErrAuthFailure is the generic rejection for bad credentials.
	ErrAuthFailure = errors.New("failed to sign in")
	// ErrEmailInUse is returned by SignUp for a registered email.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidEmail is returned by SignUp for a malformed email.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword is returned when a password fails the rules.
	ErrWeakPassword = errors.New("password does not meet requirements")
	// ErrNotSignedIn is returned when an operation needs a signed-in user.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrTooManyAttempts is returned when sign-in attempts for an email are throttled.
	ErrTooManyAttempts = errors.New("too many sign-in attempts, try again later")
)

// Default sign-in throttle: a burst of 5, then one attempt every 12 seconds.
const (
	DefaultAttemptBurst    = 5
	DefaultAttemptInterval = 12 * time.Second
)

// Provider authenticates users against accounts in the store.
type Provider struct {
	store  storage.Store
	logger *zap.Logger
	cost   int

	limit rate.Limit
	burst int

	now func() time.Time

	mu        sync.Mutex
	limiters  map[string]*attemptLimiter
	lastSweep time.Time
}

// attemptLimiter is one email's throttle and when it was last used.
type attemptLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithBcryptCost sets the bcrypt cost. Values outside bcrypt's range use the default.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

// WithAttemptLimit sets the per-email sign-in throttle.
func WithAttemptLimit(every time.Duration, burst int) Option {
	return func(p *Provider) {
		p.limit = rate.Every(every)
		p.burst = burst
	}
}

// NewProvider creates a Provider.
func NewProvider(store storage.Store, logger *zap.Logger, opts ...Option) *Provider {
	p := &Provider{
		store:    store,
		logger:   logging.OrNop(logger),
		cost:     bcrypt.DefaultCost,
		limit:    rate.Every(DefaultAttemptInterval),
		burst:    DefaultAttemptBurst,
		now:      time.Now,
		limiters: make(map[string]*attemptLimiter),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NormalizeEmail trims and lowercases an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and profile, then signs the session in.
func (p *Provider) SignUp(ctx context.Context, sess *Session, email, password, name string) (*User, error) {
	email = NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password, p.cost)
	if err != nil {
		return nil, err
	}

	acct := models.NewAccount(email, hash)
	if err := p.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		p.logger.Error("create account failed", zap.Error(err))
		return nil, fmt.Errorf("sign up: %w", err)
	}

	// The account exists from here on; a missing profile is written again at sign-in.
	name = sanitize.PlainText(name)
	if err := p.store.SaveProfile(ctx, acct.UserID, models.ProfileUpdate{Email: &email, Name: &name}); err != nil {
		p.logger.Warn("create profile failed", zap.String("user_id", acct.UserID), zap.Error(err))
	}

	u := &User{ID: acct.UserID, Email: email}
	sess.set(u)
	p.logger.Info("user signed up", zap.String("user_id", u.ID))
	return u, nil
}

// SignIn checks credentials and signs the session in. Every credential
// problem returns the same ErrAuthFailure.
func (p *Provider) SignIn(ctx context.Context, sess *Session, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if !p.allow(email) {
		p.logger.Warn("sign-in throttled", zap.String("email", email))
		return nil, ErrTooManyAttempts
	}

	acct, err := p.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAuthFailure
		}
		p.logger.Error("load account failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	if !checkPassword(password, acct.PasswordHash) {
		return nil, ErrAuthFailure
	}

	p.mu.Lock()
	delete(p.limiters, email)
	p.mu.Unlock()

	p.ensureProfile(ctx, acct)

	u := &User{ID: acct.UserID, Email: acct.Email}
	sess.set(u)
	p.logger.Info("user signed in", zap.String("user_id", u.ID))
	return u, nil
}

// SignOut clears the session.
func (p *Provider) SignOut(sess *Session) {
	if u := sess.Current(); u != nil {
		p.logger.Info("user signed out", zap.String("user_id", u.ID))
	}
	sess.set(nil)
}

// Reauthenticate confirms the signed-in user's password.
func (p *Provider) Reauthenticate(ctx context.Context, sess *Session, password string) error {
	u := sess.Current()
	if u == nil {
		return ErrNotSignedIn
	}
	acct, err := p.store.GetAccount(ctx, u.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAuthFailure
		}
		p.logger.Error("load account failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	if !checkPassword(password, acct.PasswordHash) {
		return ErrAuthFailure
	}
	return nil
}

// UpdatePassword reauthenticates with current and replaces it with next.
func (p *Provider) UpdatePassword(ctx context.Context, sess *Session, current, next string) error {
	if err := p.Reauthenticate(ctx, sess, current); err != nil {
		return err
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := hashPassword(next, p.cost)
	if err != nil {
		return err
	}

	u := sess.Current()
	if u == nil {
		return ErrNotSignedIn
	}
	if err := p.store.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		p.logger.Error("update password failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("update password: %w", err)
	}
	p.logger.Info("password updated", zap.String("user_id", u.ID))
	return nil
}

// Lookup loads the user for a persisted session id.
func (p *Provider) Lookup(ctx context.Context, userID string) (*User, error) {
	acct, err := p.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &User{ID: acct.UserID, Email: acct.Email}, nil
}

// ensureProfile merge-writes the email into a profile that sign-up failed to create.
func (p *Provider) ensureProfile(ctx context.Context, acct *models.Account) {
	_, err := p.store.GetProfile(ctx, acct.UserID)
	if err == nil {
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("load profile failed", zap.String("user_id", acct.UserID), zap.Error(err))
		return
	}
	email := acct.Email
	if err := p.store.SaveProfile(ctx, acct.UserID, models.ProfileUpdate{Email: &email}); err != nil {
		p.logger.Warn("restore profile failed", zap.String("user_id", acct.UserID), zap.Error(err))
	}
}

// allow takes one sign-in attempt from email's limiter.
func (p *Provider) allow(email string) bool {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweepLocked(now)
	a, ok := p.limiters[email]
	if !ok {
		a = &attemptLimiter{lim: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[email] = a
	}
	a.lastSeen = now
	return a.lim.AllowN(now, 1)
}

// sweepLocked drops limiters idle long enough to have refilled completely.
// Dropping those is the same as keeping them. Callers hold p.mu.
func (p *Provider) sweepLocked(now time.Time) {
	idle := p.refillTime()
	if now.Sub(p.lastSweep) < idle {
		return
	}
	for email, a := range p.limiters {
		if now.Sub(a.lastSeen) >= idle {
			delete(p.limiters, email)
		}
	}
	p.lastSweep = now
}

// refillTime is how long an unused limiter takes to regain its full burst.
func (p *Provider) refillTime() time.Duration {
	if p.limit == rate.Inf {
		return 0
	}
	if p.limit <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(float64(p.burst) / float64(p.limit) * float64(time.Second))
}
