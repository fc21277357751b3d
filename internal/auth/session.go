// ABOUTME: Explicit session object holding the signed-in user.
// ABOUTME: Components subscribe for change notifications instead of reading a global.
package auth

import "sync"

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the current user and notifies subscribers when it changes.
// The zero value is not usable; call NewSession.
type Session struct {
	mu     sync.RWMutex
	user   *User
	nextID int
	subs   map[int]func(*User)
}

// NewSession returns a signed-out session.
func NewSession() *Session {
	return &Session{subs: make(map[int]func(*User))}
}

// Current returns a copy of the signed-in user, or nil.
func (s *Session) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's id or ErrNotSignedIn.
func (s *Session) UserID() (string, error) {
	u := s.Current()
	if u == nil {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

// Subscribe registers fn for change events and returns a function that removes it.
// fn receives nil on sign-out.
func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Restore sets the user from a persisted session (cookie or file) and notifies.
func (s *Session) Restore(u *User) {
	s.set(u)
}

func (s *Session) set(u *User) {
	var copyU *User
	if u != nil {
		c := *u
		copyU = &c
	}

	s.mu.Lock()
	s.user = copyU
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so subscribers may call Current
	for _, fn := range fns {
		if copyU == nil {
			fn(nil)
			continue
		}
		c := *copyU
		fn(&c)
	}
}
