// ABOUTME: Request sequencing for metric selection changes.
// ABOUTME: Lets callers drop responses that arrive after a newer selection.
package metrics

import "sync"

// Token identifies one selection-triggered load.
type Token struct {
	Type string
	Seq  uint64
}

// Sequencer hands out monotonically increasing tokens. Only the most recent
// token is current.
type Sequencer struct {
	mu      sync.Mutex
	seq     uint64
	current Token
}

// Begin starts a load for typeID and makes its token current.
func (s *Sequencer) Begin(typeID string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = Token{Type: typeID, Seq: s.seq}
	return s.current
}

// IsCurrent reports whether t is still the latest token.
func (s *Sequencer) IsCurrent(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.Seq != 0 && t == s.current
}
