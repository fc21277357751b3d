// ABOUTME: Persists the CLI's signed-in user between invocations.
// ABOUTME: Stored as session.json next to config.json.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// SavedSession is the signed-in user remembered by the CLI.
type SavedSession struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// GetSessionPath returns the session file path.
func GetSessionPath() string {
	return filepath.Join(GetConfigDir(), "session.json")
}

// LoadSession returns the saved session, or nil when signed out.
func LoadSession() (*SavedSession, error) {
	data, err := os.ReadFile(GetSessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.UserID == "" {
		return nil, nil
	}
	return &s, nil
}

// SaveSession writes s to disk.
func SaveSession(s SavedSession) error {
	return writeJSONFile(GetSessionPath(), s)
}

// ClearSession removes the session file. Missing files succeed.
func ClearSession() error {
	if err := os.Remove(GetSessionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
