// ABOUTME: Tests for HealthMetric, profile merge, and account models.
// ABOUTME: Validates constructors and the end-of-day timestamp convention.
package models

import (
	"testing"
	"time"
)

func TestNewHealthMetric(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 59, 59, 0, time.Local)
	m := NewHealthMetric(StatusSleepQuality, "8", ts)

	if m.ID == "" {
		t.Error("expected ID to be set")
	}
	if m.Type != StatusSleepQuality {
		t.Errorf("Type = %s, want sleep-quality", m.Type)
	}
	if m.Value != "8" {
		t.Errorf("Value = %s, want 8", m.Value)
	}
	if !m.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", m.Timestamp, ts)
	}
}

func TestNewHealthMetricUniqueIDs(t *testing.T) {
	a := NewHealthMetric("mood", "5", time.Now())
	b := NewHealthMetric("mood", "5", time.Now())
	if a.ID == b.ID {
		t.Error("expected distinct IDs")
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(2024, time.March, 1, time.Local)

	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
		t.Errorf("EndOfDay date = %v", got)
	}
	if got.Hour() != 23 || got.Minute() != 59 || got.Second() != 59 {
		t.Errorf("EndOfDay clock = %02d:%02d:%02d, want 23:59:59", got.Hour(), got.Minute(), got.Second())
	}
	if got.Location() != time.Local {
		t.Errorf("EndOfDay location = %v, want Local", got.Location())
	}
}

func TestProfileUpdateApply(t *testing.T) {
	p := &UserProfile{Email: "a@example.com", Name: "Ada"}
	name := "Ada L."
	avatar := "https://example.com/a.png"
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	ProfileUpdate{Name: &name, Avatar: &avatar}.Apply(p, now)

	if p.Email != "a@example.com" {
		t.Errorf("Email changed to %q, expected it untouched", p.Email)
	}
	if p.Name != "Ada L." {
		t.Errorf("Name = %q, want Ada L.", p.Name)
	}
	if p.Avatar == nil || *p.Avatar != avatar {
		t.Errorf("Avatar = %v, want %s", p.Avatar, avatar)
	}
	if !p.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, now)
	}

	avatar = "changed"
	if *p.Avatar == "changed" {
		t.Error("Apply should copy the avatar, not alias it")
	}
}

func TestNewAccount(t *testing.T) {
	a := NewAccount("a@example.com", "hash")
	if a.UserID == "" {
		t.Error("expected UserID to be set")
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}
