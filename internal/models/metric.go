// ABOUTME: HealthMetric record and user profile models.
// ABOUTME: Metric values stay raw strings until classification time.
package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthMetric is a single logged reading for a status type.
// Value is the raw text the user entered; it is only parsed when classified or charted.
type HealthMetric struct {
	ID        string    `json:"id" bson:"id"`
	Type      string    `json:"type" bson:"type"`
	Value     string    `json:"value" bson:"value"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewHealthMetric creates a metric with a generated id.
func NewHealthMetric(typeID, value string, ts time.Time) *HealthMetric {
	return &HealthMetric{
		ID:        uuid.NewString(),
		Type:      typeID,
		Value:     value,
		Timestamp: ts,
	}
}

// EndOfDay returns 23:59:59 on the calendar day of t in loc.
// Entries logged for a date sort after anything earlier that day.
func EndOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 23, 59, 59, 0, loc)
}

// UserProfile is the per-user profile document.
type UserProfile struct {
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	Avatar    *string   `json:"avatar,omitempty" bson:"avatar,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProfileUpdate carries a partial profile; nil fields are left untouched.
type ProfileUpdate struct {
	Email  *string `json:"email,omitempty"`
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Apply merges the update into p and stamps UpdatedAt.
func (u ProfileUpdate) Apply(p *UserProfile, now time.Time) {
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		p.Avatar = &avatar
	}
	p.UpdatedAt = now
}

// Account is the identity record behind a user: login email and password hash.
type Account struct {
	UserID       string    `json:"user_id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"password_hash" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// NewAccount creates an account with a generated user id.
func NewAccount(email, passwordHash string) *Account {
	return &Account{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}
