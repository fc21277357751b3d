// ABOUTME: Profile and account operations for SQLite storage.
// ABOUTME: Profiles merge on write; accounts enforce unique emails.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/healthstatus/internal/models"
)

// SaveProfile merges upd into the user's profile, creating it if needed.
func (d *DB) SaveProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	p, err := d.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if p == nil {
		p = &models.UserProfile{}
	}
	upd.Apply(p, time.Now())

	var avatar sql.NullString
	if p.Avatar != nil {
		avatar = sql.NullString{String: *p.Avatar, Valid: true}
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, avatar, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			avatar = excluded.avatar,
			updated_at = excluded.updated_at`,
		userID, p.Email, p.Name, avatar, p.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile returns the user's profile or ErrNotFound.
func (d *DB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	var avatar sql.NullString
	var updatedAt int64

	err := d.db.QueryRowContext(ctx,
		"SELECT email, name, avatar, updated_at FROM users WHERE id = ?", userID,
	).Scan(&p.Email, &p.Name, &avatar, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if avatar.Valid {
		p.Avatar = &avatar.String
	}
	p.UpdatedAt = time.UnixMilli(updatedAt)
	return &p, nil
}

// CreateAccount inserts a new account. Returns ErrEmailTaken on duplicate email.
func (d *DB) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		a.UserID, a.Email, a.PasswordHash, a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount loads an account by user id.
func (d *DB) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	return d.scanAccount(d.db.QueryRowContext(ctx,
		"SELECT user_id, email, password_hash, created_at FROM accounts WHERE user_id = ?", userID))
}

// GetAccountByEmail loads an account by login email.
func (d *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return d.scanAccount(d.db.QueryRowContext(ctx,
		"SELECT user_id, email, password_hash, created_at FROM accounts WHERE email = ?", email))
}

// UpdatePasswordHash replaces an account's password hash.
func (d *DB) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE accounts SET password_hash = ? WHERE user_id = ?", hash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (d *DB) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var createdAt int64
	if err := row.Scan(&a.UserID, &a.Email, &a.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get account: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt)
	return &a, nil
}
