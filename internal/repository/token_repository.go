package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RefreshToken mirrors the 'refresh_tokens' table.  Only the SHA-256 hash
// of the token value is stored; the raw value lives in the client's cookie.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Usable reports whether the token may still be exchanged: not revoked and
// not expired at the given instant.  A token never becomes usable again.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// TokenRepo persists and rotates refresh tokens.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row for the user.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// FindByHash returns the token row for a hash, ErrNotFound when absent.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var t RefreshToken
	var revoked sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshToken{}, ErrNotFound
		}
		return RefreshToken{}, err
	}
	if revoked.Valid {
		t.RevokedAt = &revoked.Time
	}
	return t, nil
}

// Revoke marks a token as revoked.  Revoking an already-revoked or unknown
// token is a no-op, which makes logout idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// Rotate atomically revokes old and inserts a replacement token for the
// same user.  The conditional UPDATE is the race arbiter: of two concurrent
// rotations presenting the same token, exactly one revokes the row (one row
// affected) and mints a child; the other sees zero rows and gets
// ErrTokenRotated.
func (r *TokenRepo) Rotate(ctx context.Context, old RefreshToken, newHash string, newExp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE id=? AND revoked_at IS NULL",
		old.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenRotated
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		old.UserID, newHash, newExp); err != nil {
		return err
	}
	return tx.Commit()
}
