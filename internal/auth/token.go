package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken covers every access-token failure: malformed input, wrong
// signature, wrong algorithm, missing subject, expiry.  Callers must treat
// all of them as "not authenticated" and never tell the client which one
// occurred.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed HS256 JWT together with its validity window in
// seconds.  Access tokens are short-lived and carried in the Authorization
// header of protected requests; they are never persisted.
type AccessToken struct {
	Token     string `json:"accessToken"`
	ExpiresIn int64  `json:"expiresInSeconds"`
}

// TokenIdentity is the subject and role set recovered from a valid access
// token.
type TokenIdentity struct {
	Username string
	Roles    RoleSet
}

// IssueAccessToken builds and signs an HS256 JWT for a user.  The claims are
// the subject (sub = username), the canonical role names (roles), issued-at
// (iat) and the absolute expiry (exp) computed from ttl.
func IssueAccessToken(secret, username string, roles RoleSet, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   username,
		"roles": roles.Names(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ExpiresIn: int64(ttl / time.Second)}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and extracts the
// identity it carries.  The signing method is pinned to HMAC; tokens signed
// with anything else are rejected.
func ParseAccessToken(secret, raw string) (TokenIdentity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenIdentity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenIdentity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return TokenIdentity{}, ErrInvalidToken
	}
	roles := RoleSet{}
	if list, ok := claims["roles"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				if n := NormalizeRole(s); n != "" {
					roles[n] = true
				}
			}
		}
	}
	return TokenIdentity{Username: sub, Roles: roles}, nil
}

// ValidateAccessToken reports whether raw is a currently valid token issued
// for the expected subject.
func ValidateAccessToken(secret, raw, expectedSubject string) bool {
	id, err := ParseAccessToken(secret, raw)
	return err == nil && id.Username == expectedSubject
}

// RefreshToken is a long-lived opaque credential.  Raw goes back to the
// client (in the refresh cookie); only the SHA-256 hash of Raw is persisted,
// so a leaked token table cannot be replayed.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewRefreshToken returns a cryptographically random refresh token expiring
// ttlDays from now.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
