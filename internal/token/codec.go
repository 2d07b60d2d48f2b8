// Package token implements the signed bearer-token codec. Access and refresh
// tokens carry the same claim set but are signed with independent secrets and
// TTLs, so a token of one kind never verifies under the other kind's key.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// Identity is the claim payload recovered from a parsed token.
type Identity struct {
	Subject string
	Roles   []domain.Role
}

type claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Codec mints and parses tokens for both kinds.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a codec. TTLs default to 15 minutes (access) and 7 days
// (refresh) when unset.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *Codec) material(kind domain.TokenKind) ([]byte, time.Duration) {
	if kind == domain.TokenRefresh {
		return c.refreshSecret, c.refreshTTL
	}
	return c.accessSecret, c.accessTTL
}

// Issue signs a token of the given kind for the subject.
func (c *Codec) Issue(kind domain.TokenKind, subject string, roles []domain.Role) (string, error) {
	secret, ttl := c.material(kind)
	now := time.Now().UTC()
	cl := claims{
		Roles: domain.RoleNames(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps same-second issuances for one subject distinct;
			// the store looks tokens up by exact value.
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(secret)
	if err != nil {
		return "", domain.Wrap(domain.KindStoreUnavailable, err, "token signing failed")
	}
	return signed, nil
}

// IssuePair mints a matched access/refresh pair for the subject.
func (c *Codec) IssuePair(subject string, roles []domain.Role) (*domain.TokenPair, error) {
	access, err := c.Issue(domain.TokenAccess, subject, roles)
	if err != nil {
		return nil, err
	}
	refresh, err := c.Issue(domain.TokenRefresh, subject, roles)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse verifies signature and expiry for the given kind and recovers the
// identity claims. Structural and cryptographic failures carry distinct kinds
// for observability, but both render identically to clients.
func (c *Codec) Parse(kind domain.TokenKind, tokenString string) (*Identity, error) {
	secret, _ := c.material(kind)
	var cl claims
	parsed, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.Wrap(domain.KindTokenSignatureInvalid, err, "invalid token")
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.Wrap(domain.KindTokenUnusable, err, "token is expired")
		default:
			return nil, domain.Wrap(domain.KindTokenMalformed, err, "invalid token")
		}
	}
	if !parsed.Valid {
		return nil, domain.E(domain.KindTokenSignatureInvalid, "invalid token")
	}

	roles := make([]domain.Role, len(cl.Roles))
	for i, r := range cl.Roles {
		roles[i] = domain.Role(r)
	}
	return &Identity{Subject: cl.Subject, Roles: roles}, nil
}

// Subject extracts the subject claim regardless of expiry. Signature is still
// verified; only the time-based checks are skipped. Cache key derivation uses
// this so an expired token still evicts the right subject entries.
func (c *Codec) Subject(kind domain.TokenKind, tokenString string) (string, error) {
	secret, _ := c.material(kind)
	var cl claims
	_, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", domain.Wrap(domain.KindTokenSignatureInvalid, err, "invalid token")
		}
		return "", domain.Wrap(domain.KindTokenMalformed, err, "invalid token")
	}
	return cl.Subject, nil
}

// Expired reports whether the embedded expiry has passed, independent of any
// store state. Malformed or forged tokens count as expired.
func (c *Codec) Expired(kind domain.TokenKind, tokenString string) bool {
	secret, _ := c.material(kind)
	var cl claims
	_, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || cl.ExpiresAt == nil {
		return true
	}
	return time.Now().After(cl.ExpiresAt.Time)
}
