package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

// TokenConfig carries everything the codec needs. Passing it explicitly
// keeps secrets out of package state and lets tests run with distinct
// secrets side by side.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec issues and verifies HS256-signed tokens.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &TokenCodec{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// CreateToken signs the claims with an expiry of now+ttl merged in. The
// input map is not mutated.
func (c *TokenCodec) CreateToken(claims map[string]any, ttl time.Duration) (string, error) {
	merged := make(jwt.MapClaims, len(claims)+1)
	for k, v := range claims {
		merged[k] = v
	}
	merged["exp"] = jwt.NewNumericDate(time.Now().UTC().Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, merged).SignedString(c.secret)
}

// CreateAccessToken fixes the type claim to "access" with the access TTL.
func (c *TokenCodec) CreateAccessToken(claims map[string]any) (string, error) {
	return c.createTyped(claims, domain.TokenTypeAccess, c.accessTTL)
}

// CreateRefreshToken fixes the type claim to "refresh" with the refresh TTL.
func (c *TokenCodec) CreateRefreshToken(claims map[string]any) (string, error) {
	return c.createTyped(claims, domain.TokenTypeRefresh, c.refreshTTL)
}

func (c *TokenCodec) createTyped(claims map[string]any, tokenType string, ttl time.Duration) (string, error) {
	typed := make(map[string]any, len(claims)+1)
	for k, v := range claims {
		typed[k] = v
	}
	typed["type"] = tokenType
	return c.CreateToken(typed, ttl)
}

// VerifyToken validates signature and expiry and returns the payload.
// Malformed, tampered, wrongly signed and expired tokens all fail with
// domain.ErrTokenInvalid; a token whose exp equals the current instant is
// already expired.
func (c *TokenCodec) VerifyToken(tokenString string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }
