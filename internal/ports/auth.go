package ports

import "time"

// TokenCodec creates and verifies signed, expiring tokens. Implementations
// are pure functions of input, wall clock and the configured secret.
type TokenCodec interface {
	CreateToken(claims map[string]any, ttl time.Duration) (string, error)
	CreateAccessToken(claims map[string]any) (string, error)
	CreateRefreshToken(claims map[string]any) (string, error)
	// VerifyToken validates signature and expiry. Every failure collapses
	// into domain.ErrTokenInvalid; callers cannot distinguish expiry from
	// tampering.
	VerifyToken(token string) (map[string]any, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// PasswordHasher is the one-way credential digest capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}
