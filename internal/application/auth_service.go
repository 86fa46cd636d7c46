package application

import (
	"context"
	"errors"
	"time"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

// AuthService owns credential checks, token issuance and principal
// resolution. Tokens are stateless; nothing here keeps per-session state.
type AuthService struct {
	users  ports.UserRepository
	codec  ports.TokenCodec
	hasher ports.PasswordHasher
	logger ports.Logger
}

func NewAuthService(users ports.UserRepository, codec ports.TokenCodec, hasher ports.PasswordHasher, logger ports.Logger) *AuthService {
	return &AuthService{users: users, codec: codec, hasher: hasher, logger: logger}
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords fail identically so callers cannot probe for accounts.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.Identity, error) {
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return user.Identity(), nil
}

// Login authenticates and issues a full access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.TokenIssued, error) {
	identity, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return domain.TokenIssued{}, err
	}
	if err := s.users.SetLastLogin(ctx, identity.ID, time.Now().UTC()); err != nil {
		s.logger.Warn(ctx, "update last login failed", "user_id", identity.ID, "error", err)
	}

	claims := subjectClaims(identity)
	accessToken, err := s.codec.CreateAccessToken(claims)
	if err != nil {
		return domain.TokenIssued{}, err
	}
	refreshToken, err := s.codec.CreateRefreshToken(claims)
	if err != nil {
		return domain.TokenIssued{}, err
	}
	return domain.TokenIssued{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "bearer",
		ExpiresIn:        int64(s.codec.AccessTTL().Seconds()),
		RefreshExpiresIn: int64(s.codec.RefreshTTL().Seconds()),
	}, nil
}

// Refresh trades a valid refresh token for a new access token. The refresh
// token itself stays valid until its natural expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.AccessTokenRefreshed, error) {
	identity, err := s.ResolveToken(ctx, refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return domain.AccessTokenRefreshed{}, err
	}
	accessToken, err := s.codec.CreateAccessToken(subjectClaims(identity))
	if err != nil {
		return domain.AccessTokenRefreshed{}, err
	}
	return domain.AccessTokenRefreshed{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// ResolveToken maps a bearer token to the authenticated identity. Failures
// are limited to ErrTokenInvalid, ErrWrongTokenType, ErrUserNotFound and
// ErrAccountDisabled; anything going wrong while decoding surfaces as
// ErrTokenInvalid.
func (s *AuthService) ResolveToken(ctx context.Context, token, expectedType string) (domain.Identity, error) {
	claims, err := s.codec.VerifyToken(token)
	if err != nil {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	uid, _ := claims["uid"].(string)
	subject, _ := claims["sub"].(string)
	tokenType, _ := claims["type"].(string)
	if uid == "" || subject == "" || tokenType == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if tokenType != expectedType {
		return domain.Identity{}, domain.ErrWrongTokenType
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrUserNotFound
		}
		return domain.Identity{}, err
	}
	if !user.IsActive {
		return domain.Identity{}, domain.ErrAccountDisabled
	}
	return user.Identity(), nil
}

// ResolveOptional resolves an access token without ever failing; endpoints
// that allow anonymous access use the second return to tell the cases apart.
func (s *AuthService) ResolveOptional(ctx context.Context, token string) (domain.Identity, bool) {
	if token == "" {
		return domain.Identity{}, false
	}
	identity, err := s.ResolveToken(ctx, token, domain.TokenTypeAccess)
	if err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// ChangePassword lets a user rotate their own password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return &domain.ValidationError{Field: "old_password", Message: "old password is incorrect"}
	}
	if newPassword == "" || newPassword != confirmPassword {
		return &domain.ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, user.ID, digest)
}

func subjectClaims(identity domain.Identity) map[string]any {
	return map[string]any{
		"uid":    identity.ID,
		"sub":    identity.Username,
		"scopes": []string{},
	}
}
