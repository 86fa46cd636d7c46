package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

// UserService manages user accounts and their role assignments.
type UserService struct {
	users     ports.UserRepository
	roles     ports.RoleRepository
	userRoles ports.UserRoleRepository
	hasher    ports.PasswordHasher
}

func NewUserService(users ports.UserRepository, roles ports.RoleRepository, userRoles ports.UserRoleRepository, hasher ports.PasswordHasher) *UserService {
	return &UserService{users: users, roles: roles, userRoles: userRoles, hasher: hasher}
}

type CreateUserInput struct {
	Username     string
	Email        string
	Password     string
	IsActive     bool
	IsSuperadmin bool
}

type UpdateUserInput struct {
	Email    *string
	IsActive *bool
}

type ListUsersQuery struct {
	Page     int
	PageSize int
	Username string
	Email    string
	IsActive *bool
}

type RoleAssignmentInput struct {
	RoleID    string
	DataScope domain.DataScope
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return domain.User{}, domain.ErrInvalidInput
	}
	_, err := s.users.GetByUsername(ctx, input.Username)
	switch {
	case err == nil:
		return domain.User{}, &domain.ValidationError{Field: "username", Message: "username already exists"}
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: digest,
		IsActive:     input.IsActive,
		IsSuperadmin: input.IsSuperadmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, input UpdateUserInput) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.ErrInvalidInput
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SetActive flips the account's active flag; used by the activate and
// deactivate endpoints.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (domain.User, error) {
	return s.Update(ctx, userID, UpdateUserInput{IsActive: &active})
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidInput
	}
	return s.users.Delete(ctx, userID)
}

func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.ErrInvalidInput
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) List(ctx context.Context, query ListUsersQuery) ([]domain.User, int, error) {
	page, pageSize := NormalizePage(query.Page, query.PageSize)
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := all[:0:0]
	for _, user := range all {
		if query.Username != "" && !containsFold(user.Username, query.Username) {
			continue
		}
		if query.Email != "" && !containsFold(user.Email, query.Email) {
			continue
		}
		if query.IsActive != nil && user.IsActive != *query.IsActive {
			continue
		}
		filtered = append(filtered, user)
	}
	items, total := paginate(filtered, page, pageSize)
	return items, total, nil
}

// ResetPassword overwrites a user's password without checking the old one;
// the route guarding this is superadmin-only.
func (s *UserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if userID == "" || newPassword == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, digest)
}

// AssignRoles replaces the user's role assignments. Every referenced role
// must exist; unknown data scopes default to "self".
func (s *UserService) AssignRoles(ctx context.Context, userID string, inputs []RoleAssignmentInput) error {
	if userID == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	now := time.Now().UTC()
	assignments := make([]domain.RoleAssignment, 0, len(inputs))
	for _, input := range inputs {
		role, err := s.roles.GetByID(ctx, input.RoleID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Field: "role_id", Message: "role " + input.RoleID + " not found"}
			}
			return err
		}
		scope := input.DataScope
		if !scope.Valid() {
			scope = domain.DataScopeSelf
		}
		assignments = append(assignments, domain.RoleAssignment{
			UserID:    userID,
			RoleID:    role.ID,
			RoleCode:  role.Code,
			DataScope: scope,
			CreatedAt: now,
		})
	}
	return s.userRoles.AssignRoles(ctx, userID, assignments)
}

func (s *UserService) ListAssignments(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.userRoles.ListByUser(ctx, userID)
}

// RoleCodes returns the identity's role-code set for the /me endpoints.
func (s *UserService) RoleCodes(ctx context.Context, identity domain.Identity) ([]string, error) {
	return s.userRoles.EffectiveRoleCodes(ctx, identity.ID)
}

// PermissionCodes returns the identity's effective permission codes; a
// superadmin gets the wildcard marker instead of an enumeration.
func (s *UserService) PermissionCodes(ctx context.Context, identity domain.Identity) ([]string, error) {
	if identity.IsSuperadmin {
		return []string{"*"}, nil
	}
	return s.userRoles.EffectivePermissionCodes(ctx, identity.ID)
}
