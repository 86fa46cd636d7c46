package ports

import (
	"context"
	"time"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
}

type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	Update(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, roleID string) error
	GetByID(ctx context.Context, roleID string) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	// SetPermissions replaces the role's permission links with the given set.
	SetPermissions(ctx context.Context, roleID string, permissions []domain.Permission) error
	ListPermissions(ctx context.Context, roleID string) ([]string, error)
}

type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) error
	Update(ctx context.Context, permission domain.Permission) error
	Delete(ctx context.Context, permissionID string) error
	GetByID(ctx context.Context, permissionID string) (domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	HasChildren(ctx context.Context, permissionID string) (bool, error)
}

// AccessReader resolves the stored grants of a user. The predicate engine
// depends on this narrow view only.
type AccessReader interface {
	EffectiveRoleCodes(ctx context.Context, userID string) ([]string, error)
	EffectivePermissionCodes(ctx context.Context, userID string) ([]string, error)
}

type UserRoleRepository interface {
	AccessReader
	// AssignRoles replaces the user's role assignments with the given set.
	AssignRoles(ctx context.Context, userID string, assignments []domain.RoleAssignment) error
	ListByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error)
}
