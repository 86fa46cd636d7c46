package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

// RoleService manages role records and their permission links.
type RoleService struct {
	roles       ports.RoleRepository
	permissions ports.PermissionRepository
}

func NewRoleService(roles ports.RoleRepository, permissions ports.PermissionRepository) *RoleService {
	return &RoleService{roles: roles, permissions: permissions}
}

type ListRolesQuery struct {
	Page     int
	PageSize int
	Name     string
	Code     string
}

func (s *RoleService) Create(ctx context.Context, role domain.Role) (domain.Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	role.Code = strings.TrimSpace(role.Code)
	if role.Name == "" || role.Code == "" {
		return domain.Role{}, domain.ErrInvalidInput
	}
	if err := s.checkUnique(ctx, role.Name, role.Code, ""); err != nil {
		return domain.Role{}, err
	}
	now := time.Now().UTC()
	role.ID = uuid.NewString()
	role.CreatedAt = now
	role.UpdatedAt = now
	if err := s.roles.Create(ctx, role); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, role domain.Role) (domain.Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	role.Code = strings.TrimSpace(role.Code)
	if role.ID == "" || role.Name == "" || role.Code == "" {
		return domain.Role{}, domain.ErrInvalidInput
	}
	existing, err := s.roles.GetByID(ctx, role.ID)
	if err != nil {
		return domain.Role{}, err
	}
	if err := s.checkUnique(ctx, role.Name, role.Code, role.ID); err != nil {
		return domain.Role{}, err
	}
	existing.Name = role.Name
	existing.Code = role.Code
	existing.Description = role.Description
	existing.UpdatedAt = time.Now().UTC()
	if err := s.roles.Update(ctx, existing); err != nil {
		return domain.Role{}, err
	}
	return existing, nil
}

func (s *RoleService) Delete(ctx context.Context, roleID string) error {
	if roleID == "" {
		return domain.ErrInvalidInput
	}
	return s.roles.Delete(ctx, roleID)
}

func (s *RoleService) Get(ctx context.Context, roleID string) (domain.Role, error) {
	if roleID == "" {
		return domain.Role{}, domain.ErrInvalidInput
	}
	return s.roles.GetByID(ctx, roleID)
}

func (s *RoleService) List(ctx context.Context, query ListRolesQuery) ([]domain.Role, int, error) {
	page, pageSize := NormalizePage(query.Page, query.PageSize)
	all, err := s.roles.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := all[:0:0]
	for _, role := range all {
		if query.Name != "" && !containsFold(role.Name, query.Name) {
			continue
		}
		if query.Code != "" && !containsFold(role.Code, query.Code) {
			continue
		}
		filtered = append(filtered, role)
	}
	items, total := paginate(filtered, page, pageSize)
	return items, total, nil
}

// SetPermissions replaces the role's granted permission set. Every id must
// name an existing permission.
func (s *RoleService) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if roleID == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return err
	}
	granted := make([]domain.Permission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		permission, err := s.permissions.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Field: "permission_ids", Message: "permission " + id + " not found"}
			}
			return err
		}
		granted = append(granted, permission)
	}
	return s.roles.SetPermissions(ctx, roleID, granted)
}

// ListPermissionCodes returns the codes directly attached to a role.
func (s *RoleService) ListPermissionCodes(ctx context.Context, roleID string) ([]string, error) {
	if roleID == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.roles.ListPermissions(ctx, roleID)
}

func (s *RoleService) checkUnique(ctx context.Context, name, code, excludeID string) error {
	all, err := s.roles.List(ctx)
	if err != nil {
		return err
	}
	for _, role := range all {
		if role.ID == excludeID {
			continue
		}
		if role.Name == name {
			return &domain.ValidationError{Field: "name", Message: "role name already exists"}
		}
		if role.Code == code {
			return &domain.ValidationError{Field: "code", Message: "role code already exists"}
		}
	}
	return nil
}

// PermissionService manages permission records and the presentation tree.
type PermissionService struct {
	permissions ports.PermissionRepository
}

func NewPermissionService(permissions ports.PermissionRepository) *PermissionService {
	return &PermissionService{permissions: permissions}
}

type ListPermissionsQuery struct {
	Page     int
	PageSize int
	Name     string
	Code     string
	Type     string
}

func (s *PermissionService) Create(ctx context.Context, permission domain.Permission) (domain.Permission, error) {
	permission.Name = strings.TrimSpace(permission.Name)
	permission.Code = strings.TrimSpace(permission.Code)
	if permission.Name == "" || permission.Code == "" {
		return domain.Permission{}, domain.ErrInvalidInput
	}
	if !permission.Type.Valid() {
		return domain.Permission{}, &domain.ValidationError{Field: "type", Message: "permission type must be one of menu, button, api"}
	}
	if err := s.checkUnique(ctx, permission.Name, permission.Code, ""); err != nil {
		return domain.Permission{}, err
	}
	if err := s.checkParent(ctx, permission.ParentID, ""); err != nil {
		return domain.Permission{}, err
	}
	now := time.Now().UTC()
	permission.ID = uuid.NewString()
	permission.CreatedAt = now
	permission.UpdatedAt = now
	if err := s.permissions.Create(ctx, permission); err != nil {
		return domain.Permission{}, err
	}
	return permission, nil
}

func (s *PermissionService) Update(ctx context.Context, permission domain.Permission) (domain.Permission, error) {
	permission.Name = strings.TrimSpace(permission.Name)
	permission.Code = strings.TrimSpace(permission.Code)
	if permission.ID == "" || permission.Name == "" || permission.Code == "" {
		return domain.Permission{}, domain.ErrInvalidInput
	}
	if !permission.Type.Valid() {
		return domain.Permission{}, &domain.ValidationError{Field: "type", Message: "permission type must be one of menu, button, api"}
	}
	existing, err := s.permissions.GetByID(ctx, permission.ID)
	if err != nil {
		return domain.Permission{}, err
	}
	if err := s.checkUnique(ctx, permission.Name, permission.Code, permission.ID); err != nil {
		return domain.Permission{}, err
	}
	if err := s.checkParent(ctx, permission.ParentID, permission.ID); err != nil {
		return domain.Permission{}, err
	}
	existing.Name = permission.Name
	existing.Code = permission.Code
	existing.Description = permission.Description
	existing.Type = permission.Type
	existing.Path = permission.Path
	existing.ParentID = permission.ParentID
	existing.SortOrder = permission.SortOrder
	existing.UpdatedAt = time.Now().UTC()
	if err := s.permissions.Update(ctx, existing); err != nil {
		return domain.Permission{}, err
	}
	return existing, nil
}

// Delete refuses to remove a permission that still has children; callers
// must delete or reparent the subtree first.
func (s *PermissionService) Delete(ctx context.Context, permissionID string) error {
	if permissionID == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.permissions.GetByID(ctx, permissionID); err != nil {
		return err
	}
	hasChildren, err := s.permissions.HasChildren(ctx, permissionID)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("%w: permission has child permissions", domain.ErrInvalidInput)
	}
	return s.permissions.Delete(ctx, permissionID)
}

func (s *PermissionService) Get(ctx context.Context, permissionID string) (domain.Permission, error) {
	if permissionID == "" {
		return domain.Permission{}, domain.ErrInvalidInput
	}
	return s.permissions.GetByID(ctx, permissionID)
}

func (s *PermissionService) List(ctx context.Context, query ListPermissionsQuery) ([]domain.Permission, int, error) {
	if query.Type != "" && !domain.PermissionType(query.Type).Valid() {
		return nil, 0, &domain.ValidationError{Field: "type", Message: "permission type must be one of menu, button, api"}
	}
	page, pageSize := NormalizePage(query.Page, query.PageSize)
	all, err := s.permissions.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := all[:0:0]
	for _, permission := range all {
		if query.Name != "" && !containsFold(permission.Name, query.Name) {
			continue
		}
		if query.Code != "" && !containsFold(permission.Code, query.Code) {
			continue
		}
		if query.Type != "" && string(permission.Type) != query.Type {
			continue
		}
		filtered = append(filtered, permission)
	}
	items, total := paginate(filtered, page, pageSize)
	return items, total, nil
}

// Tree returns the full permission forest ordered by sort_order.
func (s *PermissionService) Tree(ctx context.Context) ([]*domain.PermissionTreeNode, error) {
	all, err := s.permissions.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildPermissionTree(all), nil
}

func (s *PermissionService) checkUnique(ctx context.Context, name, code, excludeID string) error {
	all, err := s.permissions.List(ctx)
	if err != nil {
		return err
	}
	for _, permission := range all {
		if permission.ID == excludeID {
			continue
		}
		if permission.Name == name {
			return &domain.ValidationError{Field: "name", Message: "permission name already exists"}
		}
		if permission.Code == code {
			return &domain.ValidationError{Field: "code", Message: "permission code already exists"}
		}
	}
	return nil
}

func (s *PermissionService) checkParent(ctx context.Context, parentID, selfID string) error {
	if parentID == "" {
		return nil
	}
	if selfID != "" && parentID == selfID {
		return &domain.ValidationError{Field: "parent_id", Message: "permission cannot be its own parent"}
	}
	if _, err := s.permissions.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Field: "parent_id", Message: "parent permission not found"}
		}
		return err
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
