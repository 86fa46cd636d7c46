package domain

import "time"

// Token type discriminants embedded in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// PermissionType classifies what a permission protects.
type PermissionType string

const (
	PermissionTypeMenu   PermissionType = "menu"
	PermissionTypeButton PermissionType = "button"
	PermissionTypeAPI    PermissionType = "api"
)

// Valid reports whether t is one of the known permission types.
func (t PermissionType) Valid() bool {
	switch t {
	case PermissionTypeMenu, PermissionTypeButton, PermissionTypeAPI:
		return true
	}
	return false
}

// DataScope limits which rows a role assignment may touch.
type DataScope string

const (
	DataScopeAll        DataScope = "all"
	DataScopeDepartment DataScope = "department"
	DataScopeSelf       DataScope = "self"
)

// Valid reports whether s is one of the known data scopes.
func (s DataScope) Valid() bool {
	switch s {
	case DataScopeAll, DataScopeDepartment, DataScopeSelf:
		return true
	}
	return false
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsSuperadmin bool       `json:"is_superadmin"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Identity is the resolved representation of the authenticated caller.
// It lives for one request and is never persisted.
type Identity struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	IsActive     bool   `json:"is_active"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

// Identity projects the request-scoped principal out of a user record.
func (u User) Identity() Identity {
	return Identity{
		ID:           u.ID,
		Username:     u.Username,
		IsActive:     u.IsActive,
		IsSuperadmin: u.IsSuperadmin,
	}
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Permission struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Type        PermissionType `json:"type"`
	Path        string         `json:"path,omitempty"`
	ParentID    string         `json:"parent_id,omitempty"`
	SortOrder   int            `json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RoleAssignment links a user to a role. RoleCode is denormalized from the
// role record so effective-code lookups stay a single query.
type RoleAssignment struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	RoleCode  string    `json:"role_code"`
	DataScope DataScope `json:"data_scope"`
	CreatedAt time.Time `json:"created_at"`
}

// PermissionTreeNode is a permission with its ordered children, built fresh
// on each tree query.
type PermissionTreeNode struct {
	Permission
	Children []*PermissionTreeNode `json:"children"`
}

// TokenIssued is the login response: a full access/refresh pair.
type TokenIssued struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// AccessTokenRefreshed is the refresh response: a new access token only.
type AccessTokenRefreshed struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
