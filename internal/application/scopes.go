package application

// Permission codes guarding the management API.
const (
	PermUsersView         = "user.view"
	PermUsersManage       = "user.manage"
	PermUserResetPassword = "user.reset-password"

	PermRBACView   = "rbac.view"
	PermRBACManage = "rbac.manage"
)

// Role codes with built-in meaning for the demo guards.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

// CoreScopes lists every permission code the platform itself checks; seeds
// use it to provision the built-in roles.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersManage,
		PermUserResetPassword,
		PermRBACView,
		PermRBACManage,
	}
}
