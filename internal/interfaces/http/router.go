package http

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/zhengyingxiong/starweb/internal/adapters/http/middleware"
	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Users       *UserHandler
	RBAC        *RBACHandler
	Resolver    mw.PrincipalResolver
	Engine      *application.Engine
	Logger      ports.Logger
	SegmentName string
}

func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(mw.XRayMiddleware(deps.SegmentName))
	e.Use(mw.RequestLogger(deps.Logger))

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)
	auth.POST("/me", deps.Auth.Me)

	authed := api.Group("", mw.BearerAuth(deps.Resolver, deps.Logger))

	engine := deps.Engine
	usersView := mw.Guard(engine.HasPermissions(false, application.PermUsersView, application.PermUsersManage))
	usersManage := mw.Guard(engine.HasPermissions(true, application.PermUsersManage))
	rbacView := mw.Guard(engine.HasPermissions(false, application.PermRBACView, application.PermRBACManage))
	rbacManage := mw.Guard(engine.HasPermissions(true, application.PermRBACManage))

	users := authed.Group("/users")
	users.GET("/me", deps.Users.Me, mw.Guard(application.ActiveUser()))
	users.PUT("/me/password", deps.Users.ChangeMyPassword, mw.Guard(application.ActiveUser()))
	users.GET("/me/roles", deps.Users.MyRoles)
	users.GET("/me/permissions", deps.Users.MyPermissions)

	users.GET("", deps.Users.List, usersView)
	users.POST("", deps.Users.Create, usersManage)
	users.GET("/:id", deps.Users.Get, usersView)
	users.PUT("/:id", deps.Users.Update, usersManage)
	users.DELETE("/:id", deps.Users.Delete, usersManage)
	users.POST("/:id/roles", deps.Users.AssignRoles, usersManage)
	users.POST("/:id/activate", deps.Users.Activate, mw.Guard(application.AnyOf(
		engine.HasRoles(false, application.RoleAdmin),
		engine.HasPermissions(true, application.PermUsersManage, application.PermUserResetPassword),
	)))
	users.POST("/:id/deactivate", deps.Users.Deactivate, mw.Guard(application.AllOf(
		engine.HasPermissions(true, application.PermUsersManage),
		engine.HasRoles(false, application.RoleAdmin, application.RoleSupervisor),
	)))
	users.POST("/:id/reset-password", deps.Users.ResetPassword, mw.Guard(application.Superuser()))

	roles := authed.Group("/roles")
	roles.GET("", deps.RBAC.ListRoles, rbacView)
	roles.POST("", deps.RBAC.CreateRole, rbacManage)
	roles.GET("/:id", deps.RBAC.GetRole, rbacView)
	roles.PUT("/:id", deps.RBAC.UpdateRole, rbacManage)
	roles.DELETE("/:id", deps.RBAC.DeleteRole, rbacManage)
	roles.PUT("/:id/permissions", deps.RBAC.SetRolePermissions, rbacManage)

	permissions := authed.Group("/permissions")
	permissions.GET("", deps.RBAC.ListPermissions, rbacView)
	permissions.GET("/tree", deps.RBAC.PermissionTree, rbacView)
	permissions.POST("", deps.RBAC.CreatePermission, rbacManage)
	permissions.GET("/:id", deps.RBAC.GetPermission, rbacView)
	permissions.PUT("/:id", deps.RBAC.UpdatePermission, rbacManage)
	permissions.DELETE("/:id", deps.RBAC.DeletePermission, rbacManage)

	return e
}
