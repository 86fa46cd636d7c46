package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/domain"
)

type RBACHandler struct {
	roles       *application.RoleService
	permissions *application.PermissionService
}

func NewRBACHandler(roles *application.RoleService, permissions *application.PermissionService) *RBACHandler {
	return &RBACHandler{roles: roles, permissions: permissions}
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Code        string `json:"code" validate:"required,min=2,max=50"`
	Description string `json:"description"`
}

type setRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required"`
}

type permissionRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Code        string `json:"code" validate:"required,min=2,max=100"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required"`
	Path        string `json:"path"`
	ParentID    string `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
}

func (h *RBACHandler) CreateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	role, err := h.roles.Create(c.Request().Context(), domain.Role{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *RBACHandler) UpdateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	role, err := h.roles.Update(c.Request().Context(), domain.Role{
		ID:          c.Param("id"),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RBACHandler) DeleteRole(c echo.Context) error {
	if err := h.roles.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RBACHandler) GetRole(c echo.Context) error {
	role, err := h.roles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RBACHandler) ListRoles(c echo.Context) error {
	query := application.ListRolesQuery{
		Page:     intQuery(c, "page"),
		PageSize: intQuery(c, "page_size"),
		Name:     c.QueryParam("name"),
		Code:     c.QueryParam("code"),
	}
	roles, total, err := h.roles.List(c.Request().Context(), query)
	if err != nil {
		return handleError(c, err)
	}
	page, pageSize := application.NormalizePage(query.Page, query.PageSize)
	return c.JSON(http.StatusOK, listResponse{Items: roles, Total: total, Page: page, PageSize: pageSize})
}

func (h *RBACHandler) SetRolePermissions(c echo.Context) error {
	var req setRolePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	if err := h.roles.SetPermissions(c.Request().Context(), c.Param("id"), req.PermissionIDs); err != nil {
		return handleError(c, err)
	}
	codes, err := h.roles.ListPermissionCodes(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"permissions": codes})
}

func (h *RBACHandler) CreatePermission(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	permission, err := h.permissions.Create(c.Request().Context(), domain.Permission{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Type:        domain.PermissionType(req.Type),
		Path:        req.Path,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, permission)
}

func (h *RBACHandler) UpdatePermission(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	permission, err := h.permissions.Update(c.Request().Context(), domain.Permission{
		ID:          c.Param("id"),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Type:        domain.PermissionType(req.Type),
		Path:        req.Path,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, permission)
}

func (h *RBACHandler) DeletePermission(c echo.Context) error {
	if err := h.permissions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RBACHandler) GetPermission(c echo.Context) error {
	permission, err := h.permissions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, permission)
}

func (h *RBACHandler) ListPermissions(c echo.Context) error {
	query := application.ListPermissionsQuery{
		Page:     intQuery(c, "page"),
		PageSize: intQuery(c, "page_size"),
		Name:     c.QueryParam("name"),
		Code:     c.QueryParam("code"),
		Type:     c.QueryParam("type"),
	}
	permissions, total, err := h.permissions.List(c.Request().Context(), query)
	if err != nil {
		return handleError(c, err)
	}
	page, pageSize := application.NormalizePage(query.Page, query.PageSize)
	return c.JSON(http.StatusOK, listResponse{Items: permissions, Total: total, Page: page, PageSize: pageSize})
}

func (h *RBACHandler) PermissionTree(c echo.Context) error {
	tree, err := h.permissions.Tree(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": tree})
}
