package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/adapters/http/middleware"
	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/domain"
)

type UserHandler struct {
	users *application.UserService
	auth  *application.AuthService
}

func NewUserHandler(users *application.UserService, auth *application.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type createUserRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	IsActive     *bool  `json:"is_active"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type assignRolesRequest struct {
	Roles []roleAssignmentRequest `json:"roles" validate:"required,dive"`
}

type roleAssignmentRequest struct {
	RoleID    string `json:"role_id" validate:"required"`
	DataScope string `json:"data_scope"`
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user, err := h.users.Create(c.Request().Context(), application.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		IsActive:     active,
		IsSuperadmin: req.IsSuperadmin,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	user, err := h.users.Update(c.Request().Context(), c.Param("id"), application.UpdateUserInput{
		Email:    req.Email,
		IsActive: req.IsActive,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c echo.Context) error {
	query := application.ListUsersQuery{
		Page:     intQuery(c, "page"),
		PageSize: intQuery(c, "page_size"),
		Username: c.QueryParam("username"),
		Email:    c.QueryParam("email"),
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		active := raw == "true"
		query.IsActive = &active
	}
	users, total, err := h.users.List(c.Request().Context(), query)
	if err != nil {
		return handleError(c, err)
	}
	page, pageSize := application.NormalizePage(query.Page, query.PageSize)
	return c.JSON(http.StatusOK, listResponse{Items: users, Total: total, Page: page, PageSize: pageSize})
}

func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	user, err := h.users.SetActive(c.Request().Context(), c.Param("id"), active)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	if err := h.users.ResetPassword(c.Request().Context(), c.Param("id"), req.NewPassword); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) AssignRoles(c echo.Context) error {
	var req assignRolesRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	inputs := make([]application.RoleAssignmentInput, 0, len(req.Roles))
	for _, r := range req.Roles {
		inputs = append(inputs, application.RoleAssignmentInput{
			RoleID:    r.RoleID,
			DataScope: domain.DataScope(r.DataScope),
		})
	}
	if err := h.users.AssignRoles(c.Request().Context(), c.Param("id"), inputs); err != nil {
		return handleError(c, err)
	}
	assignments, err := h.users.ListAssignments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, assignments)
}

// Me returns the authenticated principal stored by the bearer middleware.
func (h *UserHandler) Me(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	user, err := h.users.Get(c.Request().Context(), identity.ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ChangeMyPassword(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	err := h.auth.ChangePassword(c.Request().Context(), identity.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) MyRoles(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	codes, err := h.users.RoleCodes(c.Request().Context(), identity)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"roles": codes})
}

func (h *UserHandler) MyPermissions(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	codes, err := h.users.PermissionCodes(c.Request().Context(), identity)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"permissions": codes})
}

func intQuery(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
