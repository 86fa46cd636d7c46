package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Update(ctx context.Context, user domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) SetPassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) Create(ctx context.Context, role domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepo) Update(ctx context.Context, role domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id string) (domain.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *mockRoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *mockRoleRepo) SetPermissions(ctx context.Context, roleID string, permissions []domain.Permission) error {
	return m.Called(ctx, roleID, permissions).Error(0)
}

func (m *mockRoleRepo) ListPermissions(ctx context.Context, roleID string) ([]string, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]string), args.Error(1)
}

type mockPermissionRepo struct {
	mock.Mock
}

func (m *mockPermissionRepo) Create(ctx context.Context, permission domain.Permission) error {
	return m.Called(ctx, permission).Error(0)
}

func (m *mockPermissionRepo) Update(ctx context.Context, permission domain.Permission) error {
	return m.Called(ctx, permission).Error(0)
}

func (m *mockPermissionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPermissionRepo) GetByID(ctx context.Context, id string) (domain.Permission, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Permission), args.Error(1)
}

func (m *mockPermissionRepo) List(ctx context.Context) ([]domain.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *mockPermissionRepo) HasChildren(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockUserRoleRepo struct {
	mock.Mock
}

func (m *mockUserRoleRepo) AssignRoles(ctx context.Context, userID string, assignments []domain.RoleAssignment) error {
	return m.Called(ctx, userID, assignments).Error(0)
}

func (m *mockUserRoleRepo) ListByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.RoleAssignment), args.Error(1)
}

func (m *mockUserRoleRepo) EffectiveRoleCodes(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockUserRoleRepo) EffectivePermissionCodes(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

type mockAccessReader struct {
	mock.Mock
}

func (m *mockAccessReader) EffectiveRoleCodes(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockAccessReader) EffectivePermissionCodes(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Debug(context.Context, string, ...any) {}
