package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

var (
	member     = domain.Identity{ID: "u-1", Username: "alice", IsActive: true}
	superadmin = domain.Identity{ID: "u-root", Username: "root", IsActive: true, IsSuperadmin: true}
)

func TestHasPermissions_RequireAll(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{"user.view", "user.manage"}, nil)
	engine := NewEngine(access)

	err := engine.HasPermissions(true, "user.view", "user.manage").Evaluate(context.Background(), member)
	assert.NoError(t, err)

	err = engine.HasPermissions(true, "user.view", "rbac.manage").Evaluate(context.Background(), member)
	var permErr *domain.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "requires all of the following permissions: user.view AND rbac.manage", permErr.Reason)
}

func TestHasPermissions_RequireAny(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{"user.view"}, nil)
	engine := NewEngine(access)

	err := engine.HasPermissions(false, "user.manage", "user.view").Evaluate(context.Background(), member)
	assert.NoError(t, err)

	err = engine.HasPermissions(false, "rbac.view", "rbac.manage").Evaluate(context.Background(), member)
	var permErr *domain.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "requires any of the following permissions: rbac.view OR rbac.manage", permErr.Reason)
}

func TestHasRoles(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectiveRoleCodes", mock.Anything, "u-1").Return([]string{"supervisor"}, nil)
	engine := NewEngine(access)

	err := engine.HasRoles(false, "admin", "supervisor").Evaluate(context.Background(), member)
	assert.NoError(t, err)

	err = engine.HasRoles(true, "admin", "supervisor").Evaluate(context.Background(), member)
	var roleErr *domain.RoleDeniedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, "requires all of the following roles: admin AND supervisor", roleErr.Reason)
}

func TestPredicates_SuperadminBypassesWithoutStoreAccess(t *testing.T) {
	// no expectations set: any store call would fail the test
	access := &mockAccessReader{}
	engine := NewEngine(access)

	assert.NoError(t, engine.HasPermissions(true, "user.manage").Evaluate(context.Background(), superadmin))
	assert.NoError(t, engine.HasRoles(true, "admin").Evaluate(context.Background(), superadmin))
	assert.NoError(t, AnyOf(engine.HasRoles(true, "admin")).Evaluate(context.Background(), superadmin))
	assert.NoError(t, AllOf(engine.HasPermissions(true, "user.manage")).Evaluate(context.Background(), superadmin))
	access.AssertExpectations(t)
}

func TestPredicates_StoreErrorPropagates(t *testing.T) {
	access := &mockAccessReader{}
	storeErr := errors.New("dynamodb down")
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{}, storeErr)
	engine := NewEngine(access)

	err := engine.HasPermissions(true, "user.view").Evaluate(context.Background(), member)

	assert.ErrorIs(t, err, storeErr)
	_, isDenial := domain.DenialReason(err)
	assert.False(t, isDenial)
}

func TestActiveUser(t *testing.T) {
	assert.NoError(t, ActiveUser().Evaluate(context.Background(), member))

	disabled := member
	disabled.IsActive = false
	err := ActiveUser().Evaluate(context.Background(), disabled)
	reason, ok := domain.DenialReason(err)
	require.True(t, ok)
	assert.Equal(t, "account disabled", reason)

	disabledRoot := superadmin
	disabledRoot.IsActive = false
	assert.NoError(t, ActiveUser().Evaluate(context.Background(), disabledRoot))
}

func TestSuperuser(t *testing.T) {
	assert.NoError(t, Superuser().Evaluate(context.Background(), superadmin))

	err := Superuser().Evaluate(context.Background(), member)
	reason, ok := domain.DenialReason(err)
	require.True(t, ok)
	assert.Equal(t, "requires superadmin privileges", reason)
}

func TestAnyOf_PassesWhenOneBranchPasses(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectiveRoleCodes", mock.Anything, "u-1").Return([]string{}, nil)
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{"user.manage", "user.reset-password"}, nil)
	engine := NewEngine(access)

	pred := AnyOf(
		engine.HasRoles(false, "admin"),
		engine.HasPermissions(true, "user.manage", "user.reset-password"),
	)

	assert.NoError(t, pred.Evaluate(context.Background(), member))
}

func TestAnyOf_AggregatesAllReasons(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectiveRoleCodes", mock.Anything, "u-1").Return([]string{}, nil)
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{}, nil)
	engine := NewEngine(access)

	pred := AnyOf(
		engine.HasRoles(false, "admin"),
		engine.HasPermissions(true, "user.manage", "user.reset-password"),
	)

	err := pred.Evaluate(context.Background(), member)
	reason, ok := domain.DenialReason(err)
	require.True(t, ok)
	assert.Equal(t,
		"requires at least one of: requires any of the following roles: admin"+
			" OR requires all of the following permissions: user.manage AND user.reset-password",
		reason)
}

func TestAnyOf_NonDenialErrorShortCircuits(t *testing.T) {
	access := &mockAccessReader{}
	storeErr := errors.New("dynamodb down")
	access.On("EffectiveRoleCodes", mock.Anything, "u-1").Return([]string{}, storeErr)
	engine := NewEngine(access)

	pred := AnyOf(
		engine.HasRoles(false, "admin"),
		engine.HasPermissions(false, "user.view"),
	)

	err := pred.Evaluate(context.Background(), member)
	assert.ErrorIs(t, err, storeErr)
	access.AssertNotCalled(t, "EffectivePermissionCodes", mock.Anything, mock.Anything)
}

func TestAnyOf_EmptyAccepts(t *testing.T) {
	assert.NoError(t, AnyOf().Evaluate(context.Background(), member))
}

func TestAllOf_FailsFastWithFirstError(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{}, nil)
	engine := NewEngine(access)

	pred := AllOf(
		engine.HasPermissions(true, "user.manage"),
		engine.HasRoles(false, "admin", "supervisor"),
	)

	err := pred.Evaluate(context.Background(), member)
	var permErr *domain.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "requires all of the following permissions: user.manage", permErr.Reason)
	access.AssertNotCalled(t, "EffectiveRoleCodes", mock.Anything, mock.Anything)
}

func TestAllOf_PassesWhenEveryBranchPasses(t *testing.T) {
	access := &mockAccessReader{}
	access.On("EffectivePermissionCodes", mock.Anything, "u-1").Return([]string{"user.manage"}, nil)
	access.On("EffectiveRoleCodes", mock.Anything, "u-1").Return([]string{"supervisor"}, nil)
	engine := NewEngine(access)

	pred := AllOf(
		engine.HasPermissions(true, "user.manage"),
		engine.HasRoles(false, "admin", "supervisor"),
	)

	assert.NoError(t, pred.Evaluate(context.Background(), member))
	assert.NoError(t, AllOf().Evaluate(context.Background(), member))
}
