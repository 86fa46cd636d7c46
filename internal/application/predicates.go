package application

import (
	"context"
	"strings"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

// Predicate is a single authorization requirement: it either accepts the
// identity (nil) or rejects it with a denial error carrying a readable
// reason. Every predicate lets superadmins through before anything else.
type Predicate interface {
	Evaluate(ctx context.Context, identity domain.Identity) error
}

// Engine builds the predicates that need stored grants to decide.
type Engine struct {
	access ports.AccessReader
}

func NewEngine(access ports.AccessReader) *Engine {
	return &Engine{access: access}
}

// HasPermissions requires the identity's effective permission-code set to
// contain all of the codes (requireAll) or at least one of them.
func (e *Engine) HasPermissions(requireAll bool, codes ...string) Predicate {
	return &permissionPredicate{access: e.access, codes: codes, requireAll: requireAll}
}

// HasRoles is the same check over the identity's role-code set.
func (e *Engine) HasRoles(requireAll bool, codes ...string) Predicate {
	return &rolePredicate{access: e.access, codes: codes, requireAll: requireAll}
}

type permissionPredicate struct {
	access     ports.AccessReader
	codes      []string
	requireAll bool
}

func (p *permissionPredicate) Evaluate(ctx context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	granted, err := p.access.EffectivePermissionCodes(ctx, identity.ID)
	if err != nil {
		return err
	}
	if satisfied(granted, p.codes, p.requireAll) {
		return nil
	}
	if p.requireAll {
		return &domain.PermissionDeniedError{
			Reason: "requires all of the following permissions: " + strings.Join(p.codes, " AND "),
		}
	}
	return &domain.PermissionDeniedError{
		Reason: "requires any of the following permissions: " + strings.Join(p.codes, " OR "),
	}
}

type rolePredicate struct {
	access     ports.AccessReader
	codes      []string
	requireAll bool
}

func (p *rolePredicate) Evaluate(ctx context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	granted, err := p.access.EffectiveRoleCodes(ctx, identity.ID)
	if err != nil {
		return err
	}
	if satisfied(granted, p.codes, p.requireAll) {
		return nil
	}
	if p.requireAll {
		return &domain.RoleDeniedError{
			Reason: "requires all of the following roles: " + strings.Join(p.codes, " AND "),
		}
	}
	return &domain.RoleDeniedError{
		Reason: "requires any of the following roles: " + strings.Join(p.codes, " OR "),
	}
}

func satisfied(granted, required []string, requireAll bool) bool {
	set := make(map[string]struct{}, len(granted))
	for _, code := range granted {
		set[code] = struct{}{}
	}
	if requireAll {
		for _, code := range required {
			if _, ok := set[code]; !ok {
				return false
			}
		}
		return true
	}
	for _, code := range required {
		if _, ok := set[code]; ok {
			return true
		}
	}
	return false
}

// ActiveUser accepts identities whose account is active.
func ActiveUser() Predicate { return activeUserPredicate{} }

type activeUserPredicate struct{}

func (activeUserPredicate) Evaluate(_ context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	if identity.IsActive {
		return nil
	}
	return &domain.AccessDeniedError{Reason: "account disabled"}
}

// Superuser accepts superadmins only.
func Superuser() Predicate { return superuserPredicate{} }

type superuserPredicate struct{}

func (superuserPredicate) Evaluate(_ context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	return &domain.AccessDeniedError{Reason: "requires superadmin privileges"}
}

// AnyOf accepts when at least one sub-predicate accepts. On total failure it
// evaluates every sub-predicate first, then rejects with all their reasons
// joined by OR so the caller sees the complete set of alternatives.
func AnyOf(predicates ...Predicate) Predicate { return anyOfPredicate{predicates: predicates} }

type anyOfPredicate struct {
	predicates []Predicate
}

func (p anyOfPredicate) Evaluate(ctx context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	reasons := make([]string, 0, len(p.predicates))
	for _, pred := range p.predicates {
		err := pred.Evaluate(ctx, identity)
		if err == nil {
			return nil
		}
		reason, ok := domain.DenialReason(err)
		if !ok {
			return err
		}
		reasons = append(reasons, reason)
	}
	if len(reasons) == 0 {
		return nil
	}
	return &domain.AccessDeniedError{
		Reason: "requires at least one of: " + strings.Join(reasons, " OR "),
	}
}

// AllOf accepts only when every sub-predicate accepts, rejecting immediately
// with the first failure's own error.
func AllOf(predicates ...Predicate) Predicate { return allOfPredicate{predicates: predicates} }

type allOfPredicate struct {
	predicates []Predicate
}

func (p allOfPredicate) Evaluate(ctx context.Context, identity domain.Identity) error {
	if identity.IsSuperadmin {
		return nil
	}
	for _, pred := range p.predicates {
		if err := pred.Evaluate(ctx, identity); err != nil {
			return err
		}
	}
	return nil
}
