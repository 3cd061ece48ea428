// Package permissions answers authorization questions for a role against the
// static role to permission table. A Model never performs I/O and is never
// mutated after NewModel returns, so it is safe to share between goroutines.
package permissions

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"myvetstudy/internal/domain"
)

var ErrInvalidTable = errors.New("invalid role permission table")

type permissionSet map[domain.Permission]struct{}

type Model struct {
	sets map[domain.Role]permissionSet
	// ordered holds each role's permissions in enumeration order.
	ordered map[domain.Role][]domain.Permission
}

// NewModel validates table and builds a Model from it. The table must name
// every role, give each one at least one permission, and use only known
// permissions. Duplicate entries are collapsed.
func NewModel(table map[domain.Role][]domain.Permission) (*Model, error) {
	m := &Model{
		sets:    make(map[domain.Role]permissionSet, len(table)),
		ordered: make(map[domain.Role][]domain.Permission, len(table)),
	}

	for role, perms := range table {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidTable, domain.ErrUnknownRole, role)
		}
		set := make(permissionSet, len(perms))
		for _, p := range perms {
			if !p.Valid() {
				return nil, fmt.Errorf("%w: role %s: %w: %q", ErrInvalidTable, role, domain.ErrUnknownPermission, p)
			}
			set[p] = struct{}{}
		}
		m.sets[role] = set
	}

	for _, role := range domain.Roles() {
		set, ok := m.sets[role]
		if !ok {
			return nil, fmt.Errorf("%w: role %s has no entry", ErrInvalidTable, role)
		}
		if len(set) == 0 {
			return nil, fmt.Errorf("%w: role %s has no permissions", ErrInvalidTable, role)
		}
		ordered := make([]domain.Permission, 0, len(set))
		for _, p := range domain.Permissions() {
			if _, ok := set[p]; ok {
				ordered = append(ordered, p)
			}
		}
		m.ordered[role] = ordered
	}

	return m, nil
}

var (
	defaultOnce  sync.Once
	defaultModel *Model
)

// Default returns the Model built from the shipped role table. The same
// Model is returned on every call.
func Default() *Model {
	defaultOnce.Do(func() {
		m, err := NewModel(defaultTable())
		if err != nil {
			panic(err)
		}
		defaultModel = m
	})
	return defaultModel
}

// HasPermission reports whether role holds p. Unknown roles hold nothing.
func (m *Model) HasPermission(role domain.Role, p domain.Permission) bool {
	_, ok := m.sets[role][p]
	return ok
}

// HasAllPermissions reports whether role holds every permission in ps.
// It is true for an empty list.
func (m *Model) HasAllPermissions(role domain.Role, ps ...domain.Permission) bool {
	for _, p := range ps {
		if !m.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether role holds at least one permission in ps.
// It is false for an empty list.
func (m *Model) HasAnyPermission(role domain.Role, ps ...domain.Permission) bool {
	for _, p := range ps {
		if m.HasPermission(role, p) {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of role's permissions in enumeration
// order. Callers may modify the result freely.
func (m *Model) PermissionsForRole(role domain.Role) []domain.Permission {
	ordered := m.ordered[role]
	out := make([]domain.Permission, len(ordered))
	copy(out, ordered)
	return out
}

// RolesWithPermission returns the roles holding p in enumeration order.
func (m *Model) RolesWithPermission(p domain.Permission) []domain.Role {
	var out []domain.Role
	for _, role := range domain.Roles() {
		if m.HasPermission(role, p) {
			out = append(out, role)
		}
	}
	return out
}

// IsRoleHigherThan reports whether a holds strictly more permissions than b.
//
// Seniority is approximated by permission count. Two roles with the same
// count compare as equal even when their responsibilities differ, and a
// role with many narrow permissions outranks one with fewer broad ones.
func (m *Model) IsRoleHigherThan(a, b domain.Role) bool {
	return len(m.sets[a]) > len(m.sets[b])
}

// RoleHierarchy returns every role ordered by descending permission count.
// Roles with equal counts keep enumeration order. The same caveat as
// IsRoleHigherThan applies.
func (m *Model) RoleHierarchy() []domain.Role {
	out := domain.Roles()
	sort.SliceStable(out, func(i, j int) bool {
		return len(m.sets[out[i]]) > len(m.sets[out[j]])
	})
	return out
}
