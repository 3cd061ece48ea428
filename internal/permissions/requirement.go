package permissions

import (
	"fmt"
	"strings"

	"myvetstudy/internal/domain"
)

// Kind tells which checks a Requirement performs.
type Kind int

const (
	KindNone Kind = iota
	KindRole
	KindPermission
	KindBoth
)

func (k Kind) String() string {
	switch k {
	case KindRole:
		return "role"
	case KindPermission:
		return "permission"
	case KindBoth:
		return "both"
	default:
		return "none"
	}
}

// Requirement describes what a caller needs to reach a protected route or
// method. With Roles set the caller's role must be one of them. With
// Permissions set the caller must hold all of them when RequireAll is true,
// or at least one otherwise. When both are set both checks must pass. An
// empty Requirement admits any authenticated caller.
type Requirement struct {
	Roles       []domain.Role
	Permissions []domain.Permission
	RequireAll  bool
}

func RequireRoles(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles}
}

func RequireAllPermissions(ps ...domain.Permission) Requirement {
	return Requirement{Permissions: ps, RequireAll: true}
}

func RequireAnyPermission(ps ...domain.Permission) Requirement {
	return Requirement{Permissions: ps}
}

func Require(roles []domain.Role, ps []domain.Permission, requireAll bool) Requirement {
	return Requirement{Roles: roles, Permissions: ps, RequireAll: requireAll}
}

func (r Requirement) Kind() Kind {
	switch {
	case len(r.Roles) > 0 && len(r.Permissions) > 0:
		return KindBoth
	case len(r.Roles) > 0:
		return KindRole
	case len(r.Permissions) > 0:
		return KindPermission
	default:
		return KindNone
	}
}

func (r Requirement) String() string {
	var parts []string
	if len(r.Roles) > 0 {
		names := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			names[i] = role.String()
		}
		parts = append(parts, "roles="+strings.Join(names, "|"))
	}
	if len(r.Permissions) > 0 {
		names := make([]string, len(r.Permissions))
		for i, p := range r.Permissions {
			names[i] = p.String()
		}
		mode := "any"
		if r.RequireAll {
			mode = "all"
		}
		parts = append(parts, fmt.Sprintf("permissions(%s)=%s", mode, strings.Join(names, "|")))
	}
	if len(parts) == 0 {
		return "authenticated"
	}
	return strings.Join(parts, " ")
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Kind    Kind
	Reason  string
}

// Authorize evaluates req for role.
func (m *Model) Authorize(role domain.Role, req Requirement) Decision {
	d := Decision{Allowed: true, Kind: req.Kind()}

	if len(req.Roles) > 0 && !containsRole(req.Roles, role) {
		d.Allowed = false
		d.Reason = fmt.Sprintf("role %s is not allowed", role)
		return d
	}

	if len(req.Permissions) > 0 {
		var ok bool
		if req.RequireAll {
			ok = m.HasAllPermissions(role, req.Permissions...)
		} else {
			ok = m.HasAnyPermission(role, req.Permissions...)
		}
		if !ok {
			d.Allowed = false
			d.Reason = fmt.Sprintf("role %s lacks required permissions", role)
		}
	}

	return d
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
