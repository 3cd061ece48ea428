package utils

import (
	"myvetstudy/internal/domain"
)

func ParseRoles(values []string) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(values))
	for _, v := range values {
		role, err := domain.ParseRole(v)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

func ParsePermissions(values []string) ([]domain.Permission, error) {
	out := make([]domain.Permission, 0, len(values))
	for _, v := range values {
		p, err := domain.ParsePermission(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func RoleNames(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = role.String()
	}
	return out
}

func PermissionNames(ps []domain.Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
