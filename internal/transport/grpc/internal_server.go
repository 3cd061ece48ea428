package grpc

import (
	"context"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/services"
	"myvetstudy/internal/utils"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Policy is the guard configuration for PermissionService. Methods not
// listed only require an authenticated caller.
func Policy() map[string]permissions.Requirement {
	return map[string]permissions.Requirement{
		CreateStaffMemberMethod: permissions.RequireAllPermissions(domain.InviteTeamMember),
		ListStaffMethod:         permissions.RequireAnyPermission(domain.ViewTeam),
		BanUserMethod:           permissions.RequireAllPermissions(domain.RemoveTeamMember),
	}
}

// IdempotentMethods lists the methods that honour an Idempotency-Key.
func IdempotentMethods() map[string]bool {
	return map[string]bool{
		CreateStaffMemberMethod: true,
	}
}

type InternalUserServiceServer struct {
	Model *permissions.Model
	Staff *services.StaffService
}

func NewInternalUserServiceServer(model *permissions.Model, staff *services.StaffService) *InternalUserServiceServer {
	return &InternalUserServiceServer{
		Model: model,
		Staff: staff,
	}
}

func principal(ctx context.Context) (utils.Principal, error) {
	p, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		return utils.Principal{}, status.Error(codes.Internal, "principal not found in context")
	}
	return p, nil
}

// roleArg returns the role named in field, defaulting to the caller's own.
// Looking at another role requires view_team.
func (s *InternalUserServiceServer) roleArg(ctx context.Context, req *structpb.Struct, field string) (domain.Role, error) {
	p, err := principal(ctx)
	if err != nil {
		return "", err
	}
	name := stringField(req, field)
	if name == "" {
		return p.Role, nil
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		return "", status.Error(codes.InvalidArgument, err.Error())
	}
	if role != p.Role && !s.Model.HasPermission(p.Role, domain.ViewTeam) {
		return "", status.Error(codes.PermissionDenied, "Forbidden: view_team required to inspect other roles")
	}
	return role, nil
}

func (s *InternalUserServiceServer) CheckPermissions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	role, err := s.roleArg(ctx, req, "role")
	if err != nil {
		return nil, err
	}
	perms, err := utils.ParsePermissions(stringListField(req, "permissions"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var allowed bool
	if boolField(req, "require_all") {
		allowed = s.Model.HasAllPermissions(role, perms...)
	} else {
		allowed = s.Model.HasAnyPermission(role, perms...)
	}

	return respond(map[string]interface{}{
		"role":    role.String(),
		"allowed": allowed,
	})
}

func (s *InternalUserServiceServer) ListRolePermissions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	role, err := s.roleArg(ctx, req, "role")
	if err != nil {
		return nil, err
	}
	return respond(map[string]interface{}{
		"role":        role.String(),
		"permissions": listValue(utils.PermissionNames(s.Model.PermissionsForRole(role))),
	})
}

func (s *InternalUserServiceServer) ListRolesWithPermission(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := domain.ParsePermission(stringField(req, "permission"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return respond(map[string]interface{}{
		"permission": p.String(),
		"roles":      listValue(utils.RoleNames(s.Model.RolesWithPermission(p))),
	})
}

func (s *InternalUserServiceServer) CompareRoles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := domain.ParseRole(stringField(req, "role_a"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	b, err := domain.ParseRole(stringField(req, "role_b"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return respond(map[string]interface{}{
		"role_a": a.String(),
		"role_b": b.String(),
		"higher": s.Model.IsRoleHigherThan(a, b),
	})
}

func (s *InternalUserServiceServer) GetRoleHierarchy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]interface{}{
		"roles": listValue(utils.RoleNames(s.Model.RoleHierarchy())),
	})
}

func (s *InternalUserServiceServer) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.Staff.Profile(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}

	fields := userFields(profile.User)
	fields["permissions"] = listValue(utils.PermissionNames(profile.Permissions))
	return respond(fields)
}

func (s *InternalUserServiceServer) CreateStaffMember(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(stringField(req, "role"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	user, err := s.Staff.CreateStaffMember(ctx, p, services.NewStaffMember{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		Name:     stringField(req, "name"),
		Role:     role,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]interface{}{
		"message": "Staff member created successfully",
		"user_id": user.ID,
	})
}

func (s *InternalUserServiceServer) ListStaff(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	filter := repository.ListUsersFilter{Email: stringField(req, "email_filter")}
	if name := stringField(req, "role"); name != "" {
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		filter.Role = role
	}

	page, err := s.Staff.ListStaff(ctx, p, intField(req, "page"), intField(req, "page_size"), filter)
	if err != nil {
		return nil, toStatus(err)
	}

	users := make([]interface{}, len(page.Users))
	for i, u := range page.Users {
		users[i] = userFields(u)
	}

	return respond(map[string]interface{}{
		"users": users,
		"total": page.Total,
	})
}

func (s *InternalUserServiceServer) BanUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Staff.BanUser(ctx, p, stringField(req, "user_id")); err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]interface{}{"message": "User banned successfully"})
}
