package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages on both services are google.protobuf.Struct values so the
// services can be declared here without generated stubs.

const (
	PublicServiceName     = "myvetstudy.permissions.v1.PublicService"
	PermissionServiceName = "myvetstudy.permissions.v1.PermissionService"

	LoginMethod  = "/" + PublicServiceName + "/Login"
	LogoutMethod = "/" + PublicServiceName + "/Logout"

	CheckPermissionsMethod        = "/" + PermissionServiceName + "/CheckPermissions"
	ListRolePermissionsMethod     = "/" + PermissionServiceName + "/ListRolePermissions"
	ListRolesWithPermissionMethod = "/" + PermissionServiceName + "/ListRolesWithPermission"
	CompareRolesMethod            = "/" + PermissionServiceName + "/CompareRoles"
	GetRoleHierarchyMethod        = "/" + PermissionServiceName + "/GetRoleHierarchy"
	GetProfileMethod              = "/" + PermissionServiceName + "/GetProfile"
	CreateStaffMemberMethod       = "/" + PermissionServiceName + "/CreateStaffMember"
	ListStaffMethod               = "/" + PermissionServiceName + "/ListStaff"
	BanUserMethod                 = "/" + PermissionServiceName + "/BanUser"
)

type unaryMethod func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

type PublicService interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type PermissionService interface {
	CheckPermissions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRolePermissions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRolesWithPermission(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CompareRoles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRoleHierarchy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateStaffMember(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListStaff(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	BanUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterPublicService(s grpc.ServiceRegistrar, srv PublicService) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: PublicServiceName,
		HandlerType: (*PublicService)(nil),
		Methods: []grpc.MethodDesc{
			method(LoginMethod, "Login", func(srv interface{}) unaryMethod { return srv.(PublicService).Login }),
			method(LogoutMethod, "Logout", func(srv interface{}) unaryMethod { return srv.(PublicService).Logout }),
		},
	}, srv)
}

func RegisterPermissionService(s grpc.ServiceRegistrar, srv PermissionService) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: PermissionServiceName,
		HandlerType: (*PermissionService)(nil),
		Methods: []grpc.MethodDesc{
			method(CheckPermissionsMethod, "CheckPermissions", func(srv interface{}) unaryMethod { return srv.(PermissionService).CheckPermissions }),
			method(ListRolePermissionsMethod, "ListRolePermissions", func(srv interface{}) unaryMethod { return srv.(PermissionService).ListRolePermissions }),
			method(ListRolesWithPermissionMethod, "ListRolesWithPermission", func(srv interface{}) unaryMethod { return srv.(PermissionService).ListRolesWithPermission }),
			method(CompareRolesMethod, "CompareRoles", func(srv interface{}) unaryMethod { return srv.(PermissionService).CompareRoles }),
			method(GetRoleHierarchyMethod, "GetRoleHierarchy", func(srv interface{}) unaryMethod { return srv.(PermissionService).GetRoleHierarchy }),
			method(GetProfileMethod, "GetProfile", func(srv interface{}) unaryMethod { return srv.(PermissionService).GetProfile }),
			method(CreateStaffMemberMethod, "CreateStaffMember", func(srv interface{}) unaryMethod { return srv.(PermissionService).CreateStaffMember }),
			method(ListStaffMethod, "ListStaff", func(srv interface{}) unaryMethod { return srv.(PermissionService).ListStaff }),
			method(BanUserMethod, "BanUser", func(srv interface{}) unaryMethod { return srv.(PermissionService).BanUser }),
		},
	}, srv)
}

func method(fullMethod, name string, bind func(srv interface{}) unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := bind(srv)
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
