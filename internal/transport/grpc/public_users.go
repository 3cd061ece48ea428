package grpc

import (
	"context"

	"myvetstudy/internal/services"
	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"
	"myvetstudy/internal/utils/middleware"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type PublicUserServiceServer struct {
	Staff     *services.StaffService
	Blacklist blacklist.Blacklist
	SecretKey string
}

func NewPublicUserServiceServer(staff *services.StaffService, bl blacklist.Blacklist, secretKey string) *PublicUserServiceServer {
	return &PublicUserServiceServer{
		Staff:     staff,
		Blacklist: bl,
		SecretKey: secretKey,
	}
}

func (s *PublicUserServiceServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, "email")
	password := stringField(req, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	res, err := s.Staff.Login(ctx, email, password)
	if err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]interface{}{
		"token":      res.Token,
		"token_type": "Bearer",
		"expires_in": res.ExpiresIn.Seconds(),
		"role":       res.Role.String(),
	})
}

func (s *PublicUserServiceServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokenString, err := utils.ExtractTokenFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	principal, err := middleware.Authenticate(ctx, tokenString, s.SecretKey, s.Blacklist)
	if err != nil {
		return nil, middleware.AuthStatus(err)
	}

	if err := s.Staff.Logout(ctx, principal); err != nil {
		return nil, toStatus(err)
	}

	return respond(map[string]interface{}{"message": "Logged out successfully"})
}
