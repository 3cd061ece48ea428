package middleware

import (
	"context"
	"errors"

	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Authenticate validates the bearer token and checks it and its user
// against the blacklist.
func Authenticate(ctx context.Context, tokenString, secretKey string, bl blacklist.Blacklist) (utils.Principal, error) {
	claims, role, err := utils.ParseAndValidateToken(tokenString, secretKey)
	if err != nil {
		return utils.Principal{}, err
	}

	if err := bl.CheckUser(ctx, claims.UserID); err != nil {
		return utils.Principal{}, err
	}
	if err := bl.CheckToken(ctx, claims.ID); err != nil {
		return utils.Principal{}, err
	}

	p := utils.Principal{UserID: claims.UserID, Role: role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func BlacklistMiddleware(secretKey string, bl blacklist.Blacklist) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		tokenString, err := utils.ExtractTokenFromContext(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		principal, err := Authenticate(ctx, tokenString, secretKey, bl)
		if err != nil {
			return nil, AuthStatus(err)
		}

		return handler(utils.WithPrincipal(ctx, principal), req)
	}
}

// AuthStatus maps an authentication failure to a gRPC status.
func AuthStatus(err error) error {
	switch {
	case errors.Is(err, utils.ErrMissingToken), errors.Is(err, utils.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, blacklist.ErrUserBanned), errors.Is(err, blacklist.ErrTokenRevoked):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		logger.Logger.Error("Authentication failed", zap.Error(err))
		return status.Error(codes.Internal, "failed to authenticate request")
	}
}
