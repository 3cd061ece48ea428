package middleware

import (
	"context"

	"myvetstudy/internal/metrics"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/utils"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RoleRequiredMiddleware guards the methods named in policy. Methods without
// a policy entry pass through untouched. It must run after
// BlacklistMiddleware so the caller's principal is in the context.
func RoleRequiredMiddleware(model *permissions.Model, policy map[string]permissions.Requirement) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requirement, guarded := policy[info.FullMethod]
		if !guarded {
			return handler(ctx, req)
		}

		principal, ok := utils.PrincipalFromContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "caller is not authenticated")
		}

		decision := model.Authorize(principal.Role, requirement)
		metrics.RecordGuardDecision("grpc", decision.Kind.String(), decision.Allowed)
		if !decision.Allowed {
			logger.Logger.Info("Access denied",
				zap.String("method", info.FullMethod),
				zap.String("user_id", principal.UserID),
				zap.String("role", principal.Role.String()),
				zap.Stringer("requirement", requirement),
				zap.String("reason", decision.Reason),
			)
			return nil, status.Error(codes.PermissionDenied, "Forbidden: "+decision.Reason)
		}

		return handler(ctx, req)
	}
}
