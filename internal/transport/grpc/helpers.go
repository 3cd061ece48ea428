package grpc

import (
	"errors"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/services"
	"myvetstudy/internal/utils/blacklist"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func boolField(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

func intField(req *structpb.Struct, name string) int {
	return int(req.GetFields()[name].GetNumberValue())
}

func stringListField(req *structpb.Struct, name string) []string {
	values := req.GetFields()[name].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

func listValue(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func respond(fields map[string]interface{}) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		logger.Logger.Error("Failed to build response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return resp, nil
}

func userFields(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"practice_id": u.PracticeID,
		"role":        u.Role.String(),
	}
}

// toStatus maps service and domain errors to gRPC statuses.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrUnknownPermission):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, services.ErrRoleTooHigh),
		errors.Is(err, services.ErrSelfBan),
		errors.Is(err, blacklist.ErrUserBanned),
		errors.Is(err, blacklist.ErrTokenRevoked):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, "user not found")
	default:
		logger.Logger.Error("Request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
