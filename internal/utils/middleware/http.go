package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"myvetstudy/internal/metrics"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
)

// HTTPAuth resolves the caller from the Authorization header. Requests
// without a valid token are rejected with 401.
func HTTPAuth(secretKey string, bl blacklist.Blacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := utils.ExtractTokenFromRequest(r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			principal, err := Authenticate(r.Context(), tokenString, secretKey, bl)
			if err != nil {
				switch {
				case errors.Is(err, blacklist.ErrUserBanned), errors.Is(err, blacklist.ErrTokenRevoked):
					WriteError(w, http.StatusForbidden, err.Error())
				case errors.Is(err, utils.ErrInvalidToken):
					WriteError(w, http.StatusUnauthorized, err.Error())
				default:
					logger.Logger.Error("Authentication failed", zap.Error(err))
					WriteError(w, http.StatusInternalServerError, "failed to authenticate request")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithPrincipal(r.Context(), principal)))
		})
	}
}

type GuardOptions struct {
	// RedirectURL, when set, sends denied callers there instead of
	// answering 403.
	RedirectURL string
}

// Guard admits the request only when the authenticated caller satisfies req.
func Guard(model *permissions.Model, req permissions.Requirement, opts GuardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := utils.PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "caller is not authenticated")
				return
			}

			decision := model.Authorize(principal.Role, req)
			metrics.RecordGuardDecision("http", decision.Kind.String(), decision.Allowed)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			logger.Logger.Info("Access denied",
				zap.String("path", r.URL.Path),
				zap.String("user_id", principal.UserID),
				zap.String("role", principal.Role.String()),
				zap.Stringer("requirement", req),
				zap.String("reason", decision.Reason),
			)
			if opts.RedirectURL != "" {
				http.Redirect(w, r, opts.RedirectURL, http.StatusFound)
				return
			}
			WriteError(w, http.StatusForbidden, "Forbidden: "+decision.Reason)
		})
	}
}

func WriteJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Logger.Error("Failed to write response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, map[string]string{"error": message})
}
