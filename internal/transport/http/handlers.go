package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/services"
	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"
	authmw "myvetstudy/internal/utils/middleware"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
)

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	PracticeID  string   `json:"practice_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		PracticeID: u.PracticeID,
		Role:       u.Role.String(),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		authmw.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrUnknownPermission):
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		authmw.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		authmw.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrRoleTooHigh),
		errors.Is(err, services.ErrSelfBan),
		errors.Is(err, blacklist.ErrUserBanned),
		errors.Is(err, blacklist.ErrTokenRevoked):
		authmw.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		authmw.WriteError(w, http.StatusNotFound, "user not found")
	default:
		logger.Logger.Error("Request failed", zap.Error(err))
		authmw.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func principal(w http.ResponseWriter, r *http.Request) (utils.Principal, bool) {
	p, ok := utils.PrincipalFromContext(r.Context())
	if !ok {
		authmw.WriteError(w, http.StatusUnauthorized, "caller is not authenticated")
	}
	return p, ok
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		authmw.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := s.staff.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      res.Token,
		"token_type": "Bearer",
		"expires_in": int64(res.ExpiresIn.Seconds()),
		"role":       res.Role.String(),
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.staff.Logout(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	profile, err := s.staff.Profile(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := newUserResponse(profile.User)
	resp.Permissions = utils.PermissionNames(profile.Permissions)
	authmw.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	user, err := s.staff.UpdateProfile(r.Context(), p, services.ProfileUpdate{Name: body.Name, Password: body.Password})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	authmw.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) myPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":        p.Role.String(),
		"permissions": utils.PermissionNames(s.model.PermissionsForRole(p.Role)),
	})
}

// inspectRole parses name and checks the caller may look at it. Callers
// without view_team only see their own role.
func (s *Server) inspectRole(w http.ResponseWriter, r *http.Request, name string) (domain.Role, bool) {
	p, ok := principal(w, r)
	if !ok {
		return "", false
	}
	if name == "" {
		return p.Role, true
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if role != p.Role && !s.model.HasPermission(p.Role, domain.ViewTeam) {
		authmw.WriteError(w, http.StatusForbidden, "Forbidden: view_team required to inspect other roles")
		return "", false
	}
	return role, true
}

func (s *Server) rolePermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := s.inspectRole(w, r, pathParam(r, "role"))
	if !ok {
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":        role.String(),
		"permissions": utils.PermissionNames(s.model.PermissionsForRole(role)),
	})
}

func (s *Server) rolesWithPermission(w http.ResponseWriter, r *http.Request) {
	p, err := domain.ParsePermission(pathParam(r, "permission"))
	if err != nil {
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"permission": p.String(),
		"roles":      utils.RoleNames(s.model.RolesWithPermission(p)),
	})
}

func (s *Server) roleHierarchy(w http.ResponseWriter, r *http.Request) {
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"roles": utils.RoleNames(s.model.RoleHierarchy()),
	})
}

func (s *Server) compareRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := utils.ParseRoles([]string{pathParam(r, "role_a"), pathParam(r, "role_b")})
	if err != nil {
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role_a": roles[0].String(),
		"role_b": roles[1].String(),
		"higher": s.model.IsRoleHigherThan(roles[0], roles[1]),
	})
}

func (s *Server) checkPermissions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
		RequireAll  bool     `json:"require_all"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, ok := s.inspectRole(w, r, body.Role)
	if !ok {
		return
	}
	perms, err := utils.ParsePermissions(body.Permissions)
	if err != nil {
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var allowed bool
	if body.RequireAll {
		allowed = s.model.HasAllPermissions(role, perms...)
	} else {
		allowed = s.model.HasAnyPermission(role, perms...)
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":    role.String(),
		"allowed": allowed,
	})
}

func (s *Server) listStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := repository.ListUsersFilter{Email: q.Get("email")}
	if name := q.Get("role"); name != "" {
		role, err := domain.ParseRole(name)
		if err != nil {
			authmw.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Role = role
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	res, err := s.staff.ListStaff(r.Context(), p, page, pageSize, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	users := make([]userResponse, len(res.Users))
	for i, u := range res.Users {
		users[i] = newUserResponse(u)
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": res.Total,
	})
}

func (s *Server) createStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	role, err := domain.ParseRole(body.Role)
	if err != nil {
		authmw.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.staff.CreateStaffMember(r.Context(), p, services.NewStaffMember{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Role:     role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	authmw.WriteJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) banStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.staff.BanUser(r.Context(), p, pathParam(r, "user_id")); err != nil {
		writeServiceError(w, err)
		return
	}
	authmw.WriteJSON(w, http.StatusOK, map[string]string{"message": "User banned successfully"})
}
