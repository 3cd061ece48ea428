package http

import (
	"context"
	"net/http"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/middleware"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/services"
	"myvetstudy/internal/utils/blacklist"
	authmw "myvetstudy/internal/utils/middleware"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/cors"
)

type Options struct {
	SecretKey      string
	Blacklist      blacklist.Blacklist
	Guard          authmw.GuardOptions
	AllowedOrigins []string
}

type Server struct {
	model *permissions.Model
	staff *services.StaffService
	opts  Options
}

type paramsKey struct{}

func pathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(paramsKey{}).(map[string]string)
	return params[name]
}

// access describes how a route is protected. A nil requirement with auth
// set admits any authenticated caller.
type access struct {
	auth        bool
	requirement *permissions.Requirement
}

var (
	public        = access{}
	authenticated = access{auth: true}
)

func guarded(req permissions.Requirement) access {
	return access{auth: true, requirement: &req}
}

// NewHandler builds the REST API.
func NewHandler(model *permissions.Model, staff *services.StaffService, opts Options) (http.Handler, error) {
	s := &Server{model: model, staff: staff, opts: opts}
	mux := runtime.NewServeMux()

	routes := []struct {
		method  string
		pattern string
		access  access
		handler http.HandlerFunc
	}{
		{http.MethodPost, "/v1/login", public, s.login},
		{http.MethodPost, "/v1/logout", authenticated, s.logout},
		{http.MethodGet, "/v1/me", authenticated, s.me},
		{http.MethodPatch, "/v1/me", authenticated, s.updateMe},
		{http.MethodGet, "/v1/me/permissions", authenticated, s.myPermissions},
		{http.MethodGet, "/v1/roles/hierarchy", authenticated, s.roleHierarchy},
		{http.MethodGet, "/v1/roles/{role}/permissions", authenticated, s.rolePermissions},
		{http.MethodGet, "/v1/roles/{role_a}/compare/{role_b}", authenticated, s.compareRoles},
		{http.MethodGet, "/v1/permissions/{permission}/roles", authenticated, s.rolesWithPermission},
		{http.MethodPost, "/v1/permissions/check", authenticated, s.checkPermissions},
		{http.MethodGet, "/v1/staff", guarded(permissions.RequireAnyPermission(domain.ViewTeam)), s.listStaff},
		{http.MethodPost, "/v1/staff", guarded(permissions.RequireAllPermissions(domain.InviteTeamMember)), s.createStaff},
		{http.MethodDelete, "/v1/staff/{user_id}", guarded(permissions.RequireAllPermissions(domain.RemoveTeamMember)), s.banStaff},
	}

	for _, route := range routes {
		h := s.protect(route.access, route.handler)
		pattern := route.pattern
		err := mux.HandlePath(route.method, pattern, func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			middleware.SetRoute(r.Context(), pattern)
			h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), paramsKey{}, params)))
		})
		if err != nil {
			return nil, err
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(middleware.HTTPTracing(mux)), nil
}

func (s *Server) protect(a access, h http.Handler) http.Handler {
	if a.requirement != nil {
		h = authmw.Guard(s.model, *a.requirement, s.opts.Guard)(h)
	}
	if a.auth {
		h = authmw.HTTPAuth(s.opts.SecretKey, s.opts.Blacklist)(h)
	}
	return h
}
