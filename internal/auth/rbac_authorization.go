package auth

import (
	"log/slog"
	"net/http"
)

// RBACAuthorization gates route groups on the resolved capability set.
// It is advisory API gating; the database's row-level rules remain the
// authoritative enforcement.
type RBACAuthorization struct {
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{logger: logger}
}

func (ra *RBACAuthorization) require(check func(*User) bool, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !check(user) {
				ra.logger.WarnContext(r.Context(), denied,
					"user_id", user.ID,
					"role", user.Role)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminView admits any admin role, including read-only viewers.
func (ra *RBACAuthorization) RequireAdminView() func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool {
		return u.IsAdminRole() && u.Capabilities.CanView
	}, "access denied: admin view required")
}

// RequireEditor admits roles that can mutate processes and documents.
func (ra *RBACAuthorization) RequireEditor() func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool {
		return u.Capabilities.CanEdit && u.Capabilities.CanManageProcesses
	}, "access denied: editor role required")
}

// RequireUserManagement admits roles that can create and manage users.
func (ra *RBACAuthorization) RequireUserManagement() func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool {
		return u.Capabilities.CanManageUsers
	}, "access denied: user management required")
}
