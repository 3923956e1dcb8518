package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/mind-engage/diagquest/internal/rbac"
)

// AttachRoleFromDB replaces the token's role and aluno id with the stored
// ones, so role changes apply before the token expires. allowClaimFallback
// keeps the token claims for subjects missing from the users table
// (offline mode).
func AttachRoleFromDB(users *UserRepo, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			u, err := users.FindByID(ctx, rbac.SubjectFromContext(ctx))
			switch {
			case err == nil:
				ctx = rbac.WithRole(ctx, u.Role)
				ctx = rbac.WithStudentID(ctx, u.AlunoID)
				next.ServeHTTP(w, r.WithContext(ctx))
			case allowClaimFallback && errors.Is(err, sql.ErrNoRows) && rbac.RoleFromContext(ctx) != "":
				next.ServeHTTP(w, r)
			case errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusForbidden, "forbidden")
			default:
				writeError(w, http.StatusInternalServerError, "identity lookup failed")
			}
		})
	}
}
