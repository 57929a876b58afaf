package auth

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-bigfive/internal/rbac"
)

// AttachOwnerRole sets the owner role when the request's "key" query
// parameter matches the bcrypt hash of the owner secret. Everyone else is
// a visitor. An empty hash disables the owner role entirely.
func AttachOwnerRole(secretHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := rbac.RoleVisitor
			if key := r.URL.Query().Get("key"); key != "" && secretHash != "" {
				if bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(key)) == nil {
					role = rbac.RoleOwner
				}
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(r.Context(), role)))
		})
	}
}
