// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
)

// Actor is the caller as the permission and visibility rules see it: a
// role plus the identity (email) used for lead ownership.
type Actor struct {
	Role     Role
	Identity string
	Name     string
}

// Can reports whether the actor's role holds perm.
func (a Actor) Can(perm Permission) bool { return Has(a.Role, perm) }

// UserCtx returns the caller as an Actor and a found flag. Without a signed-in
// user it returns a zero Actor, which holds no permissions.
// Role and identity are normalized to lowercase.
func UserCtx(r *http.Request) (Actor, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{
		Role:     Role(strings.ToLower(strings.TrimSpace(user.Role))),
		Identity: strings.ToLower(strings.TrimSpace(user.Email)),
		Name:     user.Name,
	}, true
}

// Can reports whether the current request's user holds perm.
// Returns false if no user is present (i.e., not signed in).
func Can(r *http.Request, perm Permission) bool {
	a, ok := UserCtx(r)
	return ok && a.Can(perm)
}

// RequirePermission rejects requests whose user lacks every one of perms.
// Missing users get 401, signed-in users without the permission get 403.
func RequirePermission(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := UserCtx(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
				return
			}
			if !HasAny(a.Role, perms...) {
				httpjson.Error(w, http.StatusForbidden, httpjson.CodeForbidden, "you do not have permission to do that")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
