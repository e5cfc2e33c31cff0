// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
)

// Routes serves GET / for anyone with department-wide visibility. Category
// narrowing for non-admins happens in ServeList.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireSignedIn, authz.RequirePermission(authz.PermViewDepartment)).Get("/", h.ServeList)
	return r
}
