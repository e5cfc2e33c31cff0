// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
)

// Routes mounts account administration. Admins only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn, authz.RequirePermission(authz.PermAll))
		pr.Post("/{id}/disable", h.HandleDisable)
		pr.Post("/{id}/enable", h.HandleEnable)
	})
	return r
}
