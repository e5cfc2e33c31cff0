// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
)

// Routes mounts the auth endpoints. Typically: r.Mount("/api/auth", authapi.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh", h.HandleRefresh)
	r.Post("/logout", h.HandleLogout)
	r.With(auth.RequireSignedIn).Get("/me", h.ServeMe)
	return r
}
