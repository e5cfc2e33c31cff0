// internal/app/features/leads/routes.go
package leads

import (
	"github.com/go-chi/chi/v5"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
)

// Routes mounts the lead API. Typically: r.Mount("/api/leads", leads.Routes(h))
//
// Route-level middleware only rejects callers who can never use the route.
// Per-lead ownership and stage guards are checked inside each handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.With(authz.RequirePermission(authz.PermViewLeads)).Get("/", h.ServeList)
		pr.With(authz.RequirePermission(authz.PermCreateLeads)).Post("/", h.HandleCreate)
		pr.With(authz.RequirePermission(authz.PermImportLeads)).Post("/import", h.HandleImport)

		pr.Route("/{id}", func(lr chi.Router) {
			lr.With(authz.RequirePermission(authz.PermViewLeads)).Get("/", h.ServeLead)
			lr.With(authz.RequirePermission(authz.PermViewLeads)).Get("/history", h.ServeHistory)

			lr.Put("/prescreening", h.HandleReplacePreScreening)
			lr.Patch("/prescreening", h.HandleMergePreScreening)

			lr.With(authz.RequirePermission(authz.PermViewLeads)).Get("/call-notes", h.ServeCallNotes)
			lr.Post("/call-notes", h.HandleAddCallNote)

			lr.Post("/actions/assign", h.HandleAssign)
			lr.Post("/actions/submit-assessment", h.HandleSubmitAssessment)
			lr.Post("/actions/book-assessment", h.HandleBookAssessment)
			lr.Post("/actions/advance", h.HandleAdvance)
			lr.Post("/actions/deactivate", h.HandleDeactivate)
		})
	})

	return r
}
