// internal/app/features/users/status.go
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandleDisable blocks an account from logging in and revokes its refresh
// tokens. Access tokens already issued run out on their own.
func (h *Handler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.UserStatusDisabled)
}

// HandleEnable lets a disabled account log in again.
func (h *Handler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.UserStatusActive)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "id", Message: "not a valid user id"})
		return
	}
	me, _ := auth.CurrentUser(r)
	if status == models.UserStatusDisabled && me != nil && me.ID == id.Hex() {
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "id", Message: "you cannot disable your own account"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user status")
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, httpjson.CodeNotFound, "user not found")
			return
		}
		httpjson.FromError(w, h.Log, err)
		return
	}
	if status == models.UserStatusDisabled {
		if err := h.Sessions.RevokeAll(ctx, id.Hex()); err != nil {
			h.Log.Error("revoke sessions failed", zap.String("user_id", id.Hex()), zap.Error(err))
			httpjson.FromError(w, h.Log, err)
			return
		}
	}

	actor := ""
	if me != nil {
		actor = me.Email
	}
	h.AuditLog.UserStatusChanged(ctx, r, actor, id, status)
	httpjson.OK(w, statusResponse{ID: id.Hex(), Status: status})
}
