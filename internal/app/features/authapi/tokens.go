// internal/app/features/authapi/tokens.go
package authapi

import (
	"errors"
	"net/http"

	"github.com/imaggar-technologies/brintelli/internal/app/store/refreshtokens"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/inputval"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// issue mints a fresh token pair for su.
func (h *Handler) issue(r *http.Request, su *auth.SessionUser) (tokenResponse, error) {
	access, exp, err := h.Tokens.Issue(*su)
	if err != nil {
		return tokenResponse{}, err
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "refresh token issue")
	defer cancel()
	refresh, err := h.Refresh.Issue(ctx, su.ID)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		User:         toUserView(su),
		Token:        access,
		ExpiresAt:    exp,
		RefreshToken: refresh,
	}, nil
}

// HandleRefresh rotates a refresh token. The presented token is consumed
// whatever happens next, so a replayed token always fails.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "token refresh")
	defer cancel()

	sess, next, err := h.Refresh.Rotate(ctx, req.RefreshToken)
	if errors.Is(err, refreshtokens.ErrInvalidToken) {
		h.AuditLog.TokenRefreshFailed(ctx, r, "invalid or expired refresh token")
		h.countRefresh(resultInvalid)
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "session expired; sign in again")
		return
	}
	if err != nil {
		h.countRefresh(resultError)
		httpjson.FromError(w, h.Log, err)
		return
	}

	su := h.Fetcher.FetchUser(ctx, sess.UserID)
	if su == nil {
		_ = h.Refresh.Revoke(ctx, next)
		h.AuditLog.TokenRefreshFailed(ctx, r, "user missing or disabled")
		h.countRefresh(resultInvalid)
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "session expired; sign in again")
		return
	}

	access, exp, err := h.Tokens.Issue(*su)
	if err != nil {
		h.Log.Error("issue access token failed", zap.String("user_id", su.ID), zap.Error(err))
		h.countRefresh(resultError)
		httpjson.FromError(w, h.Log, err)
		return
	}

	if oid, err := primitive.ObjectIDFromHex(su.ID); err == nil {
		h.AuditLog.TokenRefreshed(ctx, r, oid, su.Email)
	}
	h.countRefresh(resultOK)
	httpjson.OK(w, tokenResponse{
		User:         toUserView(su),
		Token:        access,
		ExpiresAt:    exp,
		RefreshToken: next,
	})
}

// HandleLogout revokes the refresh token. Unknown tokens are not an error,
// so logging out twice succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	if req.RefreshToken != "" {
		if err := h.Refresh.Revoke(ctx, req.RefreshToken); err != nil {
			httpjson.FromError(w, h.Log, err)
			return
		}
	}
	email := ""
	if u, ok := auth.CurrentUser(r); ok {
		email = u.Email
	}
	h.AuditLog.Logout(ctx, r, email)
	httpjson.OK(w, map[string]bool{"loggedOut": true})
}

// ServeMe returns the signed-in user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	httpjson.OK(w, map[string]userView{"user": toUserView(u)})
}
