// internal/app/features/authapi/login.go
package authapi

import (
	"errors"
	"net/http"

	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/inputval"
	"github.com/imaggar-technologies/brintelli/internal/app/system/normalize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const (
	resultOK          = "ok"
	resultBadCreds    = "bad_credentials"
	resultRateLimited = "rate_limited"
	resultInvalid     = "invalid_token"
	resultError       = "error"
)

func (h *Handler) countLogin(result string) {
	if h.Metrics != nil {
		h.Metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}

func (h *Handler) countRefresh(result string) {
	if h.Metrics != nil {
		h.Metrics.TokenRefreshes.WithLabelValues(result).Inc()
	}
}

// HandleLogin exchanges an email and password for an access token and a
// refresh token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		httpjson.FromError(w, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginRateLimited(r.Context(), r, email)
			h.countLogin(resultRateLimited)
			w.Header().Set("Retry-After", "60")
			httpjson.Error(w, http.StatusTooManyRequests, httpjson.CodeRateLimited, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.Authenticate(ctx, email, req.Password)
	if errors.Is(err, userstore.ErrBadCredentials) {
		h.AuditLog.LoginFailed(ctx, r, email)
		h.countLogin(resultBadCreds)
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.countLogin(resultError)
		httpjson.FromError(w, h.Log, err)
		return
	}

	su := userstore.SessionUserOf(u)
	resp, err := h.issue(r, su)
	if err != nil {
		h.Log.Error("issue tokens failed", zap.String("user_id", su.ID), zap.Error(err))
		h.countLogin(resultError)
		httpjson.FromError(w, h.Log, err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email, u.Role)
	h.countLogin(resultOK)
	httpjson.OK(w, resp)
}
