// internal/app/features/authapi/types.go
package authapi

import (
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/auth"
	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
)

// Config carries the settings NewHandler needs beyond its stores.
type Config struct {
	RefreshTTL time.Duration
	Limiter    *ratelimit.LoginLimiter
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254" label:"Email"`
	Password string `json:"password" validate:"required,max=256" label:"Password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,max=128" label:"Refresh token"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserView(u *auth.SessionUser) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// tokenResponse is the data of a successful login or refresh.
type tokenResponse struct {
	User         userView  `json:"user"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
	RefreshToken string    `json:"refreshToken"`
}
