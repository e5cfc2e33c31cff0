package apiclient

import (
	"context"
	"net/http"
	"time"
)

// User is the signed-in user as reported by the server.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the data of a login or refresh response.
type Session struct {
	User         User      `json:"user"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
	RefreshToken string    `json:"refreshToken"`
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	payload, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	status, env, err := c.send(ctx, http.MethodPost, "/api/auth/login", payload, "")
	if err != nil {
		return nil, err
	}
	var s Session
	if err := decode(status, env, &s); err != nil {
		return nil, err
	}
	if err := c.setTokens(s.Token, s.RefreshToken); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout revokes the refresh token and clears local tokens. Local tokens
// are cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	rt := c.Tokens.Refresh()
	defer func() { _ = c.Tokens.Clear() }()
	if rt == "" {
		return nil
	}
	payload, err := jsonBody(map[string]string{"refreshToken": rt})
	if err != nil {
		return err
	}
	status, env, err := c.send(ctx, http.MethodPost, "/api/auth/logout", payload, c.Tokens.Access())
	if err != nil {
		return err
	}
	return decode(status, env, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
