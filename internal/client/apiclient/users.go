package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// UserStatus is the response of DisableUser and EnableUser.
type UserStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DisableUser blocks an account and revokes its refresh tokens. Admin only.
func (c *Client) DisableUser(ctx context.Context, id string) (*UserStatus, error) {
	return c.userStatus(ctx, id, "disable")
}

// EnableUser lets a disabled account log in again. Admin only.
func (c *Client) EnableUser(ctx context.Context, id string) (*UserStatus, error) {
	return c.userStatus(ctx, id, "enable")
}

func (c *Client) userStatus(ctx context.Context, id, verb string) (*UserStatus, error) {
	var out UserStatus
	if err := c.Do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(id)+"/"+verb, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
