package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spanow/ummati/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges an email and password for a credential and the user.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Credentials, error) {
	var creds domain.Credentials
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: email, Password: password},
	}, &creds)
	if err != nil {
		return domain.Credentials{}, err
	}
	if creds.Token == "" {
		return domain.Credentials{}, &domain.NetworkError{Op: "login", StatusCode: http.StatusOK, Message: "response carried no token"}
	}
	return creds, nil
}

// Profile returns the user the current credential belongs to.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, request{
		op:     "profile",
		method: http.MethodGet,
		path:   "/auth/me",
	}, &user)
	return user, err
}

// UpdateProfile applies upd to the user and returns the server's view of
// it, which may be partial.
func (c *Client) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, request{
		op:     "update profile",
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(userID),
		body:   upd,
	}, &user)
	return user, err
}
