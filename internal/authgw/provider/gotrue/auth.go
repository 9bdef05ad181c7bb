package gotrue

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
)

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	s, err := c.grant(ctx, "password", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	c.setSession(s, provider.EventSignedIn)
	return s, nil
}

func (c *Client) SignUp(ctx context.Context, p provider.SignUpParams) (*provider.SignUpResponse, error) {
	body := map[string]any{"email": p.Email, "password": p.Password}
	if len(p.Metadata) > 0 {
		body["data"] = p.Metadata
	}

	var q url.Values
	if p.EmailRedirectTo != "" {
		q = url.Values{"redirect_to": {p.EmailRedirectTo}}
	}

	var resp signUpJSON
	if err := c.do(ctx, http.MethodPost, "/signup", q, "", body, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return &provider.SignUpResponse{User: resp.userJSON.domain()}, nil
	}

	s, err := c.toSession(resp.tokenJSON)
	if err != nil {
		return nil, err
	}
	c.setSession(s, provider.EventSignedIn)
	return &provider.SignUpResponse{User: s.User, Session: s}, nil
}

// SignOut revokes the session server-side and forgets it locally. A session
// the service no longer knows about is still forgotten.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil {
		err := c.do(ctx, http.MethodPost, "/logout", nil, s.AccessToken, nil, nil)
		if err != nil && !provider.IsSessionGone(err) {
			return err
		}
	}

	c.setSession(nil, provider.EventSignedOut)
	return nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	if email == "" {
		return errors.New("gotrue: email is required")
	}

	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, http.MethodPost, "/recover", q, "", map[string]string{"email": email}, nil)
}
