package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to the gateway as one browser. It is safe for concurrent
// use, though the gateway serialises requests from the same browser.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Headers are sent with every request, e.g. User-Agent and the
	// X-Client-* device signals.
	Headers http.Header
}

// NewClient returns a Client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		Headers: http.Header{},
	}, nil
}

// State returns the current auth state and screen.
func (c *Client) State(ctx context.Context) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/auth/state", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn submits credentials and returns the state that followed.
func (c *Client) SignIn(ctx context.Context, email, password string) (*StateResponse, error) {
	var out StateResponse
	req := SignInRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signin", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignUp registers an account. A refused sign-up is reported in the
// response, not as an error.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	var out SignUpResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signup", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context, clearDevice bool) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signout", SignOutRequest{ClearDevice: clearDevice}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/password/reset", ResetPasswordRequest{Email: email}, nil, http.StatusNoContent)
}

// SetMode switches between the login, sign-up and forgot-password screens.
func (c *Client) SetMode(ctx context.Context, mode string) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/mode", ModeRequest{Mode: mode}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Back abandons the MFA step and returns to login.
func (c *Client) Back(ctx context.Context) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/back", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EnrollTOTP(ctx context.Context) (*EnrollResponse, error) {
	var out EnrollResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/mfa/totp/enroll", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTOTP submits a code and returns the state that followed.
func (c *Client) VerifyTOTP(ctx context.Context, req VerifyRequest) (*StateResponse, error) {
	var out StateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/mfa/totp/verify", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
