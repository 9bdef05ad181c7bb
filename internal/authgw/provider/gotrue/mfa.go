package gotrue

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
)

func factorPath(id string, suffix ...string) string {
	p := "/factors/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) EnrollTOTP(ctx context.Context, friendlyName string) (*domain.TOTPEnrollment, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{"factor_type": domain.FactorTypeTOTP}
	if friendlyName != "" {
		body["friendly_name"] = friendlyName
	}

	var resp enrollJSON
	if err := c.do(ctx, http.MethodPost, "/factors", nil, token, body, &resp); err != nil {
		return nil, err
	}
	return &domain.TOTPEnrollment{
		FactorID: resp.ID,
		Secret:   resp.TOTP.Secret,
		URI:      resp.TOTP.URI,
		QRCode:   resp.TOTP.QRCode,
	}, nil
}

func (c *Client) Unenroll(ctx context.Context, factorID string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, factorPath(factorID), nil, token, nil, nil)
}

// ListFactors reads the factors embedded in the user object.
func (c *Client) ListFactors(ctx context.Context) (domain.FactorList, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return domain.FactorList{}, err
	}

	var u userJSON
	if err := c.do(ctx, http.MethodGet, "/user", nil, token, nil, &u); err != nil {
		return domain.FactorList{}, err
	}

	factors := make([]domain.Factor, 0, len(u.Factors))
	for _, f := range u.Factors {
		factors = append(factors, f.domain())
	}
	return domain.NewFactorList(factors), nil
}

func (c *Client) Challenge(ctx context.Context, factorID string) (*domain.Challenge, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp challengeJSON
	if err := c.do(ctx, http.MethodPost, factorPath(factorID, "challenge"), nil, token, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &domain.Challenge{ID: resp.ID, FactorID: factorID, ExpiresAt: time.Unix(resp.ExpiresAt, 0)}, nil
}

// Verify exchanges a code for an aal2 session.
func (c *Client) Verify(ctx context.Context, factorID, challengeID, code string) (*domain.MFAVerification, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var tok tokenJSON
	body := map[string]string{"challenge_id": challengeID, "code": code}
	if err := c.do(ctx, http.MethodPost, factorPath(factorID, "verify"), nil, token, body, &tok); err != nil {
		return nil, err
	}

	s, err := c.toSession(tok)
	if err != nil {
		return nil, err
	}
	c.setSession(s, provider.EventMFAChallengeVerified)
	return &domain.MFAVerification{Session: s, User: s.User}, nil
}
