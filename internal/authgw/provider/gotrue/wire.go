package gotrue

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
)

type identityJSON struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type factorJSON struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name"`
	FactorType   string    `json:"factor_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type userJSON struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	Identities       []identityJSON `json:"identities"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	Factors          []factorJSON   `json:"factors,omitempty"`
}

type tokenJSON struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *userJSON `json:"user"`
}

// signUpJSON is either a token response (auto-confirm) or a bare user.
type signUpJSON struct {
	tokenJSON
	userJSON
}

type enrollJSON struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	TOTP struct {
		QRCode string `json:"qr_code"`
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	} `json:"totp"`
}

type challengeJSON struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ExpiresAt int64  `json:"expires_at"`
}

// errorJSON covers the three error shapes the service has used over time:
// {"code":400,"error_code":"...","msg":"..."}, {"error":"...",
// "error_description":"..."} and {"message":"..."}.
type errorJSON struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseError(status int, body []byte) *provider.Error {
	var e errorJSON
	_ = json.Unmarshal(body, &e)

	pe := &provider.Error{Status: status, Code: e.ErrorCode}
	if pe.Code == "" {
		pe.Code = e.Error
	}

	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if strings.TrimSpace(m) != "" {
			pe.Message = m
			break
		}
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(status)
	}
	return pe
}

func (u *userJSON) domain() *domain.User {
	if u == nil || u.ID == "" {
		return nil
	}

	out := &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		Identities:       make([]domain.Identity, 0, len(u.Identities)),
		Metadata:         u.UserMetadata,
		EmailConfirmedAt: u.EmailConfirmedAt,
	}
	for _, id := range u.Identities {
		out.Identities = append(out.Identities, domain.Identity{ID: id.ID, Provider: id.Provider})
	}
	return out
}

func (f factorJSON) domain() domain.Factor {
	return domain.Factor{
		ID:           f.ID,
		Type:         f.FactorType,
		Status:       f.Status,
		FriendlyName: f.FriendlyName,
		CreatedAt:    f.CreatedAt,
	}
}
