package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// AuthHandler serves the credential endpoints.
type AuthHandler struct {
	*Router
}

// HandleState handles GET /v1/auth/state
//
//	@Summary		Current auth state
//	@Description	Returns the browser's auth status and the screen the UI should show.
//	@Description	A browser without a session cookie gets a new one.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.StateResponse	"Current state"
//	@Failure		429	{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/state [get].
func (h *AuthHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		h.writeState(w, r, b)
	})
}

// HandleSignIn handles POST /v1/auth/signin
//
//	@Summary		Sign in with email and password
//	@Description	Checks the credentials, then waits briefly for the resulting state. The
//	@Description	returned mode says whether MFA setup or verification comes next.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.StateResponse	"State after sign-in"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Sign-in failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid login credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/signin [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		var req authsdk.SignInRequest
		if !h.decode(w, r, b, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			h.writeError(w, r, b, authsdk.ErrInvalidRequest.WithDescription("email and password are required"))
			return
		}

		version := b.Controller.Version()
		if err := b.Controller.SignIn(ctx, req.Email, req.Password); err != nil {
			if provider.IsInvalidCredentials(err) {
				log.Info("sign in rejected", "error", err)
				h.writeError(w, r, b, authsdk.ErrInvalidCredentials)
				return
			}
			log.Warn("sign in failed", "error", err)
			h.writeError(w, r, b, authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeSignInFailed, signInMessage(err)))
			return
		}

		h.settle(ctx, b, version, statusIsNot(domain.StatusUnauthenticated))
		h.writeState(w, r, b)
	})
}

func signInMessage(err error) string {
	if pe, ok := provider.ErrorFrom(err); ok {
		return pe.Message
	}
	if errors.Is(err, service.ErrNoUserAfterSignIn) {
		return service.MsgNoUserAfterSignIn
	}
	return "Sign in failed"
}

// HandleSignUp handles POST /v1/auth/signup
//
//	@Summary		Create an account
//	@Description	Registers an account and sends a confirmation email. Refusals are reported
//	@Description	in the body with success=false; they are not HTTP errors.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest	true	"Account details"
//	@Success		200		{object}	authsdk.SignUpResponse	"Sign-up outcome"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		var req authsdk.SignUpRequest
		if !h.decode(w, r, b, &req) {
			return
		}

		res := b.Controller.SignUp(r.Context(), domain.SignUpInput{
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
			CompanyName: req.CompanyName,
		})
		if res.Success {
			b.Flow.Reset()
		}
		h.writeJSON(w, r, b, http.StatusOK, authsdk.SignUpResponse{
			Success: res.Success,
			Message: res.Message,
			Error:   string(res.Error),
		})
	})
}

// HandleSignOut handles POST /v1/auth/signout
//
//	@Summary		Sign out
//	@Description	Ends the session. With clear_device the browser's device trust is forgotten too.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignOutRequest	false	"Sign-out options"
//	@Success		200		{object}	authsdk.StateResponse	"State after sign-out"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Identity provider refused"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/signout [post].
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		ctx := r.Context()

		var req authsdk.SignOutRequest
		if !h.decode(w, r, b, &req) {
			return
		}

		wasSignedIn := b.Controller.State().Status != domain.StatusUnauthenticated
		version := b.Controller.Version()
		if err := b.Controller.SignOut(ctx, req.ClearDevice); err != nil {
			h.writeError(w, r, b, providerError(err))
			return
		}
		if wasSignedIn {
			h.settle(ctx, b, version, statusIs(domain.StatusUnauthenticated))
		}
		h.writeState(w, r, b)
	})
}

// HandleResetPassword handles POST /v1/auth/password/reset
//
//	@Summary		Request a password reset email
//	@Description	Sends a reset link pointing at the app's reset-password page. Unknown
//	@Description	addresses succeed silently.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.ResetPasswordRequest	true	"Email address"
//	@Success		204		"Reset requested"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Identity provider refused"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/password/reset [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		var req authsdk.ResetPasswordRequest
		if !h.decode(w, r, b, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			h.writeError(w, r, b, authsdk.ErrInvalidRequest.WithDescription("email is required"))
			return
		}

		if err := b.Controller.ResetPasswordForEmail(r.Context(), req.Email); err != nil {
			h.writeError(w, r, b, providerError(err))
			return
		}
		b.Flow.Reset()

		h.syncDeviceCookie(w, r, b)
		w.WriteHeader(http.StatusNoContent)
	})
}

// providerError passes the identity provider's message through. Errors the
// provider did not produce are hidden behind server_error.
func providerError(err error) *authsdk.APIError {
	pe, ok := provider.ErrorFrom(err)
	if !ok {
		return authsdk.ErrServerError
	}
	status := http.StatusBadGateway
	if pe.Status >= 400 && pe.Status < 500 {
		status = http.StatusBadRequest
	}
	return authsdk.NewAPIError(status, authsdk.ErrorCodeProviderError, pe.Message)
}
