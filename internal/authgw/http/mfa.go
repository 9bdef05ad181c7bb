package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/internal/authgw/session"
	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// MFAHandler serves TOTP enrollment and verification.
type MFAHandler struct {
	*Router
}

// HandleEnroll handles POST /v1/auth/mfa/totp/enroll
//
//	@Summary		Enroll an authenticator app
//	@Description	Discards unfinished enrollments and creates a new TOTP factor. The QR code is a
//	@Description	data URI; the secret can be typed in instead.
//	@Tags			MFA
//	@Produce		json
//	@Success		200	{object}	authsdk.EnrollResponse	"New unverified factor"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not signed in"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Enrollment refused"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		st := b.Controller.State()
		if st.Status == domain.StatusUnauthenticated {
			h.writeError(w, r, b, authsdk.ErrNotAuthenticated)
			return
		}

		enr, err := b.Controller.EnrollMFATOTP(ctx)
		if err != nil {
			log.Error("failed to enroll TOTP", "user_id", st.UserID(), "error", err)
			if pe, ok := provider.ErrorFrom(err); ok {
				h.writeError(w, r, b, authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeEnrollFailed, pe.Message))
				return
			}
			h.writeError(w, r, b, authsdk.ErrServerError)
			return
		}

		h.writeJSON(w, r, b, http.StatusOK, authsdk.EnrollResponse{
			FactorID:  enr.FactorID,
			Secret:    enr.Secret,
			QRCodeURL: enr.QRCodeURL,
		})
	})
}

// HandleVerify handles POST /v1/auth/mfa/totp/verify
//
//	@Summary		Verify a TOTP code
//	@Description	Completes enrollment (no challenge_id) or a sign-in challenge. With
//	@Description	remember_device the browser skips MFA on later sign-ins until trust expires.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyRequest	true	"Code and factor"
//	@Success		200		{object}	authsdk.StateResponse	"State after verification"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Not signed in"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		var req authsdk.VerifyRequest
		if !h.decode(w, r, b, &req) {
			return
		}

		st := b.Controller.State()
		if st.Status == domain.StatusUnauthenticated {
			h.writeError(w, r, b, authsdk.ErrNotAuthenticated)
			return
		}

		version := b.Controller.Version()
		_, err := b.Controller.VerifyMFATOTP(ctx, session.VerifyInput{
			FactorID:       req.FactorID,
			Code:           req.Code,
			ChallengeID:    req.ChallengeID,
			RememberDevice: req.RememberDevice,
		})
		if err != nil {
			log.Info("TOTP verification failed", "user_id", st.UserID(), "error", err)
			h.writeError(w, r, b, verifyError(err))
			return
		}

		h.settle(ctx, b, version, statusIs(domain.StatusAuthenticated))
		h.writeState(w, r, b)
	})
}

func verifyError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrMissingFactorID):
		return authsdk.ErrInvalidRequest.WithDescription(err.Error())
	case errors.Is(err, service.ErrInvalidCode):
		return authsdk.ErrInvalidCode.WithDescription(err.Error())
	}
	if pe, ok := provider.ErrorFrom(err); ok {
		return authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeVerifyFailed, pe.Message)
	}
	return authsdk.ErrServerError
}
