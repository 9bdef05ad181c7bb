package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/flow"
	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// FlowHandler serves screen navigation.
type FlowHandler struct {
	*Router
}

// HandleMode handles POST /v1/auth/mode
//
//	@Summary		Switch screen
//	@Description	Moves between the login, signup and forgot screens. Refused while an MFA step
//	@Description	is in progress or the user is signed in.
//	@Tags			Flow
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ModeRequest		true	"Target mode"
//	@Success		200		{object}	authsdk.StateResponse	"State with the new mode"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Unknown mode"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Not available from the current screen"
//	@Router			/v1/auth/mode [post].
func (h *FlowHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		var req authsdk.ModeRequest
		if !h.decode(w, r, b, &req) {
			return
		}
		mode, err := flow.ParseMode(req.Mode)
		if err != nil {
			h.writeError(w, r, b, authsdk.ErrInvalidRequest.WithDescription(err.Error()))
			return
		}

		// Bring the machine up to date before judging the transition.
		b.Flow.Apply(b.Controller.State())
		if err := b.Flow.Switch(mode); err != nil {
			h.writeError(w, r, b, authsdk.ErrInvalidTransition.WithDescription(err.Error()))
			return
		}
		h.writeState(w, r, b)
	})
}

// HandleBack handles POST /v1/auth/back
//
//	@Summary		Leave the MFA step
//	@Description	Signs out, keeping the device remembered, and returns to login.
//	@Tags			Flow
//	@Produce		json
//	@Success		200	{object}	authsdk.StateResponse	"State after backing out"
//	@Failure		409	{object}	authsdk.ErrorResponse	"No MFA step in progress"
//	@Router			/v1/auth/back [post].
func (h *FlowHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.withBundle(w, r, func(b *Bundle) {
		ctx := r.Context()

		b.Flow.Apply(b.Controller.State())
		version := b.Controller.Version()
		if err := b.Flow.Back(ctx); err != nil {
			if errors.Is(err, flow.ErrInvalidTransition) {
				h.writeError(w, r, b, authsdk.ErrInvalidTransition.WithDescription(err.Error()))
				return
			}
			// The flow is back on login either way.
			slogx.FromContext(ctx).Warn("sign out while backing out failed", "error", err)
		} else {
			h.settle(ctx, b, version, statusIs(domain.StatusUnauthenticated))
		}
		h.writeState(w, r, b)
	})
}
