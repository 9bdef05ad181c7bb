package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/httpx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// bundle returns the browser's bundle, creating one (and its sid cookie)
// when the request has no live session. The bundle is returned locked;
// callers must call release.
func (r *Router) bundle(w http.ResponseWriter, req *http.Request) (*Bundle, error) {
	if c, err := req.Cookie(SessionCookie); err == nil {
		if b, ok := r.Sessions.Lookup(c.Value); ok {
			b.mu.Lock()
			return b, nil
		}
	}

	var seed *domain.DeviceToken
	if r.Cookies != nil {
		seed = r.Cookies.Read(req)
	}
	b, err := r.Sessions.Create(SignalsFromRequest(req), seed)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    b.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	b.mu.Lock()
	return b, nil
}

func release(b *Bundle) { b.mu.Unlock() }

// withBundle runs fn with the browser's locked bundle.
func (r *Router) withBundle(w http.ResponseWriter, req *http.Request, fn func(b *Bundle)) {
	b, err := r.bundle(w, req)
	if err != nil {
		slogx.FromContext(req.Context()).Error("failed to create browser session", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	defer release(b)
	fn(b)
}

// syncDeviceCookie must run before the response header is written.
func (r *Router) syncDeviceCookie(w http.ResponseWriter, req *http.Request, b *Bundle) {
	if r.Cookies == nil {
		return
	}
	tok, err := b.cache.Load()
	if err != nil {
		slogx.FromContext(req.Context()).Warn("failed to read device trust", "error", err)
		return
	}
	if err := r.Cookies.Write(w, req, tok); err != nil {
		slogx.FromContext(req.Context()).Warn("failed to write device trust cookie", "error", err)
	}
}

func (r *Router) writeJSON(w http.ResponseWriter, req *http.Request, b *Bundle, code int, v any) {
	r.syncDeviceCookie(w, req, b)
	httpx.WriteJSON(w, code, v)
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, b *Bundle, e *authsdk.APIError) {
	r.syncDeviceCookie(w, req, b)
	e.WriteError(w)
}

func (r *Router) writeState(w http.ResponseWriter, req *http.Request, b *Bundle) {
	r.writeJSON(w, req, b, http.StatusOK, stateResponse(b))
}

func stateResponse(b *Bundle) authsdk.StateResponse {
	st := b.Controller.State()
	resp := authsdk.StateResponse{
		Status:      string(st.Status),
		Mode:        string(b.Flow.Apply(st)),
		Loading:     b.Controller.Loading(),
		ChallengeID: st.ChallengeID,
		FactorID:    st.FactorID,
	}
	if st.User != nil {
		resp.User = &authsdk.UserInfo{ID: st.User.ID, Email: st.User.Email, Metadata: st.User.Metadata}
	}
	return resp
}

// settle waits for a state accepted by ok that is newer than version. On
// timeout the current state stands.
func (r *Router) settle(ctx context.Context, b *Bundle, version uint64, ok func(domain.AuthState) bool) {
	timeout := r.SettleTimeout
	if timeout <= 0 {
		timeout = DefaultSettleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		st, v, err := b.Controller.Wait(ctx, version)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				slogx.FromContext(ctx).Debug("stopped waiting for auth state", "error", err)
			}
			return
		}
		if ok(st) {
			return
		}
		version = v
	}
}

func statusIs(want domain.AuthStatus) func(domain.AuthState) bool {
	return func(st domain.AuthState) bool { return st.Status == want }
}

func statusIsNot(unwanted domain.AuthStatus) func(domain.AuthState) bool {
	return func(st domain.AuthState) bool { return st.Status != unwanted }
}

// decode reads a JSON body, writing invalid_request on failure.
func (r *Router) decode(w http.ResponseWriter, req *http.Request, b *Bundle, v any) bool {
	if err := httpx.DecodeJSON(w, req, v); err != nil {
		slogx.FromContext(req.Context()).Warn("failed to parse request", "error", err)
		r.writeError(w, req, b, authsdk.ErrInvalidRequest.WithDescription("Invalid JSON body"))
		return false
	}
	return true
}
