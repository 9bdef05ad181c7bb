package authsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/httpx"
)

func TestClientSendsHeadersAndCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/state":
			require.Equal(t, "Australia/Sydney", r.Header.Get("X-Client-Timezone"))
			if _, err := r.Cookie("sid"); err != nil {
				http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
				httpx.WriteJSON(w, http.StatusOK, authsdk.StateResponse{Status: authsdk.StatusUnauthenticated, Mode: authsdk.ModeLogin, Loading: true})
				return
			}
			httpx.WriteJSON(w, http.StatusOK, authsdk.StateResponse{Status: authsdk.StatusUnauthenticated, Mode: authsdk.ModeLogin})
		case "/v1/auth/password/reset":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := authsdk.NewClient(srv.URL + "/")
	require.NoError(t, err)
	c.Headers.Set("X-Client-Timezone", "Australia/Sydney")

	ctx := context.Background()
	st, err := c.State(ctx)
	require.NoError(t, err)
	require.True(t, st.Loading)

	st, err = c.State(ctx)
	require.NoError(t, err)
	require.False(t, st.Loading)

	require.NoError(t, c.ResetPassword(ctx, "user@example.com"))
}

func TestClientReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/signin" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := authsdk.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.SignIn(context.Background(), "user@example.com", "wrong")
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidCredentials, apiErr.Code)

	_, err = c.Livez(context.Background())
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeServerError, apiErr.Code)
}
