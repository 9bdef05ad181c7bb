/*
Package authsdk is a Go client for the invoicely auth gateway, and the home
of the JSON types the gateway speaks.

# Overview

The gateway keeps one sign-in flow per browser, selected by the sid cookie.
A Client holds a cookie jar, so one Client behaves like one browser:

	c, err := authsdk.NewClient("http://localhost:8080")

	state, err := c.SignIn(ctx, "user@example.com", "secret")
	switch state.Mode {
	case authsdk.ModeMFAVerify:
		state, err = c.VerifyTOTP(ctx, authsdk.VerifyRequest{
			FactorID:       state.FactorID,
			ChallengeID:    state.ChallengeID,
			Code:           code,
			RememberDevice: true,
		})
	case authsdk.ModeMFASetup:
		enr, err := c.EnrollTOTP(ctx)
		// show enr.QRCodeURL, then VerifyTOTP with enr.FactorID
	}

# Device signals

The gateway fingerprints the browser from the User-Agent, Accept-Language,
X-Client-Timezone and X-Client-Canvas headers. Set them on Client.Headers to
act as a specific browser.

# Errors

Every non-2xx response is returned as an *APIError carrying the gateway's
error code:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeInvalidCredentials {
		// wrong email or password
	}
*/
package authsdk
