package authsdk

// Flow modes returned in StateResponse.Mode.
const (
	ModeLogin     = "login"
	ModeSignUp    = "signup"
	ModeForgot    = "forgot"
	ModeMFASetup  = "mfaSetup"
	ModeMFAVerify = "mfaVerify"
	ModeDone      = "done"
)

// Auth statuses returned in StateResponse.Status.
const (
	StatusUnauthenticated     = "unauthenticated"
	StatusAuthenticated       = "authenticated"
	StatusMFASetupPending     = "mfaSetupPending"
	StatusMFAChallengePending = "mfaChallengePending"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// UserInfo is the signed-in user as shown to the UI.
type UserInfo struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// StateResponse is the browser's current auth state and the screen to show.
type StateResponse struct {
	Status      string    `json:"status"`
	Mode        string    `json:"mode"`
	// Loading is true until the first auth state has been derived.
	Loading     bool      `json:"loading"`
	User        *UserInfo `json:"user,omitempty"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	FactorID    string    `json:"factor_id,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// SignUpResponse mirrors the sign-up outcome. Error is one of SignupError,
// AccountExistsUnverified or UnexpectedError when Success is false.
type SignUpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type SignOutRequest struct {
	// ClearDevice also forgets this browser's device trust.
	ClearDevice bool `json:"clear_device"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

// EnrollResponse carries a new, unverified TOTP factor. QRCodeURL is a data
// URI and may be empty when it could not be rendered.
type EnrollResponse struct {
	FactorID  string `json:"factor_id"`
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
}

// VerifyRequest submits a TOTP code. ChallengeID is empty during enrollment.
type VerifyRequest struct {
	FactorID       string `json:"factor_id"`
	ChallengeID    string `json:"challenge_id,omitempty"`
	Code           string `json:"code"`
	RememberDevice bool   `json:"remember_device"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the per-dependency status on /readyz.
type HealthChecks struct {
	DeviceStore string `json:"device_store"`
	Sessions    string `json:"sessions"`
}
