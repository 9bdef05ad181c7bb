package domain

// SignUpError classifies a failed sign-up.
type SignUpError string

const (
	SignUpErrProvider         SignUpError = "SignupError"
	SignUpErrExistsUnverified SignUpError = "AccountExistsUnverified"
	SignUpErrUnexpected       SignUpError = "UnexpectedError"
)

const (
	MsgSignUpSuccess          = "Account created successfully! Please check your email to verify your account before signing in."
	MsgSignUpExistsUnverified = "An account with this email already exists but is not yet verified. Please check your email for confirmation."
	MsgSignUpUnexpected       = "Unexpected error. Please try again."
)

// SignUpResult is returned to the sign-up form. Error is empty on success.
type SignUpResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   SignUpError `json:"error,omitempty"`
}

// SignUpInput carries the form fields. DisplayName and CompanyName become
// user metadata when set.
type SignUpInput struct {
	Email           string
	Password        string
	DisplayName     string
	CompanyName     string
	EmailRedirectTo string
}

// Metadata returns the profile metadata, or nil when both fields are empty.
func (in SignUpInput) Metadata() map[string]any {
	md := map[string]any{}
	if in.DisplayName != "" {
		md["display_name"] = in.DisplayName
	}
	if in.CompanyName != "" {
		md["company_name"] = in.CompanyName
	}
	if len(md) == 0 {
		return nil
	}
	return md
}
