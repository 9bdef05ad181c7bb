package domain

import "time"

const (
	FactorTypeTOTP = "totp"

	FactorStatusVerified   = "verified"
	FactorStatusUnverified = "unverified"
)

// Factor is a second-factor credential owned by the identity provider.
type Factor struct {
	ID           string    `json:"id"`
	Type         string    `json:"factor_type"`
	Status       string    `json:"status"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (f Factor) Verified() bool { return f.Status == FactorStatusVerified }

// FactorList is the provider's listing: All in provider order, TOTP holds only
// the verified TOTP factors (a subset of All, same order).
type FactorList struct {
	All  []Factor
	TOTP []Factor
}

// NewFactorList splits factors into the listing shape.
func NewFactorList(factors []Factor) FactorList {
	list := FactorList{All: factors}
	for _, f := range factors {
		if f.Type == FactorTypeTOTP && f.Verified() {
			list.TOTP = append(list.TOTP, f)
		}
	}
	return list
}

// Challenge is one verification attempt window for a factor.
type Challenge struct {
	ID        string
	FactorID  string
	ExpiresAt time.Time
}

// TOTPEnrollment is what the provider returns for a new factor. URI is the
// otpauth:// URI; QRCode may be SVG markup, a data URI, or empty.
type TOTPEnrollment struct {
	FactorID string
	Secret   string
	URI      string
	QRCode   string
}

// MFAEnrollment is handed to the UI: QRCodeURL is always a renderable data URI
// or empty when no image could be produced.
type MFAEnrollment struct {
	FactorID  string `json:"factor_id"`
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
}

// MFAState is the resolver's verdict for a signed-in user.
type MFAState struct {
	NeedsMFA    bool
	ChallengeID string
	FactorID    string
}

// MFAVerification is the provider response to a successful verify. Session
// is the upgraded (aal2) session.
type MFAVerification struct {
	Session *Session
	User    *User
}
