package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
	"github.com/aussiebroadwan/invoicely/pkg/qrx"
)

const (
	totpPeriod = 30
	totpSkew   = 1
)

var errFactorNotFound = provider.Errorf(404, "mfa_factor_not_found", "Factor not found")

func (c *Client) EnrollTOTP(ctx context.Context, friendlyName string) (*domain.TOTPEnrollment, error) {
	if err := c.b.fault(OpEnroll); err != nil {
		return nil, err
	}
	u, _, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	b := c.b
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      b.cfg.Issuer,
		AccountName: u.Email,
		Period:      totpPeriod,
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: generate totp: %w", err)
	}

	b.mu.Lock()
	for _, f := range u.factors {
		if friendlyName != "" && f.FriendlyName == friendlyName {
			b.mu.Unlock()
			return nil, provider.Errorf(422, "mfa_factor_name_conflict",
				fmt.Sprintf("A factor with the friendly name %q for this user already exists", friendlyName))
		}
	}
	if len(u.factors) >= MaxFactors {
		b.mu.Unlock()
		return nil, provider.Errorf(422, "too_many_enrolled_mfa_factors", "Maximum number of enrolled factors reached, unenroll to continue")
	}

	f := &factor{
		Factor: domain.Factor{
			ID:           uuid.NewString(),
			Type:         domain.FactorTypeTOTP,
			Status:       domain.FactorStatusUnverified,
			FriendlyName: friendlyName,
			CreatedAt:    b.now(),
		},
		secret: key.Secret(),
	}
	u.factors = append(u.factors, f)
	format := b.cfg.QRFormat
	b.mu.Unlock()

	out := &domain.TOTPEnrollment{FactorID: f.ID, Secret: key.Secret()}
	switch format {
	case QRFormatURI:
		out.URI = key.URL()
		out.QRCode, _ = qrx.SVG(out.URI)
	case QRFormatSVG:
		if out.QRCode, err = qrx.SVG(key.URL()); err != nil {
			return nil, err
		}
	case QRFormatDataURI:
		if out.QRCode, err = qrx.PNGDataURI(key.URL(), qrx.DefaultSize); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) Unenroll(ctx context.Context, factorID string) error {
	if err := c.b.fault(OpUnenroll); err != nil {
		return err
	}
	u, claims, err := c.authed(ctx)
	if err != nil {
		return err
	}

	b := c.b
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(u.factors, func(f *factor) bool { return f.ID == factorID })
	if i < 0 {
		return errFactorNotFound
	}
	if u.factors[i].Verified() && !claims.HasMFA() {
		return provider.Errorf(422, "insufficient_aal", "AAL2 required to unenroll verified factor")
	}

	u.factors = slices.Delete(u.factors, i, i+1)
	for id, ch := range b.challenges {
		if ch.factorID == factorID {
			delete(b.challenges, id)
		}
	}
	return nil
}

func (c *Client) ListFactors(ctx context.Context) (domain.FactorList, error) {
	if err := c.b.fault(OpListFactors); err != nil {
		return domain.FactorList{}, err
	}
	u, _, err := c.authed(ctx)
	if err != nil {
		return domain.FactorList{}, err
	}

	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	factors := make([]domain.Factor, 0, len(u.factors))
	for _, f := range u.factors {
		factors = append(factors, f.Factor)
	}
	return domain.NewFactorList(factors), nil
}

func (c *Client) Challenge(ctx context.Context, factorID string) (*domain.Challenge, error) {
	if err := c.b.fault(OpChallenge); err != nil {
		return nil, err
	}
	u, _, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	b := c.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if !slices.ContainsFunc(u.factors, func(f *factor) bool { return f.ID == factorID }) {
		return nil, errFactorNotFound
	}

	ch := &challenge{
		id:        uuid.NewString(),
		factorID:  factorID,
		userID:    u.ID,
		expiresAt: b.now().Add(b.cfg.ChallengeTTL),
	}
	b.challenges[ch.id] = ch
	return &domain.Challenge{ID: ch.id, FactorID: factorID, ExpiresAt: ch.expiresAt}, nil
}

// Verify checks code against the challenge. A wrong code leaves the challenge
// usable for another attempt; success consumes it, marks the factor verified
// and upgrades the session to aal2.
func (c *Client) Verify(ctx context.Context, factorID, challengeID, code string) (*domain.MFAVerification, error) {
	if err := c.b.fault(OpVerify); err != nil {
		return nil, err
	}
	u, claims, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	b := c.b
	b.mu.Lock()

	i := slices.IndexFunc(u.factors, func(f *factor) bool { return f.ID == factorID })
	if i < 0 {
		b.mu.Unlock()
		return nil, errFactorNotFound
	}
	f := u.factors[i]

	ch, ok := b.challenges[challengeID]
	if !ok || ch.factorID != factorID || ch.userID != u.ID {
		b.mu.Unlock()
		return nil, provider.Errorf(404, "mfa_challenge_not_found", "MFA challenge not found")
	}
	now := b.now()
	if now.After(ch.expiresAt) {
		delete(b.challenges, challengeID)
		b.mu.Unlock()
		return nil, provider.Errorf(422, "mfa_challenge_expired",
			fmt.Sprintf("MFA challenge %s has expired, verify against another challenge or create a new challenge.", challengeID))
	}

	valid, _ := totp.ValidateCustom(code, f.secret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if !valid {
		b.mu.Unlock()
		return nil, provider.Errorf(422, "mfa_verification_failed", "Invalid TOTP code entered")
	}

	delete(b.challenges, challengeID)
	f.Status = domain.FactorStatusVerified

	amr := append(slices.Clone(claims.AMR), jwtx.AMREntry{Method: "totp", Timestamp: now.Unix()})
	b.revokeSessionLocked(claims.SessionID)
	sess, err := b.issueLocked(u, claims.SessionID, amr)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.setSession(sess, provider.EventMFAChallengeVerified)
	return &domain.MFAVerification{Session: sess, User: sess.User}, nil
}

// SeedTOTPFactor enrolls a factor for userID directly and returns its id and
// secret. Verified factors skip the challenge round trip.
func (b *Backend) SeedTOTPFactor(userID, friendlyName string, verified bool) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.usersByID[userID]
	if !ok {
		return "", "", errUserNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: b.cfg.Issuer, AccountName: u.Email, Period: totpPeriod})
	if err != nil {
		return "", "", err
	}

	status := domain.FactorStatusUnverified
	if verified {
		status = domain.FactorStatusVerified
	}
	f := &factor{
		Factor: domain.Factor{
			ID:           uuid.NewString(),
			Type:         domain.FactorTypeTOTP,
			Status:       status,
			FriendlyName: friendlyName,
			CreatedAt:    b.now(),
		},
		secret: key.Secret(),
	}
	u.factors = append(u.factors, f)
	return f.ID, f.secret, nil
}
