package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/pkg/qrx"
)

var errNoQRPayload = errors.New("enrollment carried no qr payload")

// EnrollMFATOTP removes abandoned enrollments and starts a fresh TOTP
// factor. A QR image that cannot be produced leaves QRCodeURL empty; the
// secret is still returned for manual entry.
func (s *AuthService) EnrollMFATOTP(ctx context.Context) (*domain.MFAEnrollment, error) {
	log := s.log()

	existing, err := s.Provider.ListFactors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	for _, f := range existing.All {
		if f.Verified() {
			continue
		}
		if err := s.Provider.Unenroll(ctx, f.ID); err != nil {
			return nil, fmt.Errorf("remove unverified factor %s: %w", f.ID, err)
		}
		log.Debug("removed unverified factor", "factor_id", f.ID)
	}

	enr, err := s.Provider.EnrollTOTP(ctx, s.factorName())
	if err != nil {
		return nil, err
	}
	if enr == nil {
		return nil, errors.New("mfa enrollment returned no data")
	}

	out := &domain.MFAEnrollment{FactorID: enr.FactorID, Secret: enr.Secret}
	if out.QRCodeURL, err = s.qrCodeURL(enr); err != nil {
		log.Warn("qr code unavailable, falling back to manual entry", "factor_id", enr.FactorID, "error", err)
		out.QRCodeURL = ""
	}
	return out, nil
}

// qrCodeURL turns whichever payload the provider sent into a data URI. The
// otpauth URI wins over provider-rendered markup.
func (s *AuthService) qrCodeURL(enr *domain.TOTPEnrollment) (string, error) {
	payload := enr.URI
	if payload == "" {
		payload = enr.QRCode
	}

	switch {
	case payload == "":
		return "", errNoQRPayload
	case strings.HasPrefix(payload, qrx.DataURIPrefix):
		return payload, nil
	case qrx.IsSVG(payload):
		return qrx.SVGDataURI(payload), nil
	default:
		return qrx.PNGDataURI(payload, s.qrSize())
	}
}

// VerifyMFATOTP checks a code. Without a challenge id one is created first,
// which is the enrollment path; sign-in already carries the resolver's.
func (s *AuthService) VerifyMFATOTP(ctx context.Context, factorID, code, challengeID string) (*domain.MFAVerification, error) {
	if factorID == "" {
		return nil, ErrMissingFactorID
	}
	if !validCode(code) {
		return nil, ErrInvalidCode
	}

	if challengeID == "" {
		ch, err := s.Provider.Challenge(ctx, factorID)
		if err != nil {
			return nil, fmt.Errorf("create challenge: %w", err)
		}
		challengeID = ch.ID
	}

	res, err := s.Provider.Verify(ctx, factorID, challengeID, code)
	if err != nil {
		s.log().Info("mfa verification failed", "factor_id", factorID, "error", err)
		return nil, err
	}
	return res, nil
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *AuthService) ListFactors(ctx context.Context) (domain.FactorList, error) {
	return s.Provider.ListFactors(ctx)
}

// Challenge returns the new challenge id.
func (s *AuthService) Challenge(ctx context.Context, factorID string) (string, error) {
	if factorID == "" {
		return "", ErrMissingFactorID
	}
	ch, err := s.Provider.Challenge(ctx, factorID)
	if err != nil {
		s.log().Error("failed to create mfa challenge", "factor_id", factorID, "error", err)
		return "", err
	}
	return ch.ID, nil
}
