// Package memory is an in-process identity service with GoTrue semantics.
// It backs the "memory" provider mode and the test suites.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/cryptox"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// Op names a client operation for fault injection.
type Op string

const (
	OpGetSession    Op = "get_session"
	OpSignIn        Op = "sign_in"
	OpSignUp        Op = "sign_up"
	OpSignOut       Op = "sign_out"
	OpResetPassword Op = "reset_password"
	OpEnroll        Op = "enroll"
	OpUnenroll      Op = "unenroll"
	OpListFactors   Op = "list_factors"
	OpChallenge     Op = "challenge"
	OpVerify        Op = "verify"
)

// QRFormat selects the QR payload returned on enrollment.
type QRFormat int

const (
	QRFormatURI     QRFormat = iota // otpauth URI plus SVG markup, like GoTrue
	QRFormatSVG                     // SVG markup only
	QRFormatDataURI                 // PNG data URI only
	QRFormatNone                    // secret only
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	MinPasswordLength   = 6
	MaxFactors          = 10
)

type Config struct {
	// Secret signs access tokens. A random secret is generated when empty.
	Secret []byte
	// Issuer is the token issuer and the TOTP issuer label.
	Issuer string
	// AutoConfirm signs users in straight after sign-up.
	AutoConfirm bool
	QRFormat    QRFormat

	AccessTokenTTL time.Duration
	ChallengeTTL   time.Duration
	Password       cryptox.PasswordParams

	Now    func() time.Time
	Logger *slog.Logger
}

// Mail is an email the service would have sent.
type Mail struct {
	Kind       string // "confirm_signup" or "recovery"
	To         string
	RedirectTo string
	Token      string
	SentAt     time.Time
}

type user struct {
	domain.User

	passwordHash string
	factors      []*factor
}

type factor struct {
	domain.Factor

	secret string
}

type challenge struct {
	id        string
	factorID  string
	userID    string
	expiresAt time.Time
}

type refreshEntry struct {
	userID    string
	sessionID string
	amr       []jwtx.AMREntry
}

// Backend holds the users, factors, challenges and refresh tokens. Browsers
// talk to it through a Client.
type Backend struct {
	cfg    Config
	signer *jwtx.HS256
	log    *slog.Logger

	mu         sync.Mutex
	usersByID  map[string]*user
	byEmail    map[string]*user
	challenges map[string]*challenge
	refresh    map[string]*refreshEntry // keyed by token fingerprint
	outbox     []Mail
	faults     map[Op]error
}

func NewBackend(cfg Config) (*Backend, error) {
	if len(cfg.Secret) == 0 {
		cfg.Secret = []byte(cryptox.MustGenerateToken(cryptox.TokenSize256))
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "invoicely"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	if cfg.Password == (cryptox.PasswordParams{}) {
		cfg.Password = cryptox.DefaultPasswordParams
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signer, err := jwtx.NewHS256(cfg.Secret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("memory: signer: %w", err)
	}
	signer = signer.WithClock(cfg.Now)

	return &Backend{
		cfg:        cfg,
		signer:     signer,
		log:        slogx.OrDiscard(cfg.Logger).With("component", "memory_identity"),
		usersByID:  make(map[string]*user),
		byEmail:    make(map[string]*user),
		challenges: make(map[string]*challenge),
		refresh:    make(map[string]*refreshEntry),
		faults:     make(map[Op]error),
	}, nil
}

// NewClient returns a client with no session, i.e. a fresh browser.
func (b *Backend) NewClient() *Client {
	return &Client{b: b}
}

// InjectFault makes the next call of op fail with err.
func (b *Backend) InjectFault(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[op] = err
}

func (b *Backend) SetQRFormat(f QRFormat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.QRFormat = f
}

func (b *Backend) fault(op Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err, ok := b.faults[op]
	if !ok {
		return nil
	}
	delete(b.faults, op)
	return err
}

func (b *Backend) now() time.Time { return b.cfg.Now() }

// CreateUser seeds a user with an email identity.
func (b *Backend) CreateUser(email, password string, confirmed bool) (*domain.User, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := b.cfg.Password.Hash(password)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byEmail[email]; ok {
		return nil, errUserExists
	}
	u := b.insertUserLocked(email, hash, nil, confirmed)
	return copyUser(&u.User), nil
}

// ConfirmEmail marks the user's email as confirmed, as clicking the link would.
func (b *Backend) ConfirmEmail(email string) error {
	email, err := normaliseEmail(email)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.byEmail[email]
	if !ok {
		return errUserNotFound
	}
	if u.EmailConfirmedAt == nil {
		now := b.now()
		u.EmailConfirmedAt = &now
	}
	return nil
}

// Factors returns a snapshot of the user's factors in enrollment order.
func (b *Backend) Factors(userID string) []domain.Factor {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.usersByID[userID]
	if !ok {
		return nil
	}
	out := make([]domain.Factor, 0, len(u.factors))
	for _, f := range u.factors {
		out = append(out, f.Factor)
	}
	return out
}

// Outbox returns every mail sent so far.
func (b *Backend) Outbox() []Mail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Mail(nil), b.outbox...)
}

func (b *Backend) insertUserLocked(email, hash string, metadata map[string]any, confirmed bool) *user {
	u := &user{
		User: domain.User{
			ID:         uuid.NewString(),
			Email:      email,
			Identities: []domain.Identity{{ID: uuid.NewString(), Provider: "email"}},
			Metadata:   metadata,
		},
		passwordHash: hash,
	}
	if confirmed {
		now := b.now()
		u.EmailConfirmedAt = &now
	}
	b.usersByID[u.ID] = u
	b.byEmail[email] = u
	return u
}

func (b *Backend) sendLocked(kind, to, redirectTo string) {
	b.outbox = append(b.outbox, Mail{
		Kind:       kind,
		To:         to,
		RedirectTo: redirectTo,
		Token:      cryptox.MustGenerateToken(cryptox.TokenSize128),
		SentAt:     b.now(),
	})
	b.log.Debug("mail queued", "kind", kind, "to", to)
}

// issueLocked mints an access/refresh token pair for sessionID.
func (b *Backend) issueLocked(u *user, sessionID string, amr []jwtx.AMREntry) (*domain.Session, error) {
	now := b.now()
	claims := jwtx.NewSessionClaims(u.ID, u.Email, sessionID, b.cfg.Issuer, amr, b.cfg.AccessTokenTTL, now)

	access, err := b.signer.Sign(claims)
	if err != nil {
		return nil, err
	}
	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	b.refresh[cryptox.FingerprintToken(refresh)] = &refreshEntry{userID: u.ID, sessionID: sessionID, amr: amr}

	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt.Time,
		AAL:          claims.AAL,
		User:         copyUser(&u.User),
	}, nil
}

// refreshSession rotates a refresh token. A used or unknown token is rejected.
func (b *Backend) refreshSession(token string) (*domain.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := cryptox.FingerprintToken(token)
	entry, ok := b.refresh[key]
	if !ok {
		return nil, provider.Errorf(400, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
	}
	delete(b.refresh, key)

	u, ok := b.usersByID[entry.userID]
	if !ok {
		return nil, provider.Errorf(403, "user_not_found", "User from sub claim in JWT does not exist")
	}
	return b.issueLocked(u, entry.sessionID, entry.amr)
}

func (b *Backend) revokeSessionLocked(sessionID string) {
	for k, e := range b.refresh {
		if e.sessionID == sessionID {
			delete(b.refresh, k)
		}
	}
}

// authenticate checks an access token the way the service checks its
// Authorization header.
func (b *Backend) authenticate(access string) (*user, *jwtx.SessionClaims, error) {
	var claims jwtx.SessionClaims
	if err := b.signer.Verify(access, &claims); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return nil, nil, provider.Errorf(401, "bad_jwt", "invalid JWT: token is expired")
		}
		return nil, nil, provider.Errorf(401, "bad_jwt", "invalid JWT: unable to parse or verify signature")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.usersByID[claims.Subject]
	if !ok {
		return nil, nil, provider.Errorf(403, "user_not_found", "User from sub claim in JWT does not exist")
	}
	return u, &claims, nil
}

var (
	errUserExists   = provider.Errorf(422, "user_already_exists", "User already registered")
	errUserNotFound = provider.Errorf(404, "user_not_found", "User not found")
	errInvalidCreds = provider.Errorf(400, "invalid_credentials", provider.MsgInvalidCredentials)
)

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", provider.Errorf(400, "validation_failed", "Unable to validate email address: invalid format")
	}
	return email, nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Identities = append([]domain.Identity{}, u.Identities...)
	c.Metadata = maps.Clone(u.Metadata)
	if u.EmailConfirmedAt != nil {
		t := *u.EmailConfirmedAt
		c.EmailConfirmedAt = &t
	}
	return &c
}
