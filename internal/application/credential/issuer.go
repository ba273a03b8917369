package credential

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/babybook-api/internal/domain"
	"github.com/babybook-api/internal/infrastructure/phoneverify"
	"github.com/babybook-api/internal/infrastructure/smtp"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const secretSize = 20 // bytes of entropy behind each email-channel secret

// Config carries the one-time code parameters. It is passed in explicitly at
// construction; there is no process-wide OTP state.
type Config struct {
	Digits      int
	StepSeconds int
	SkewSteps   int
	// CodeTTL is the client-facing validity window advertised with each
	// issued code. Independent of the TOTP step window.
	CodeTTL time.Duration
}

// Issuer produces and checks one-time verification codes on both channels.
type Issuer interface {
	// IssueEmailCode rotates the account's secret, derives the current-step
	// code and mails it. Returns the moment the code stops being accepted
	// client-side.
	IssueEmailCode(ctx context.Context, a *domain.Account) (expiresAt time.Time, err error)
	// CheckEmailCode recomputes codes across the configured skew window and
	// reports whether any step matches.
	CheckEmailCode(code, secret string) bool
	// RequestPhoneCode asks the phone-verification collaborator to put a
	// code in flight for the number.
	RequestPhoneCode(ctx context.Context, phone string) (expiresAt time.Time, err error)
	// CheckPhoneCode submits a code to the collaborator.
	CheckPhoneCode(ctx context.Context, phone, code string) (bool, error)
}

type accountStore interface {
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type issuer struct {
	cfg      Config
	accounts accountStore
	mailer   smtp.Mailer
	phones   phoneverify.Verifier
}

func NewIssuer(cfg Config, accounts accountStore, mailer smtp.Mailer, phones phoneverify.Verifier) Issuer {
	return &issuer{cfg: cfg, accounts: accounts, mailer: mailer, phones: phones}
}

func (i *issuer) IssueEmailCode(ctx context.Context, a *domain.Account) (time.Time, error) {
	// Codes are deterministic from secret+time, so a secret that survives
	// across requests keeps old codes alive. Clear it first, then store the
	// replacement; a failure between the two leaves no valid secret at all.
	if err := i.accounts.Update(ctx, a.AccountID, map[string]interface{}{"otp_secret": ""}); err != nil {
		return time.Time{}, err
	}
	secret, err := newSecret()
	if err != nil {
		return time.Time{}, err
	}
	if err := i.accounts.Update(ctx, a.AccountID, map[string]interface{}{"otp_secret": secret}); err != nil {
		return time.Time{}, err
	}
	a.OTPSecret = secret

	code, err := totp.GenerateCodeCustom(secret, time.Now(), i.validateOpts())
	if err != nil {
		return time.Time{}, fmt.Errorf("generate code: %w", err)
	}
	expiresAt := time.Now().Add(i.cfg.CodeTTL)
	ttlMinutes := int(i.cfg.CodeTTL.Minutes())
	if err := i.mailer.SendEmail(a.Email, "Your verification code", smtp.CodeBody(code, ttlMinutes)); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

func (i *issuer) CheckEmailCode(code, secret string) bool {
	if secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, time.Now(), i.validateOpts())
	return err == nil && ok
}

func (i *issuer) RequestPhoneCode(ctx context.Context, phone string) (time.Time, error) {
	if err := i.phones.RequestCode(ctx, phone); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(i.cfg.CodeTTL), nil
}

func (i *issuer) CheckPhoneCode(ctx context.Context, phone, code string) (bool, error) {
	return i.phones.CheckCode(ctx, phone, code)
}

func (i *issuer) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(i.cfg.StepSeconds),
		Skew:      uint(i.cfg.SkewSteps),
		Digits:    otp.Digits(i.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}

func newSecret() (string, error) {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}
