package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/babybook-api/internal/application/credential"
	"github.com/babybook-api/internal/application/registry"
	"github.com/babybook-api/internal/domain"
	jwtinfra "github.com/babybook-api/internal/infrastructure/jwt"
	"github.com/babybook-api/internal/infrastructure/smtp"
	"golang.org/x/crypto/bcrypt"
)

const passwordResetTTL = 30 * time.Minute

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Biometric marks a trusted re-authentication from an already enrolled
	// device; it skips the verification step entirely.
	Biometric bool `json:"biometric"`
	// Channel optionally overrides the account's default channel for this
	// verification cycle.
	Channel *domain.Channel `json:"channel"`
}

// PendingVerification tells the client which channel carries the code and
// until when the code will be accepted.
type PendingVerification struct {
	Channel   domain.Channel `json:"channel"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// LoginResult is either a token (bypass path) or a pending verification.
type LoginResult struct {
	Bearer  string
	Pending *PendingVerification
	Account *domain.Account
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
	// Channel declares which channel the code was requested on. When empty
	// the account's default channel is assumed.
	Channel domain.Channel `json:"channel"`
	// ExpiredTime is the client-declared expiry echoed back from the login
	// response. Checked after code validation so a correct-but-late code
	// reports "expired" rather than "invalid".
	ExpiredTime *time.Time `json:"expired_time"`
}

// VerifyResult carries a token when two-factor setup is complete. An empty
// Bearer with no error means the code was good but setup is still partial —
// the token is withheld, not denied.
type VerifyResult struct {
	Bearer   string
	Complete bool
	Account  *domain.Account
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyResult, error)
	RequestChannelProof(ctx context.Context, accountID string, channel domain.Channel) (*PendingVerification, error)
	ConfirmChannel(ctx context.Context, accountID string, channel domain.Channel, code string) error
	SetDefaultChannel(ctx context.Context, accountID string, channel domain.Channel) error
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
	ChangePhone(ctx context.Context, accountID, newPhone string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type tokenIssuer interface {
	Sign(a *domain.Account) (string, error)
	SignScoped(email, subject string, ttl time.Duration) (string, error)
	VerifyScoped(token, subject string) (*jwtinfra.ScopedClaims, error)
}

type service struct {
	accounts     accountStore
	registry     registry.Service
	issuer       credential.Issuer
	tokens       tokenIssuer
	mailer       smtp.Mailer
	bypassEmails map[string]struct{}
}

type ServiceDeps struct {
	AccountRepo  accountStore
	Registry     registry.Service
	Issuer       credential.Issuer
	Tokens       tokenIssuer
	Mailer       smtp.Mailer
	BypassEmails []string
}

func NewService(deps ServiceDeps) Service {
	bypass := make(map[string]struct{}, len(deps.BypassEmails))
	for _, e := range deps.BypassEmails {
		bypass[strings.ToLower(e)] = struct{}{}
	}
	return &service{
		accounts:     deps.AccountRepo,
		registry:     deps.Registry,
		issuer:       deps.Issuer,
		tokens:       deps.Tokens,
		mailer:       deps.Mailer,
		bypassEmails: bypass,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if !a.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	if s.bypassed(a.Email) || req.Biometric {
		bearer, err := s.tokens.Sign(a)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Bearer: bearer, Account: a}, nil
	}

	complete, err := s.registry.IsFullyVerified(ctx, a.AccountID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("two-factor setup incomplete: %w", domain.ErrForbidden)
	}

	channel, err := s.resolveChannel(ctx, a.AccountID, req.Channel)
	if err != nil {
		return nil, err
	}
	expiresAt, err := s.sendCode(ctx, a, channel)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Pending: &PendingVerification{Channel: channel, ExpiresAt: expiresAt},
		Account: a,
	}, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyResult, error) {
	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}

	var chPtr *domain.Channel
	if req.Channel != "" {
		chPtr = &req.Channel
	}
	channel, err := s.resolveChannel(ctx, a.AccountID, chPtr)
	if err != nil {
		return nil, err
	}

	if err := s.checkCode(ctx, a, channel, req.Code); err != nil {
		return nil, err
	}
	// Expiry is deliberately checked after the code: a correct code that
	// arrives late must report "expired", not "invalid code".
	if req.ExpiredTime != nil && req.ExpiredTime.Before(time.Now()) {
		return nil, fmt.Errorf("code expired: %w", domain.ErrBadRequest)
	}

	if err := s.registry.MarkVerified(ctx, a.AccountID, channel); err != nil {
		return nil, err
	}
	if channel == domain.ChannelEmail {
		// Consume the secret so the same code can't be replayed.
		if err := s.accounts.Update(ctx, a.AccountID, map[string]interface{}{"otp_secret": ""}); err != nil {
			slog.Warn("failed to clear code secret", "account_id", a.AccountID, "err", err)
		}
	}

	complete, err := s.registry.IsFullyVerified(ctx, a.AccountID)
	if err != nil {
		return nil, err
	}
	if !complete {
		// Withhold, don't deny: the code was good but setup is partial.
		return &VerifyResult{Complete: false, Account: a}, nil
	}
	bearer, err := s.tokens.Sign(a)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Bearer: bearer, Complete: true, Account: a}, nil
}

func (s *service) RequestChannelProof(ctx context.Context, accountID string, channel domain.Channel) (*PendingVerification, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	expiresAt, err := s.sendCode(ctx, a, channel)
	if err != nil {
		return nil, err
	}
	return &PendingVerification{Channel: channel, ExpiresAt: expiresAt}, nil
}

func (s *service) ConfirmChannel(ctx context.Context, accountID string, channel domain.Channel, code string) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if err := s.checkCode(ctx, a, channel, code); err != nil {
		return err
	}
	if err := s.registry.MarkVerified(ctx, accountID, channel); err != nil {
		return err
	}
	if channel == domain.ChannelEmail {
		if err := s.accounts.Update(ctx, accountID, map[string]interface{}{"otp_secret": ""}); err != nil {
			slog.Warn("failed to clear code secret", "account_id", accountID, "err", err)
		}
	}
	return nil
}

func (s *service) SetDefaultChannel(ctx context.Context, accountID string, channel domain.Channel) error {
	rec, err := s.registry.Get(ctx, accountID, channel)
	if err != nil {
		return err
	}
	if !rec.Verified {
		return fmt.Errorf("channel not verified: %w", domain.ErrBadRequest)
	}
	return s.registry.SetDefault(ctx, accountID, channel)
}

func (s *service) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	// Advancing the epoch invalidates every token minted before this change.
	return s.accounts.Update(ctx, accountID, map[string]interface{}{
		"password_hash":       string(hash),
		"password_updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *service) ChangePhone(ctx context.Context, accountID, newPhone string) error {
	if existing, err := s.accounts.GetByPhone(ctx, newPhone); err == nil && existing.AccountID != accountID {
		return fmt.Errorf("phone number already in use: %w", domain.ErrBadRequest)
	}
	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{"phone": newPhone}); err != nil {
		return err
	}
	// The new number is unproven until the owner confirms it.
	return s.registry.MarkUnverified(ctx, accountID, domain.ChannelSMS)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	token, err := s.tokens.SignScoped(a.Email, jwtinfra.SubjectPasswordReset, passwordResetTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(a.Email, "Reset your password", "Your reset token: "+token)
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.VerifyScoped(token, jwtinfra.SubjectPasswordReset)
	if err != nil {
		return err
	}
	a, err := s.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.Update(ctx, a.AccountID, map[string]interface{}{
		"password_hash":       string(hash),
		"password_updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *service) bypassed(email string) bool {
	_, ok := s.bypassEmails[strings.ToLower(email)]
	return ok
}

// resolveChannel picks the explicitly requested channel or falls back to
// the account's default. The channel is always an explicit tag from here on;
// nothing is inferred from stored secrets.
func (s *service) resolveChannel(ctx context.Context, accountID string, requested *domain.Channel) (domain.Channel, error) {
	if requested != nil {
		if !requested.Valid() {
			return "", fmt.Errorf("unknown channel %q: %w", *requested, domain.ErrBadRequest)
		}
		return *requested, nil
	}
	return s.registry.DefaultChannel(ctx, accountID)
}

func (s *service) sendCode(ctx context.Context, a *domain.Account, channel domain.Channel) (time.Time, error) {
	switch channel {
	case domain.ChannelEmail:
		return s.issuer.IssueEmailCode(ctx, a)
	case domain.ChannelSMS:
		if a.Phone == nil {
			return time.Time{}, fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		return s.issuer.RequestPhoneCode(ctx, *a.Phone)
	default:
		return time.Time{}, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
}

func (s *service) checkCode(ctx context.Context, a *domain.Account, channel domain.Channel, code string) error {
	switch channel {
	case domain.ChannelEmail:
		if !s.issuer.CheckEmailCode(code, a.OTPSecret) {
			return fmt.Errorf("invalid code: %w", domain.ErrBadRequest)
		}
	case domain.ChannelSMS:
		if a.Phone == nil {
			return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		ok, err := s.issuer.CheckPhoneCode(ctx, *a.Phone, code)
		if err != nil {
			// ErrMaxAttempts and provider failures propagate as-is.
			return err
		}
		if !ok {
			return fmt.Errorf("invalid code: %w", domain.ErrBadRequest)
		}
	default:
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	return nil
}
