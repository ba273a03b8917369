package jwtinfra

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/babybook-api/internal/config"
	"github.com/babybook-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields for account session tokens.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	// PasswordEpoch is the account's password_updated_at as Unix seconds.
	// The auth middleware rejects tokens whose epoch is older than the
	// account's current one, which invalidates everything minted before a
	// password change.
	PasswordEpoch int64 `json:"password_epoch"`
	jwt.RegisteredClaims
}

// ScopedClaims holds the payload of short-lived out-of-band tokens
// (password reset, invites, account verification links).
type ScopedClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Scoped token subjects.
const (
	SubjectPasswordReset = "password-reset"
	SubjectInvite        = "invite"
	SubjectAccountVerify = "account-verify"
)

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	issuer        string
	defaultExpiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey:    privKey,
		publicKey:     pubKey,
		issuer:        cfg.JWTIssuer,
		defaultExpiry: time.Duration(cfg.JWTExpiryDays) * 24 * time.Hour,
	}, nil
}

// NewProviderFromKeys builds a provider from in-memory keys. Used by tests.
func NewProviderFromKeys(priv *rsa.PrivateKey, issuer string, defaultExpiry time.Duration) *Provider {
	return &Provider{
		privateKey:    priv,
		publicKey:     &priv.PublicKey,
		issuer:        issuer,
		defaultExpiry: defaultExpiry,
	}
}

// Sign mints a session token for the account. The expiry is the account's
// hour override when set, otherwise the configured default.
func (p *Provider) Sign(a *domain.Account) (string, error) {
	expiry := p.defaultExpiry
	if a.TokenExpirationHours > 0 {
		expiry = time.Duration(a.TokenExpirationHours) * time.Hour
	}
	now := time.Now()
	claims := Claims{
		AccountID:     a.AccountID,
		Email:         a.Email,
		Role:          a.Role,
		PasswordEpoch: a.PasswordUpdatedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// SignScoped mints a short-lived token bound to a subject, for out-of-band
// flows like password reset links.
func (p *Provider) SignScoped(email, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ScopedClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify validates a session token. It fails closed: signature, issuer and
// expiry problems all surface as the same domain.ErrForbidden-wrapped error
// so callers can't tell which check tripped.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, p.keyFunc,
		jwt.WithIssuer(p.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrForbidden)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrForbidden)
	}
	return claims, nil
}

// VerifyScoped validates a short-lived token against the expected subject.
// All failure modes collapse to the same opaque error.
func (p *Provider) VerifyScoped(tokenStr, subject string) (*ScopedClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ScopedClaims{}, p.keyFunc,
		jwt.WithIssuer(p.issuer),
		jwt.WithSubject(subject),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrForbidden)
	}
	claims, ok := token.Claims.(*ScopedClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrForbidden)
	}
	return claims, nil
}

func (p *Provider) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	return p.publicKey, nil
}
