package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/babybook-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewProviderFromKeys(key, "babybook-test", 24*time.Hour)
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	updatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &domain.Account{
		AccountID:         "a1",
		Email:             "a@b.com",
		PasswordUpdatedAt: updatedAt,
	}

	token, err := p.Sign(a)
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AccountID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, updatedAt.Unix(), claims.PasswordEpoch)
}

func TestSign_AccountExpiryOverride(t *testing.T) {
	p := newTestProvider(t)
	a := &domain.Account{AccountID: "a1", TokenExpirationHours: 2}

	token, err := p.Sign(a)
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_WrongKey(t *testing.T) {
	p1 := newTestProvider(t)
	p2 := newTestProvider(t)

	token, err := p1.Sign(&domain.Account{AccountID: "a1"})
	require.NoError(t, err)

	_, err = p2.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestVerify_WrongIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := NewProviderFromKeys(key, "someone-else", 24*time.Hour)
	verifier := NewProviderFromKeys(key, "babybook-test", 24*time.Hour)

	token, err := signer.Sign(&domain.Account{AccountID: "a1"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestVerifyScoped_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignScoped("a@b.com", SubjectPasswordReset, 30*time.Minute)
	require.NoError(t, err)

	claims, err := p.VerifyScoped(token, SubjectPasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestVerifyScoped_SubjectMismatch(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignScoped("a@b.com", SubjectInvite, 30*time.Minute)
	require.NoError(t, err)

	_, err = p.VerifyScoped(token, SubjectPasswordReset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestVerifyScoped_Expired(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignScoped("a@b.com", SubjectPasswordReset, -1*time.Minute)
	require.NoError(t, err)

	_, err = p.VerifyScoped(token, SubjectPasswordReset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestSessionTokenIsNotAScopedToken(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.Sign(&domain.Account{AccountID: "a1", Email: "a@b.com"})
	require.NoError(t, err)

	// Session tokens carry no subject, so scoped verification rejects them.
	_, err = p.VerifyScoped(token, SubjectPasswordReset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
