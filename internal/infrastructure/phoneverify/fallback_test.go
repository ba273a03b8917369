package phoneverify

import (
	"context"
	"testing"
	"time"

	"github.com/babybook-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

// memCodeStore is an in-memory stand-in for the pending-codes table.
type memCodeStore struct {
	codes map[string]*domain.PendingCode
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{codes: map[string]*domain.PendingCode{}}
}
func (s *memCodeStore) Put(_ context.Context, c *domain.PendingCode) error {
	s.codes[c.Phone] = c
	return nil
}
func (s *memCodeStore) Get(_ context.Context, phone string) (*domain.PendingCode, error) {
	c, ok := s.codes[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}
func (s *memCodeStore) Delete(_ context.Context, phone string) error {
	delete(s.codes, phone)
	return nil
}

func TestFallback_RequestThenCheck(t *testing.T) {
	sender := &mockSMSSender{}
	store := newMemCodeStore()
	var sent string
	sender.On("SendSMS", mock.Anything, "+5215512345678", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.String(2) }).Return(nil)

	f := NewFallback(sender, store)
	require.NoError(t, f.RequestCode(context.Background(), "+5215512345678"))

	code := store.codes["+5215512345678"].Code
	require.Len(t, code, 6)
	assert.Contains(t, sent, code)

	ok, err := f.CheckCode(context.Background(), "+5215512345678", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFallback_CheckConsumesCode(t *testing.T) {
	sender := &mockSMSSender{}
	store := newMemCodeStore()
	sender.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f := NewFallback(sender, store)
	require.NoError(t, f.RequestCode(context.Background(), "+5215512345678"))
	code := store.codes["+5215512345678"].Code

	ok, err := f.CheckCode(context.Background(), "+5215512345678", code)
	require.NoError(t, err)
	require.True(t, ok)

	// Second submission of the same code is rejected.
	ok, err = f.CheckCode(context.Background(), "+5215512345678", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFallback_WrongCode(t *testing.T) {
	sender := &mockSMSSender{}
	store := newMemCodeStore()
	sender.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f := NewFallback(sender, store)
	require.NoError(t, f.RequestCode(context.Background(), "+5215512345678"))

	ok, err := f.CheckCode(context.Background(), "+5215512345678", "999999x")
	require.NoError(t, err)
	assert.False(t, ok)
	// A wrong guess does not consume the pending code.
	assert.Contains(t, store.codes, "+5215512345678")
}

func TestFallback_ExpiredCode(t *testing.T) {
	sender := &mockSMSSender{}
	store := newMemCodeStore()
	f := NewFallback(sender, store)

	store.codes["+5215512345678"] = &domain.PendingCode{
		Phone:     "+5215512345678",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-1 * time.Minute).Unix(),
	}

	ok, err := f.CheckCode(context.Background(), "+5215512345678", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFallback_UnknownPhone(t *testing.T) {
	f := NewFallback(&mockSMSSender{}, newMemCodeStore())
	ok, err := f.CheckCode(context.Background(), "+5215599999999", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}
