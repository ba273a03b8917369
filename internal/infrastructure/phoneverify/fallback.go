package phoneverify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/babybook-api/internal/domain"
)

const fallbackCodeTTL = 15 * time.Minute

// smsSender is the outbound SMS dependency of the fallback verifier.
type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// codeStore persists in-flight fallback codes keyed by phone number.
type codeStore interface {
	Put(ctx context.Context, c *domain.PendingCode) error
	Get(ctx context.Context, phone string) (*domain.PendingCode, error)
	Delete(ctx context.Context, phone string) error
}

// Fallback is an SNS-backed Verifier used when no external provider is
// configured. It issues its own 6-digit codes and stores them with a TTL.
type Fallback struct {
	sender smsSender
	store  codeStore
}

func NewFallback(sender smsSender, store codeStore) *Fallback {
	return &Fallback{sender: sender, store: store}
}

func (f *Fallback) RequestCode(ctx context.Context, phone string) error {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	pc := &domain.PendingCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(fallbackCodeTTL).Unix(),
	}
	if err := f.store.Put(ctx, pc); err != nil {
		return err
	}
	return f.sender.SendSMS(ctx, phone, "Your verification code: "+code)
}

func (f *Fallback) CheckCode(ctx context.Context, phone, code string) (bool, error) {
	pc, err := f.store.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if pc.Code != code || pc.ExpiresAt < time.Now().Unix() {
		return false, nil
	}
	// One shot: a matched code is consumed immediately.
	_ = f.store.Delete(ctx, phone)
	return true, nil
}
