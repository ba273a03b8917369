package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/babybook-api/internal/domain"
)

// Service is the source of truth for per-channel verification state.
type Service interface {
	// IsFullyVerified reports two-factor completeness: exactly two records
	// exist for the account and both are verified.
	IsFullyVerified(ctx context.Context, accountID string) (bool, error)
	// DefaultChannel returns the channel flagged as default.
	DefaultChannel(ctx context.Context, accountID string) (domain.Channel, error)
	// MarkVerified flags a channel as verified. Idempotent.
	MarkVerified(ctx context.Context, accountID string, channel domain.Channel) error
	// MarkUnverified clears a channel's verified flag, e.g. after the
	// underlying contact detail changed.
	MarkUnverified(ctx context.Context, accountID string, channel domain.Channel) error
	// SetDefault makes channel the account's default and clears the flag on
	// every other record. Last write wins under concurrent switches.
	SetDefault(ctx context.Context, accountID string, channel domain.Channel) error
	// Bootstrap creates both channel records for a fresh account, email as
	// the default, neither verified.
	Bootstrap(ctx context.Context, accountID string) error
	// Get returns one channel's record.
	Get(ctx context.Context, accountID string, channel domain.Channel) (*domain.VerificationRecord, error)
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.VerificationRecord) error
	Get(ctx context.Context, accountID string, channel domain.Channel) (*domain.VerificationRecord, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.VerificationRecord, error)
	Update(ctx context.Context, accountID string, channel domain.Channel, updates map[string]interface{}) error
}

type service struct {
	repo verificationStore
}

func NewService(repo verificationStore) Service {
	return &service{repo: repo}
}

func (s *service) IsFullyVerified(ctx context.Context, accountID string) (bool, error) {
	records, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	if len(records) != 2 {
		return false, nil
	}
	for _, r := range records {
		if !r.Verified {
			return false, nil
		}
	}
	return true, nil
}

func (s *service) DefaultChannel(ctx context.Context, accountID string) (domain.Channel, error) {
	records, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if r.IsDefault {
			return r.Channel, nil
		}
	}
	// Should not happen: registration always flags a default. Callers treat
	// this defensively.
	return "", fmt.Errorf("no default channel for account: %w", domain.ErrNotFound)
}

func (s *service) MarkVerified(ctx context.Context, accountID string, channel domain.Channel) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	return s.repo.Update(ctx, accountID, channel, map[string]interface{}{"verified": true})
}

func (s *service) MarkUnverified(ctx context.Context, accountID string, channel domain.Channel) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	return s.repo.Update(ctx, accountID, channel, map[string]interface{}{"verified": false})
}

func (s *service) SetDefault(ctx context.Context, accountID string, channel domain.Channel) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	if _, err := s.repo.Get(ctx, accountID, channel); err != nil {
		return err
	}
	// Target first, then clear the rest. Concurrent switches interleave as
	// last-write-wins; the scope is one account's two rows.
	if err := s.repo.Update(ctx, accountID, channel, map[string]interface{}{"is_default": true}); err != nil {
		return err
	}
	records, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Channel == channel {
			continue
		}
		if r.IsDefault {
			if err := s.repo.Update(ctx, accountID, r.Channel, map[string]interface{}{"is_default": false}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) Bootstrap(ctx context.Context, accountID string) error {
	now := time.Now().UTC()
	for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelSMS} {
		rec := &domain.VerificationRecord{
			AccountID: accountID,
			Channel:   ch,
			Verified:  false,
			IsDefault: ch == domain.ChannelEmail,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, accountID string, channel domain.Channel) (*domain.VerificationRecord, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	return s.repo.Get(ctx, accountID, channel)
}
