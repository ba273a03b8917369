package baby

import (
	"context"
	"fmt"
	"time"

	"github.com/babybook-api/internal/domain"
	"github.com/babybook-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateBabyRequest) (*domain.Baby, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Baby, error)
	Get(ctx context.Context, ownerID, babyID string) (*domain.Baby, error)
	Delete(ctx context.Context, ownerID, babyID string) error
}

type babyStore interface {
	Put(ctx context.Context, b *domain.Baby) error
	Get(ctx context.Context, babyID string) (*domain.Baby, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Baby, error)
	SoftDelete(ctx context.Context, babyID string) error
}

type service struct {
	repo babyStore
}

func NewService(repo babyStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateBabyRequest) (*domain.Baby, error) {
	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return nil, fmt.Errorf("birthday must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	b := &domain.Baby{
		BabyID:    id.New(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Gender:    req.Gender,
		Birthday:  birthday,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Baby, error) {
	babies, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	active := babies[:0]
	for _, b := range babies {
		if b.Enable {
			active = append(active, b)
		}
	}
	return active, nil
}

func (s *service) Get(ctx context.Context, ownerID, babyID string) (*domain.Baby, error) {
	b, err := s.repo.Get(ctx, babyID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID || !b.Enable {
		return nil, fmt.Errorf("baby not found: %w", domain.ErrNotFound)
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, ownerID, babyID string) error {
	if _, err := s.Get(ctx, ownerID, babyID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, babyID)
}
