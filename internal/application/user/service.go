package user

import (
	"context"
	"fmt"
	"time"

	"github.com/babybook-api/internal/application/registry"
	"github.com/babybook-api/internal/domain"
	"github.com/babybook-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName            = "first_name"
	fieldLastName             = "last_name"
	fieldRole                 = "role"
	fieldTokenExpirationHours = "token_expiration_hours"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Account, string, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, req domain.UpdateAccountRequest) (*domain.Account, error)
	Delete(ctx context.Context, accountID string) error
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, accountID string) error
}

type service struct {
	repo     accountStore
	registry registry.Service
}

type ServiceDeps struct {
	AccountRepo accountStore
	Registry    registry.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AccountRepo, registry: deps.Registry}
}

func (s *service) Register(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, fmt.Errorf("phone number already in use: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	phone := req.Phone
	a := &domain.Account{
		AccountID:         id.New(),
		Email:             req.Email,
		Phone:             &phone,
		PasswordHash:      string(hash),
		Role:              domain.RoleUser,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PasswordUpdatedAt: now,
		Enable:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	// Both channel records exist from the start: email is the default,
	// neither is verified until the owner proves it.
	if err := s.registry.Bootstrap(ctx, a.AccountID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.Account, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}

func (s *service) Update(ctx context.Context, accountID string, req domain.UpdateAccountRequest) (*domain.Account, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Role != nil {
		switch *req.Role {
		case domain.RoleAdmin, domain.RoleUser:
			updates[fieldRole] = *req.Role
		default:
			return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
	}
	if req.TokenExpirationHours != nil {
		if *req.TokenExpirationHours < 0 {
			return nil, fmt.Errorf("token_expiration_hours must be >= 0: %w", domain.ErrBadRequest)
		}
		updates[fieldTokenExpirationHours] = *req.TokenExpirationHours
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, accountID)
	}
	if err := s.repo.Update(ctx, accountID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, accountID)
}

func (s *service) Delete(ctx context.Context, accountID string) error {
	return s.repo.SoftDelete(ctx, accountID)
}
