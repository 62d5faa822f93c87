package user

import (
	"context"
	"fmt"
	"time"

	"github.com/habitboard-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDisplayName  = "display_name"
	fieldPhone        = "phone"
	fieldTimezone     = "timezone"
	fieldAvatarFileID = "avatar_file_id"
	fieldRole         = "role"
	fieldEnable       = "enable"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest, isAdmin bool) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
	QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type sessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type service struct {
	repo        userStore
	sessionRepo sessionStore
}

func NewService(repo userStore, sessionRepo sessionStore) Service {
	return &service{repo: repo, sessionRepo: sessionRepo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest, isAdmin bool) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates[fieldDisplayName] = *req.DisplayName
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", *req.Timezone, domain.ErrBadRequest)
		}
		updates[fieldTimezone] = *req.Timezone
	}
	if req.AvatarFileID != nil {
		updates[fieldAvatarFileID] = *req.AvatarFileID
	}
	if req.Role != nil {
		if !isAdmin {
			return nil, fmt.Errorf("only admins can change roles: %w", domain.ErrForbidden)
		}
		switch *req.Role {
		case domain.RoleAdmin, domain.RoleUser:
			updates[fieldRole] = *req.Role
		default:
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, domain.ErrBadRequest)
		}
	}
	if req.Enable != nil {
		if !isAdmin {
			return nil, fmt.Errorf("only admins can enable or disable accounts: %w", domain.ErrForbidden)
		}
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.sessionRepo.SoftDeleteByUser(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.repo.QueryPage(ctx, int32(limit), cursor)
}
