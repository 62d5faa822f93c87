package habit

import (
	"context"
	"fmt"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName       = "name"
	fieldColor      = "color"
	fieldIconFileID = "icon_file_id"
	fieldPosition   = "position"
	fieldArchived   = "archived"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateHabitRequest) (*domain.Habit, error)
	Get(ctx context.Context, userID, habitID string) (*domain.Habit, error)
	ListByCalendar(ctx context.Context, userID, calendarID string) ([]domain.Habit, error)
	Update(ctx context.Context, userID, habitID string, req domain.UpdateHabitRequest) (*domain.Habit, error)
	// Delete archives the habit; the completion log is kept.
	Delete(ctx context.Context, userID, habitID string) error
}

type habitStore interface {
	Put(ctx context.Context, h *domain.Habit) error
	Get(ctx context.Context, habitID string) (*domain.Habit, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error)
	Update(ctx context.Context, habitID string, updates map[string]interface{}) error
	Archive(ctx context.Context, habitID string) error
}

type calendarStore interface {
	Get(ctx context.Context, calendarID string) (*domain.Calendar, error)
}

type service struct {
	repo         habitStore
	calendarRepo calendarStore
}

func NewService(repo habitStore, calendarRepo calendarStore) Service {
	return &service{repo: repo, calendarRepo: calendarRepo}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateHabitRequest) (*domain.Habit, error) {
	if err := s.checkCalendar(ctx, userID, req.CalendarID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	h := &domain.Habit{
		HabitID:    id.New(),
		CalendarID: req.CalendarID,
		UserID:     userID,
		Name:       req.Name,
		Color:      req.Color,
		IconFileID: req.IconFileID,
		Position:   req.Position,
		Enable:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *service) Get(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	return s.getOwned(ctx, userID, habitID)
}

func (s *service) ListByCalendar(ctx context.Context, userID, calendarID string) ([]domain.Habit, error) {
	if err := s.checkCalendar(ctx, userID, calendarID); err != nil {
		return nil, err
	}
	return s.repo.ListByCalendar(ctx, calendarID)
}

func (s *service) Update(ctx context.Context, userID, habitID string, req domain.UpdateHabitRequest) (*domain.Habit, error) {
	if _, err := s.getOwned(ctx, userID, habitID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Color != nil {
		updates[fieldColor] = *req.Color
	}
	if req.IconFileID != nil {
		updates[fieldIconFileID] = *req.IconFileID
	}
	if req.Position != nil {
		updates[fieldPosition] = *req.Position
	}
	if req.Archived != nil {
		updates[fieldArchived] = *req.Archived
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, habitID)
	}
	if err := s.repo.Update(ctx, habitID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, habitID)
}

func (s *service) Delete(ctx context.Context, userID, habitID string) error {
	if _, err := s.getOwned(ctx, userID, habitID); err != nil {
		return err
	}
	return s.repo.Archive(ctx, habitID)
}

func (s *service) getOwned(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	h, err := s.repo.Get(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if !h.Enable {
		return nil, fmt.Errorf("habit not found: %w", domain.ErrNotFound)
	}
	if h.UserID != userID {
		return nil, fmt.Errorf("habit belongs to another user: %w", domain.ErrForbidden)
	}
	return h, nil
}

func (s *service) checkCalendar(ctx context.Context, userID, calendarID string) error {
	c, err := s.calendarRepo.Get(ctx, calendarID)
	if err != nil {
		return err
	}
	if !c.Enable {
		return fmt.Errorf("calendar not found: %w", domain.ErrNotFound)
	}
	if c.UserID != userID {
		return fmt.Errorf("calendar belongs to another user: %w", domain.ErrForbidden)
	}
	return nil
}
