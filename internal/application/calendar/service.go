package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName     = "name"
	fieldColor    = "color"
	fieldPosition = "position"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateCalendarRequest) (*domain.Calendar, error)
	Get(ctx context.Context, userID, calendarID string) (*domain.Calendar, error)
	List(ctx context.Context, userID string) ([]domain.Calendar, error)
	Update(ctx context.Context, userID, calendarID string, req domain.UpdateCalendarRequest) (*domain.Calendar, error)
	// Delete soft-deletes the calendar and archives every habit in it.
	Delete(ctx context.Context, userID, calendarID string) error
}

type calendarStore interface {
	Put(ctx context.Context, c *domain.Calendar) error
	Get(ctx context.Context, calendarID string) (*domain.Calendar, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Calendar, error)
	Update(ctx context.Context, calendarID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, calendarID string) error
}

type habitStore interface {
	ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error)
	Archive(ctx context.Context, habitID string) error
}

type service struct {
	repo      calendarStore
	habitRepo habitStore
}

func NewService(repo calendarStore, habitRepo habitStore) Service {
	return &service{repo: repo, habitRepo: habitRepo}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateCalendarRequest) (*domain.Calendar, error) {
	now := time.Now().UTC()
	c := &domain.Calendar{
		CalendarID: id.New(),
		UserID:     userID,
		Name:       req.Name,
		Color:      req.Color,
		Position:   req.Position,
		Enable:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, userID, calendarID string) (*domain.Calendar, error) {
	return s.getOwned(ctx, userID, calendarID)
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Calendar, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, calendarID string, req domain.UpdateCalendarRequest) (*domain.Calendar, error) {
	if _, err := s.getOwned(ctx, userID, calendarID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Color != nil {
		updates[fieldColor] = *req.Color
	}
	if req.Position != nil {
		updates[fieldPosition] = *req.Position
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, calendarID)
	}
	if err := s.repo.Update(ctx, calendarID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, calendarID)
}

func (s *service) Delete(ctx context.Context, userID, calendarID string) error {
	if _, err := s.getOwned(ctx, userID, calendarID); err != nil {
		return err
	}
	habits, err := s.habitRepo.ListByCalendar(ctx, calendarID)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if err := s.habitRepo.Archive(ctx, h.HabitID); err != nil {
			slog.Warn("failed to archive habit during calendar delete", "habit_id", h.HabitID, "calendar_id", calendarID, "err", err)
		}
	}
	return s.repo.SoftDelete(ctx, calendarID)
}

func (s *service) getOwned(ctx context.Context, userID, calendarID string) (*domain.Calendar, error) {
	c, err := s.repo.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if !c.Enable {
		return nil, fmt.Errorf("calendar not found: %w", domain.ErrNotFound)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("calendar belongs to another user: %w", domain.ErrForbidden)
	}
	return c, nil
}
