package entry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/id"
	"github.com/habitboard-api/internal/pkg/streak"
)

// Streak lengths that trigger a milestone notification.
var milestones = []int{7, 30, 100, 365}

type Service interface {
	// Upsert records a completion for the given day, replacing any
	// existing entry for that day.
	Upsert(ctx context.Context, userID, habitID, date string, req domain.UpsertEntryRequest) (*domain.Entry, error)
	Delete(ctx context.Context, userID, habitID, date string) error
	Range(ctx context.Context, userID, habitID, from, to string) ([]domain.Entry, error)
}

type entryStore interface {
	Put(ctx context.Context, e *domain.Entry) error
	Get(ctx context.Context, habitID, date string) (*domain.Entry, error)
	Delete(ctx context.Context, habitID, date string) error
	Between(ctx context.Context, habitID, from, to string) ([]domain.Entry, error)
	ListByHabit(ctx context.Context, habitID string) ([]domain.Entry, error)
}

type habitStore interface {
	Get(ctx context.Context, habitID string) (*domain.Habit, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type service struct {
	repo          entryStore
	habitRepo     habitStore
	userRepo      userStore
	notifications notificationStore
}

func NewService(repo entryStore, habitRepo habitStore, userRepo userStore, notifications notificationStore) Service {
	return &service{repo: repo, habitRepo: habitRepo, userRepo: userRepo, notifications: notifications}
}

func (s *service) Upsert(ctx context.Context, userID, habitID, date string, req domain.UpsertEntryRequest) (*domain.Entry, error) {
	h, err := s.getOwnedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	if h.Archived {
		return nil, fmt.Errorf("habit is archived: %w", domain.ErrBadRequest)
	}

	day, err := time.Parse(domain.EntryDateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, domain.ErrBadRequest)
	}
	today := s.todayFor(ctx, userID)
	if day.After(today) {
		return nil, fmt.Errorf("date is in the future: %w", domain.ErrBadRequest)
	}

	count := req.Count
	if count == 0 {
		count = 1
	}

	existing, err := s.repo.Get(ctx, habitID, date)
	isNew := err != nil
	now := time.Now().UTC()
	e := &domain.Entry{
		HabitID:   habitID,
		Date:      date,
		UserID:    userID,
		Count:     count,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		e.CreatedAt = existing.CreatedAt
	}
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, err
	}

	// Overwriting an existing day cannot start a new streak.
	if isNew {
		s.checkMilestone(ctx, h, today)
	}
	return e, nil
}

func (s *service) Delete(ctx context.Context, userID, habitID, date string) error {
	if _, err := s.getOwnedHabit(ctx, userID, habitID); err != nil {
		return err
	}
	if _, err := time.Parse(domain.EntryDateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, domain.ErrBadRequest)
	}
	if _, err := s.repo.Get(ctx, habitID, date); err != nil {
		return err
	}
	return s.repo.Delete(ctx, habitID, date)
}

func (s *service) Range(ctx context.Context, userID, habitID, from, to string) ([]domain.Entry, error) {
	if _, err := s.getOwnedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	if _, err := time.Parse(domain.EntryDateLayout, from); err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, domain.ErrBadRequest)
	}
	if _, err := time.Parse(domain.EntryDateLayout, to); err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, domain.ErrBadRequest)
	}
	if from > to {
		return nil, fmt.Errorf("from is after to: %w", domain.ErrBadRequest)
	}
	return s.repo.Between(ctx, habitID, from, to)
}

func (s *service) getOwnedHabit(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	h, err := s.habitRepo.Get(ctx, habitID)
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

// todayFor evaluates "today" in the user's timezone, so an entry logged
// late at night is not rejected as a future date.
func (s *service) todayFor(ctx context.Context, userID string) time.Time {
	loc := time.UTC
	if u, err := s.userRepo.Get(ctx, userID); err == nil && u.Timezone != "" {
		if l, err := time.LoadLocation(u.Timezone); err == nil {
			loc = l
		}
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) checkMilestone(ctx context.Context, h *domain.Habit, today time.Time) {
	entries, err := s.repo.ListByHabit(ctx, h.HabitID)
	if err != nil {
		slog.Warn("milestone check skipped", "habit_id", h.HabitID, "error", err)
		return
	}
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.Date] = e.Count
	}
	stats := streak.Compute(h.HabitID, counts, today)
	for _, m := range milestones {
		if stats.CurrentStreak != m {
			continue
		}
		habitID := h.HabitID
		n := &domain.Notification{
			NotificationID: id.New(),
			UserID:         h.UserID,
			HabitID:        &habitID,
			Kind:           domain.NotificationStreakMilestone,
			Message:        fmt.Sprintf("%d day streak on %s, keep it going!", m, h.Name),
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		}
		if err := s.notifications.Put(ctx, n); err != nil {
			slog.Warn("milestone notification not saved", "habit_id", h.HabitID, "error", err)
		}
		return
	}
}
