package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/streak"
)

type Service interface {
	HabitStats(ctx context.Context, userID, habitID string) (*domain.HabitStats, error)
	Heatmap(ctx context.Context, userID, habitID string, year, month int) (*domain.MonthHeatmap, error)
	CalendarStats(ctx context.Context, userID, calendarID string) (*domain.CalendarStats, error)
}

type entryStore interface {
	Between(ctx context.Context, habitID, from, to string) ([]domain.Entry, error)
	ListByHabit(ctx context.Context, habitID string) ([]domain.Entry, error)
}

type habitStore interface {
	Get(ctx context.Context, habitID string) (*domain.Habit, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error)
}

type calendarStore interface {
	Get(ctx context.Context, calendarID string) (*domain.Calendar, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	entries   entryStore
	habits    habitStore
	calendars calendarStore
	users     userStore
}

func NewService(entries entryStore, habits habitStore, calendars calendarStore, users userStore) Service {
	return &service{entries: entries, habits: habits, calendars: calendars, users: users}
}

func (s *service) HabitStats(ctx context.Context, userID, habitID string) (*domain.HabitStats, error) {
	if _, err := s.getOwnedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	counts, err := s.habitCounts(ctx, habitID)
	if err != nil {
		return nil, err
	}
	st := streak.Compute(habitID, counts, s.todayFor(ctx, userID))
	return &st, nil
}

func (s *service) Heatmap(ctx context.Context, userID, habitID string, year, month int) (*domain.MonthHeatmap, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d: %w", month, domain.ErrBadRequest)
	}
	if year < 1970 || year > 9999 {
		return nil, fmt.Errorf("invalid year %d: %w", year, domain.ErrBadRequest)
	}
	if _, err := s.getOwnedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	from, to := streak.MonthRange(year, time.Month(month))
	entries, err := s.entries.Between(ctx, habitID, from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.Date] = e.Count
	}
	hm := streak.Month(habitID, year, time.Month(month), counts, s.todayFor(ctx, userID))
	return &hm, nil
}

func (s *service) CalendarStats(ctx context.Context, userID, calendarID string) (*domain.CalendarStats, error) {
	c, err := s.calendars.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if !c.Enable {
		return nil, fmt.Errorf("calendar not found: %w", domain.ErrNotFound)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("calendar belongs to another user: %w", domain.ErrForbidden)
	}
	habits, err := s.habits.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	today := s.todayFor(ctx, userID)
	out := &domain.CalendarStats{CalendarID: calendarID, Habits: make([]domain.HabitStats, 0, len(habits))}
	for _, h := range habits {
		if h.Archived {
			continue
		}
		counts, err := s.habitCounts(ctx, h.HabitID)
		if err != nil {
			return nil, err
		}
		out.Habits = append(out.Habits, streak.Compute(h.HabitID, counts, today))
	}
	return out, nil
}

func (s *service) habitCounts(ctx context.Context, habitID string) (map[string]int, error) {
	entries, err := s.entries.ListByHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.Date] = e.Count
	}
	return counts, nil
}

func (s *service) getOwnedHabit(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	h, err := s.habits.Get(ctx, habitID)
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

func (s *service) todayFor(ctx context.Context, userID string) time.Time {
	loc := time.UTC
	if u, err := s.users.Get(ctx, userID); err == nil && u.Timezone != "" {
		if l, err := time.LoadLocation(u.Timezone); err == nil {
			loc = l
		}
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
