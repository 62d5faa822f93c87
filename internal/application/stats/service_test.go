package stats

import (
	"context"
	"testing"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEntryStore struct{ mock.Mock }

func (m *mockEntryStore) Between(ctx context.Context, habitID, from, to string) ([]domain.Entry, error) {
	args := m.Called(ctx, habitID, from, to)
	return args.Get(0).([]domain.Entry), args.Error(1)
}

func (m *mockEntryStore) ListByHabit(ctx context.Context, habitID string) ([]domain.Entry, error) {
	args := m.Called(ctx, habitID)
	return args.Get(0).([]domain.Entry), args.Error(1)
}

type mockHabitStore struct{ mock.Mock }

func (m *mockHabitStore) Get(ctx context.Context, habitID string) (*domain.Habit, error) {
	args := m.Called(ctx, habitID)
	if h, _ := args.Get(0).(*domain.Habit); h != nil {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHabitStore) ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error) {
	args := m.Called(ctx, calendarID)
	return args.Get(0).([]domain.Habit), args.Error(1)
}

type mockCalendarStore struct{ mock.Mock }

func (m *mockCalendarStore) Get(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	args := m.Called(ctx, calendarID)
	if c, _ := args.Get(0).(*domain.Calendar); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func newMocks() (*mockEntryStore, *mockHabitStore, *mockCalendarStore, *mockUserStore, Service) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	calendars := new(mockCalendarStore)
	users := new(mockUserStore)
	return entries, habits, calendars, users, NewService(entries, habits, calendars, users)
}

func dateOffset(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(domain.EntryDateLayout)
}

func TestHabitStats_CurrentStreak(t *testing.T) {
	entries, habits, _, users, svc := newMocks()

	habits.On("Get", mock.Anything, "h1").Return(&domain.Habit{HabitID: "h1", UserID: "u1", Enable: true}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Timezone: "UTC"}, nil)
	entries.On("ListByHabit", mock.Anything, "h1").Return([]domain.Entry{
		{HabitID: "h1", Date: dateOffset(0), Count: 1},
		{HabitID: "h1", Date: dateOffset(-1), Count: 1},
		{HabitID: "h1", Date: dateOffset(-2), Count: 2},
	}, nil)

	st, err := svc.HabitStats(context.Background(), "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 3, st.LongestStreak)
	assert.Equal(t, 3, st.TotalDone)
}

func TestHabitStats_ForeignHabit(t *testing.T) {
	_, habits, _, _, svc := newMocks()

	habits.On("Get", mock.Anything, "h1").Return(&domain.Habit{HabitID: "h1", UserID: "other", Enable: true}, nil)

	_, err := svc.HabitStats(context.Background(), "u1", "h1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestHeatmap_InvalidMonth(t *testing.T) {
	_, _, _, _, svc := newMocks()

	_, err := svc.Heatmap(context.Background(), "u1", "h1", 2026, 13)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestHeatmap_QueriesMonthWindow(t *testing.T) {
	entries, habits, _, users, svc := newMocks()

	habits.On("Get", mock.Anything, "h1").Return(&domain.Habit{HabitID: "h1", UserID: "u1", Enable: true}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Timezone: "UTC"}, nil)
	from, to := streak.MonthRange(2026, 2)
	entries.On("Between", mock.Anything, "h1", from, to).Return([]domain.Entry{
		{HabitID: "h1", Date: "2026-02-10", Count: 1},
	}, nil)

	hm, err := svc.Heatmap(context.Background(), "u1", "h1", 2026, 2)
	require.NoError(t, err)
	assert.Len(t, hm.Days, 28)
	assert.True(t, hm.Days[9].Done)
}

func TestCalendarStats_SkipsArchivedHabits(t *testing.T) {
	entries, habits, calendars, users, svc := newMocks()

	calendars.On("Get", mock.Anything, "c1").Return(&domain.Calendar{CalendarID: "c1", UserID: "u1", Enable: true}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Timezone: "UTC"}, nil)
	habits.On("ListByCalendar", mock.Anything, "c1").Return([]domain.Habit{
		{HabitID: "h1", UserID: "u1", Enable: true},
		{HabitID: "h2", UserID: "u1", Enable: true, Archived: true},
	}, nil)
	entries.On("ListByHabit", mock.Anything, "h1").Return([]domain.Entry{}, nil)

	st, err := svc.CalendarStats(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Len(t, st.Habits, 1)
	entries.AssertNotCalled(t, "ListByHabit", mock.Anything, "h2")
}
