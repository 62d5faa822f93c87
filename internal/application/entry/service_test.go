package entry

import (
	"context"
	"testing"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEntryStore struct{ mock.Mock }

func (m *mockEntryStore) Put(ctx context.Context, e *domain.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEntryStore) Get(ctx context.Context, habitID, date string) (*domain.Entry, error) {
	args := m.Called(ctx, habitID, date)
	if e, _ := args.Get(0).(*domain.Entry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntryStore) Delete(ctx context.Context, habitID, date string) error {
	return m.Called(ctx, habitID, date).Error(0)
}

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

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func ownedHabit() *domain.Habit {
	return &domain.Habit{HabitID: "h1", UserID: "u1", Name: "Run", Enable: true}
}

func utcUser() *domain.User {
	return &domain.User{UserID: "u1", Timezone: "UTC", Enable: 1}
}

func dateOffset(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(domain.EntryDateLayout)
}

func TestUpsert_NewEntry(t *testing.T) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	users := new(mockUserStore)
	notifs := new(mockNotificationStore)
	svc := NewService(entries, habits, users, notifs)

	today := dateOffset(0)
	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	users.On("Get", mock.Anything, "u1").Return(utcUser(), nil)
	entries.On("Get", mock.Anything, "h1", today).Return(nil, domain.ErrNotFound)
	entries.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.Entry) bool {
		return e.HabitID == "h1" && e.Date == today && e.UserID == "u1" && e.Count == 1
	})).Return(nil)
	entries.On("ListByHabit", mock.Anything, "h1").Return([]domain.Entry{{HabitID: "h1", Date: today, Count: 1}}, nil)

	e, err := svc.Upsert(context.Background(), "u1", "h1", today, domain.UpsertEntryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Count)
	// Streak of 1 is not a milestone.
	notifs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpsert_FutureDateRejected(t *testing.T) {
	habits := new(mockHabitStore)
	users := new(mockUserStore)
	svc := NewService(new(mockEntryStore), habits, users, new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	users.On("Get", mock.Anything, "u1").Return(utcUser(), nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", dateOffset(2), domain.UpsertEntryRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpsert_BadDateRejected(t *testing.T) {
	habits := new(mockHabitStore)
	svc := NewService(new(mockEntryStore), habits, new(mockUserStore), new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", "03/15/2026", domain.UpsertEntryRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpsert_ArchivedHabitRejected(t *testing.T) {
	habits := new(mockHabitStore)
	svc := NewService(new(mockEntryStore), habits, new(mockUserStore), new(mockNotificationStore))

	h := ownedHabit()
	h.Archived = true
	habits.On("Get", mock.Anything, "h1").Return(h, nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", dateOffset(0), domain.UpsertEntryRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpsert_ForeignHabitForbidden(t *testing.T) {
	habits := new(mockHabitStore)
	svc := NewService(new(mockEntryStore), habits, new(mockUserStore), new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(&domain.Habit{HabitID: "h1", UserID: "other", Enable: true}, nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", dateOffset(0), domain.UpsertEntryRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpsert_SevenDayStreakNotifies(t *testing.T) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	users := new(mockUserStore)
	notifs := new(mockNotificationStore)
	svc := NewService(entries, habits, users, notifs)

	today := dateOffset(0)
	log := make([]domain.Entry, 0, 7)
	for i := 0; i > -7; i-- {
		log = append(log, domain.Entry{HabitID: "h1", Date: dateOffset(i), Count: 1})
	}

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	users.On("Get", mock.Anything, "u1").Return(utcUser(), nil)
	entries.On("Get", mock.Anything, "h1", today).Return(nil, domain.ErrNotFound)
	entries.On("Put", mock.Anything, mock.Anything).Return(nil)
	entries.On("ListByHabit", mock.Anything, "h1").Return(log, nil)
	notifs.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Kind == domain.NotificationStreakMilestone && *n.HabitID == "h1"
	})).Return(nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", today, domain.UpsertEntryRequest{Count: 1})
	require.NoError(t, err)
	notifs.AssertExpectations(t)
}

func TestUpsert_OverwriteSkipsMilestoneCheck(t *testing.T) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	users := new(mockUserStore)
	notifs := new(mockNotificationStore)
	svc := NewService(entries, habits, users, notifs)

	today := dateOffset(0)
	existing := &domain.Entry{HabitID: "h1", Date: today, UserID: "u1", Count: 1, CreatedAt: time.Now().UTC().Add(-time.Hour)}

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	users.On("Get", mock.Anything, "u1").Return(utcUser(), nil)
	entries.On("Get", mock.Anything, "h1", today).Return(existing, nil)
	entries.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.Entry) bool {
		return e.Count == 3 && e.CreatedAt.Equal(existing.CreatedAt)
	})).Return(nil)

	_, err := svc.Upsert(context.Background(), "u1", "h1", today, domain.UpsertEntryRequest{Count: 3})
	require.NoError(t, err)
	entries.AssertNotCalled(t, "ListByHabit", mock.Anything, mock.Anything)
	notifs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestDelete_MissingEntry(t *testing.T) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	svc := NewService(entries, habits, new(mockUserStore), new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	entries.On("Get", mock.Anything, "h1", "2026-03-15").Return(nil, domain.ErrNotFound)

	err := svc.Delete(context.Background(), "u1", "h1", "2026-03-15")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	entries.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRange_InvertedBoundsRejected(t *testing.T) {
	habits := new(mockHabitStore)
	svc := NewService(new(mockEntryStore), habits, new(mockUserStore), new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)

	_, err := svc.Range(context.Background(), "u1", "h1", "2026-03-20", "2026-03-01")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRange_ReturnsWindow(t *testing.T) {
	entries := new(mockEntryStore)
	habits := new(mockHabitStore)
	svc := NewService(entries, habits, new(mockUserStore), new(mockNotificationStore))

	habits.On("Get", mock.Anything, "h1").Return(ownedHabit(), nil)
	entries.On("Between", mock.Anything, "h1", "2026-03-01", "2026-03-31").Return([]domain.Entry{
		{HabitID: "h1", Date: "2026-03-05", Count: 1},
		{HabitID: "h1", Date: "2026-03-06", Count: 2},
	}, nil)

	got, err := svc.Range(context.Background(), "u1", "h1", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
