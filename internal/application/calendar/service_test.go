package calendar

import (
	"context"
	"errors"
	"testing"

	"github.com/habitboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCalendarStore struct{ mock.Mock }

func (m *mockCalendarStore) Put(ctx context.Context, c *domain.Calendar) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCalendarStore) Get(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	args := m.Called(ctx, calendarID)
	if c, _ := args.Get(0).(*domain.Calendar); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCalendarStore) ListByUser(ctx context.Context, userID string) ([]domain.Calendar, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Calendar), args.Error(1)
}

func (m *mockCalendarStore) Update(ctx context.Context, calendarID string, updates map[string]interface{}) error {
	return m.Called(ctx, calendarID, updates).Error(0)
}

func (m *mockCalendarStore) SoftDelete(ctx context.Context, calendarID string) error {
	return m.Called(ctx, calendarID).Error(0)
}

type mockHabitStore struct{ mock.Mock }

func (m *mockHabitStore) ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error) {
	args := m.Called(ctx, calendarID)
	return args.Get(0).([]domain.Habit), args.Error(1)
}

func (m *mockHabitStore) Archive(ctx context.Context, habitID string) error {
	return m.Called(ctx, habitID).Error(0)
}

func ownedCalendar(id, userID string) *domain.Calendar {
	return &domain.Calendar{CalendarID: id, UserID: userID, Name: "Fitness", Enable: true}
}

func TestCreate_SetsOwnerAndDefaults(t *testing.T) {
	repo := new(mockCalendarStore)
	svc := NewService(repo, new(mockHabitStore))

	repo.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.Calendar) bool {
		return c.UserID == "u1" && c.Name == "Fitness" && c.Enable && c.CalendarID != ""
	})).Return(nil)

	c, err := svc.Create(context.Background(), "u1", domain.CreateCalendarRequest{Name: "Fitness", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.True(t, c.Enable)
	repo.AssertExpectations(t)
}

func TestGet_OtherOwnerIsForbidden(t *testing.T) {
	repo := new(mockCalendarStore)
	svc := NewService(repo, new(mockHabitStore))

	repo.On("Get", mock.Anything, "c1").Return(ownedCalendar("c1", "someone-else"), nil)

	_, err := svc.Get(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet_DisabledIsNotFound(t *testing.T) {
	repo := new(mockCalendarStore)
	svc := NewService(repo, new(mockHabitStore))

	c := ownedCalendar("c1", "u1")
	c.Enable = false
	repo.On("Get", mock.Anything, "c1").Return(c, nil)

	_, err := svc.Get(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_OnlyChangedFields(t *testing.T) {
	repo := new(mockCalendarStore)
	svc := NewService(repo, new(mockHabitStore))

	repo.On("Get", mock.Anything, "c1").Return(ownedCalendar("c1", "u1"), nil)
	name := "Health"
	repo.On("Update", mock.Anything, "c1", map[string]interface{}{"name": "Health"}).Return(nil)

	_, err := svc.Update(context.Background(), "u1", "c1", domain.UpdateCalendarRequest{Name: &name})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDelete_ArchivesHabitsThenSoftDeletes(t *testing.T) {
	repo := new(mockCalendarStore)
	habits := new(mockHabitStore)
	svc := NewService(repo, habits)

	repo.On("Get", mock.Anything, "c1").Return(ownedCalendar("c1", "u1"), nil)
	habits.On("ListByCalendar", mock.Anything, "c1").Return([]domain.Habit{
		{HabitID: "h1"}, {HabitID: "h2"},
	}, nil)
	habits.On("Archive", mock.Anything, "h1").Return(nil)
	habits.On("Archive", mock.Anything, "h2").Return(errors.New("dynamo down"))
	repo.On("SoftDelete", mock.Anything, "c1").Return(nil)

	// One habit failing to archive does not abort the delete.
	err := svc.Delete(context.Background(), "u1", "c1")
	require.NoError(t, err)
	habits.AssertExpectations(t)
	repo.AssertExpectations(t)
}
