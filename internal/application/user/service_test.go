package user

import (
	"context"
	"testing"

	"github.com/habitboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func TestUpdate_ProfileFields(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(repo, new(mockSessionStore))

	name := "Ana"
	tz := "Europe/Madrid"
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{
		"display_name": "Ana",
		"timezone":     "Europe/Madrid",
	}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", DisplayName: "Ana"}, nil)

	u, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{DisplayName: &name, Timezone: &tz}, false)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName)
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidTimezone(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(repo, new(mockSessionStore))

	tz := "Mars/Olympus_Mons"
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Timezone: &tz}, false)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_RoleRequiresAdmin(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(repo, new(mockSessionStore))

	role := domain.RoleAdmin
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: &role}, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_UnknownRoleRejected(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(repo, new(mockSessionStore))

	role := "superuser"
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: &role}, true)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestDelete_DisablesSessionsToo(t *testing.T) {
	repo := new(mockUserStore)
	sessions := new(mockSessionStore)
	svc := NewService(repo, sessions)

	repo.On("SoftDelete", mock.Anything, "u1").Return(nil)
	sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	sessions.AssertExpectations(t)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(repo, new(mockSessionStore))

	repo.On("QueryPage", mock.Anything, int32(50), "").Return([]domain.User{}, "", nil)

	_, _, err := svc.List(context.Background(), 5000, "")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
