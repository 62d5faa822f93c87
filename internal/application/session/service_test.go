package session

import (
	"context"
	"testing"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, deviceID, role, sessionID string) (string, error) {
	args := m.Called(userID, deviceID, role, sessionID)
	return args.String(0), args.Error(1)
}

func activeSession() *domain.Session {
	return &domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		DeviceID:         "d1",
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
}

func TestLogout_DisablesSession(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockUserStore), new(mockJWTSigner), time.Hour)

	sessions.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "s1"))
	sessions.AssertExpectations(t)
}

func TestGetCurrent_AttachesUser(t *testing.T) {
	sessions := new(mockSessionStore)
	users := new(mockUserStore)
	svc := NewService(sessions, users, new(mockJWTSigner), time.Hour)

	sessions.On("Get", mock.Anything, "s1").Return(activeSession(), nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)

	sess, err := svc.GetCurrent(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, "a@b.com", sess.User.Email)
}

func TestGetCurrent_DisabledSession(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockUserStore), new(mockJWTSigner), time.Hour)

	s := activeSession()
	s.Enable = false
	sessions.On("Get", mock.Anything, "s1").Return(s, nil)

	_, err := svc.GetCurrent(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_RotatesToken(t *testing.T) {
	sessions := new(mockSessionStore)
	users := new(mockUserStore)
	signer := new(mockJWTSigner)
	svc := NewService(sessions, users, signer, time.Hour)

	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(activeSession(), nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleUser}, nil)
	signer.On("Sign", "u1", "d1", domain.RoleUser, "s1").Return("new-bearer", nil)

	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockUserStore), new(mockJWTSigner), time.Hour)

	s := activeSession()
	s.RefreshExpiresAt = time.Now().Add(-time.Minute).Unix()
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(s, nil)

	_, _, err := svc.Refresh(context.Background(), "old-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_UnknownToken(t *testing.T) {
	sessions := new(mockSessionStore)
	svc := NewService(sessions, new(mockUserStore), new(mockJWTSigner), time.Hour)

	sessions.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	_, _, err := svc.Refresh(context.Background(), "bogus")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
