package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Put(ctx context.Context, c *domain.LoginCode) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCodeStore) Get(ctx context.Context, email, purpose string) (*domain.LoginCode, error) {
	args := m.Called(ctx, email, purpose)
	if c, _ := args.Get(0).(*domain.LoginCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) Delete(ctx context.Context, email, purpose string) error {
	return m.Called(ctx, email, purpose).Error(0)
}
func (m *mockCodeStore) IncrementAttempts(ctx context.Context, email, purpose string) (int, error) {
	args := m.Called(ctx, email, purpose)
	return args.Int(0), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) PutIfAbsent(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) GetByUUID(ctx context.Context, uuid string) (*domain.Device, error) {
	args := m.Called(ctx, uuid)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceStore) Put(ctx context.Context, d *domain.Device) error {
	return m.Called(ctx, d).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, phone, msg string) error {
	return m.Called(ctx, phone, msg).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, deviceID, role, sessionID string) (string, error) {
	args := m.Called(userID, deviceID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(cs *mockCodeStore, us *mockUserStore, ss *mockSessionStore, ds *mockDeviceStore, ml *mockMailer, sms *mockSMSSender, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		CodeRepo:        cs,
		UserRepo:        us,
		SessionRepo:     ss,
		DeviceRepo:      ds,
		Mailer:          ml,
		SMSSender:       sms,
		JWTProvider:     jwt,
		CodeExpiry:      10 * time.Minute,
		Cooldown:        time.Minute,
		MaxAttempts:     5,
		RefreshTokenDur: 30 * 24 * time.Hour,
	})
}

func hashCode(t *testing.T, code string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func pendingCode(t *testing.T, code string) *domain.LoginCode {
	t.Helper()
	now := time.Now()
	return &domain.LoginCode{
		Email:     "a@b.com",
		Purpose:   domain.PurposeLogin,
		CodeHash:  hashCode(t, code),
		Channel:   domain.ChannelEmail,
		IssuedAt:  now.Add(-2 * time.Minute).Unix(),
		ExpiresAt: now.Add(8 * time.Minute).Unix(),
	}
}

// --- SendCode ---

func TestSendCode_HappyPath_Email(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)
	cs.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.LoginCode) bool {
		return c.Email == "a@b.com" && c.CodeHash != "" && c.Attempts == 0
	})).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(cs, nil, nil, nil, ml, nil, nil)
	err := svc.SendCode(context.Background(), SendCodeRequest{Email: "A@B.com "})

	require.NoError(t, err)
	cs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestSendCode_UnknownEmail_StillSendsCode(t *testing.T) {
	// Account creation happens on verify; send-code never reveals whether
	// an account exists.
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Get", mock.Anything, "new@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "new@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(cs, nil, nil, nil, ml, nil, nil)
	require.NoError(t, svc.SendCode(context.Background(), SendCodeRequest{Email: "new@b.com"}))
}

func TestSendCode_Cooldown_ReturnsTooManyRequests(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(&domain.LoginCode{
		IssuedAt: time.Now().Add(-10 * time.Second).Unix(),
	}, nil)

	svc := newService(cs, nil, nil, nil, nil, nil, nil)
	err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@b.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyRequests))
}

func TestSendCode_CooldownElapsed_ReplacesCode(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(&domain.LoginCode{
		IssuedAt: time.Now().Add(-5 * time.Minute).Unix(),
	}, nil)
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(cs, nil, nil, nil, ml, nil, nil)
	require.NoError(t, svc.SendCode(context.Background(), SendCodeRequest{Email: "a@b.com"}))
}

func TestSendCode_SMSWithoutAccount_ReturnsBadRequest(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)

	svc := newService(cs, us, nil, nil, nil, nil, nil)
	sms := domain.ChannelSMS
	err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@b.com", Channel: &sms})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSendCode_SMSWithoutPhone_ReturnsBadRequest(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(cs, us, nil, nil, nil, nil, nil)
	sms := domain.ChannelSMS
	err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@b.com", Channel: &sms})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSendCode_SMSHappyPath(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	sms := &mockSMSSender{}
	phone := "+34600000000"
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u1", Phone: &phone}, nil)
	cs.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.LoginCode) bool {
		return c.Channel == domain.ChannelSMS
	})).Return(nil)
	sms.On("SendSMS", mock.Anything, phone, mock.Anything).Return(nil)

	svc := newService(cs, us, nil, nil, nil, sms, nil)
	ch := domain.ChannelSMS
	require.NoError(t, svc.SendCode(context.Background(), SendCodeRequest{Email: "a@b.com", Channel: &ch}))
	sms.AssertExpectations(t)
}

// --- VerifyCode ---

func TestVerifyCode_NoPendingCode(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil, domain.ErrNotFound)

	svc := newService(cs, nil, nil, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyCode_Expired_DeletesRecord(t *testing.T) {
	cs := &mockCodeStore{}
	c := pendingCode(t, "123456")
	c.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(c, nil)
	cs.On("Delete", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil)

	svc := newService(cs, nil, nil, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	cs.AssertExpectations(t)
}

func TestVerifyCode_WrongCode_IncrementsAttempts(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(pendingCode(t, "123456"), nil)
	cs.On("IncrementAttempts", mock.Anything, "a@b.com", domain.PurposeLogin).Return(2, nil)

	svc := newService(cs, nil, nil, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "654321"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	cs.AssertExpectations(t)
	cs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_WrongCode_AttemptsExhausted_DeletesRecord(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(pendingCode(t, "123456"), nil)
	cs.On("IncrementAttempts", mock.Anything, "a@b.com", domain.PurposeLogin).Return(5, nil)
	cs.On("Delete", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil)

	svc := newService(cs, nil, nil, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "654321"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	cs.AssertExpectations(t)
}

func TestVerifyCode_HappyPath_ExistingUser(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	ds := &mockDeviceStore{}
	jwt := &mockJWTSigner{}

	user := &domain.User{UserID: "u1", Email: "a@b.com", Role: domain.RoleUser, Enable: 1}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(pendingCode(t, "123456"), nil)
	cs.On("Delete", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	ds.On("GetByUUID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	ds.On("Put", mock.Anything, mock.AnythingOfType("*domain.Device")).Return(nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "u1", mock.Anything, domain.RoleUser, mock.Anything).Return("bearer-token", nil)

	svc := newService(cs, us, ss, ds, nil, nil, jwt)
	result, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", result.Bearer)
	assert.NotEmpty(t, result.RefreshToken)
	assert.False(t, result.Created)
	assert.Equal(t, "u1", result.Session.UserID)
}

func TestVerifyCode_HappyPath_CreatesAccount(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	ds := &mockDeviceStore{}
	jwt := &mockJWTSigner{}

	cs.On("Get", mock.Anything, "new@b.com", domain.PurposeLogin).Return(&domain.LoginCode{
		Email:     "new@b.com",
		Purpose:   domain.PurposeLogin,
		CodeHash:  hashCode(t, "123456"),
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(8 * time.Minute).Unix(),
	}, nil)
	cs.On("Delete", mock.Anything, "new@b.com", domain.PurposeLogin).Return(nil)
	us.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, domain.ErrNotFound)
	us.On("PutIfAbsent", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@b.com" && u.Role == domain.RoleUser &&
			u.EmailConfirmed && u.Enable == 1 && u.DisplayName == "new" && u.Timezone == "UTC"
	})).Return(nil)
	ds.On("GetByUUID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	ds.On("Put", mock.Anything, mock.AnythingOfType("*domain.Device")).Return(nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything, domain.RoleUser, mock.Anything).Return("bearer-token", nil)

	svc := newService(cs, us, ss, ds, nil, nil, jwt)
	result, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "new@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.True(t, result.Created)
	us.AssertExpectations(t)
}

func TestVerifyCode_ConcurrentCreate_ConflictFallsBackToWinner(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	ds := &mockDeviceStore{}
	jwt := &mockJWTSigner{}

	winner := &domain.User{UserID: "u-winner", Email: "new@b.com", Role: domain.RoleUser, Enable: 1}
	cs.On("Get", mock.Anything, "new@b.com", domain.PurposeLogin).Return(pendingCodeFor(t, "new@b.com", "123456"), nil)
	cs.On("Delete", mock.Anything, "new@b.com", domain.PurposeLogin).Return(nil)
	us.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, domain.ErrNotFound).Once()
	us.On("PutIfAbsent", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	us.On("GetByEmail", mock.Anything, "new@b.com").Return(winner, nil)
	ds.On("GetByUUID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	ds.On("Put", mock.Anything, mock.Anything).Return(nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "u-winner", mock.Anything, mock.Anything, mock.Anything).Return("bearer-token", nil)

	svc := newService(cs, us, ss, ds, nil, nil, jwt)
	result, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "new@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "u-winner", result.Session.UserID)
}

func TestVerifyCode_DisabledAccount_ReturnsForbidden(t *testing.T) {
	cs := &mockCodeStore{}
	us := &mockUserStore{}
	cs.On("Get", mock.Anything, "a@b.com", domain.PurposeLogin).Return(pendingCode(t, "123456"), nil)
	cs.On("Delete", mock.Anything, "a@b.com", domain.PurposeLogin).Return(nil)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u1", Enable: 0}, nil)

	svc := newService(cs, us, nil, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func pendingCodeFor(t *testing.T, email, code string) *domain.LoginCode {
	t.Helper()
	c := pendingCode(t, code)
	c.Email = email
	return c
}
