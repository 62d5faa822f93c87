package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/pkg/id"
	pkgtoken "github.com/habitboard-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type SendCodeRequest struct {
	Email   string  `json:"email" validate:"required,email"`
	Channel *string `json:"channel" validate:"omitempty,oneof=email sms"`
}

type VerifyCodeRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Code        string  `json:"code" validate:"required,len=6,numeric"`
	DeviceUUID  *string `json:"device_uuid"`
	DisplayName *string `json:"display_name"` // used only when the account is created
	Timezone    *string `json:"timezone"`     // used only when the account is created
}

type VerifyResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
	Created      bool // true when the account was created by this verify
}

type Service interface {
	SendCode(ctx context.Context, req SendCodeRequest) error
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyResult, error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.LoginCode) error
	Get(ctx context.Context, email, purpose string) (*domain.LoginCode, error)
	Delete(ctx context.Context, email, purpose string) error
	IncrementAttempts(ctx context.Context, email, purpose string) (int, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	PutIfAbsent(ctx context.Context, u *domain.User) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type deviceStore interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.Device, error)
	Put(ctx context.Context, d *domain.Device) error
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, deviceID, role, sessionID string) (string, error)
}

type service struct {
	codeRepo        codeStore
	userRepo        userStore
	sessionRepo     sessionStore
	deviceRepo      deviceStore
	mailer          mailSender
	smsSender       smsSender
	jwtProvider     jwtSigner
	codeExpiry      time.Duration
	cooldown        time.Duration
	maxAttempts     int
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	CodeRepo        codeStore
	UserRepo        userStore
	SessionRepo     sessionStore
	DeviceRepo      deviceStore
	Mailer          mailSender
	SMSSender       smsSender
	JWTProvider     jwtSigner
	CodeExpiry      time.Duration
	Cooldown        time.Duration
	MaxAttempts     int
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codeRepo:        deps.CodeRepo,
		userRepo:        deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		deviceRepo:      deps.DeviceRepo,
		mailer:          deps.Mailer,
		smsSender:       deps.SMSSender,
		jwtProvider:     deps.JWTProvider,
		codeExpiry:      deps.CodeExpiry,
		cooldown:        deps.Cooldown,
		maxAttempts:     deps.MaxAttempts,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

func (s *service) SendCode(ctx context.Context, req SendCodeRequest) error {
	email := normalizeEmail(req.Email)

	// Cooldown: a still-fresh pending code blocks re-request.
	if existing, err := s.codeRepo.Get(ctx, email, domain.PurposeLogin); err == nil {
		if time.Since(time.Unix(existing.IssuedAt, 0)) < s.cooldown {
			return fmt.Errorf("code was just sent, retry later: %w", domain.ErrTooManyRequests)
		}
	}

	channel := domain.ChannelEmail
	if req.Channel != nil {
		channel = *req.Channel
	}

	var phone string
	if channel == domain.ChannelSMS {
		if s.smsSender == nil {
			return fmt.Errorf("sms channel not configured: %w", domain.ErrBadRequest)
		}
		// SMS delivery only works for an existing account with a phone on file.
		u, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("no account for SMS delivery: %w", domain.ErrBadRequest)
		}
		if u.Phone == nil || *u.Phone == "" {
			return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		phone = *u.Phone
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	c := &domain.LoginCode{
		Email:     email,
		Purpose:   domain.PurposeLogin,
		CodeHash:  string(hash),
		Channel:   channel,
		Attempts:  0,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.codeExpiry).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return err
	}

	if channel == domain.ChannelSMS {
		return s.smsSender.SendSMS(ctx, phone, "Your habitboard login code: "+code)
	}
	body := fmt.Sprintf("Your habitboard login code is %s. It expires in %d minutes.",
		code, int(s.codeExpiry.Minutes()))
	return s.mailer.SendEmail(email, "Your login code", body)
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyResult, error) {
	email := normalizeEmail(req.Email)

	c, err := s.codeRepo.Get(ctx, email, domain.PurposeLogin)
	if err != nil {
		return nil, fmt.Errorf("no pending code: %w", domain.ErrNotFound)
	}
	if c.ExpiresAt < time.Now().Unix() {
		if err := s.codeRepo.Delete(ctx, email, domain.PurposeLogin); err != nil {
			slog.Warn("failed to delete expired login code", "email", email, "err", err)
		}
		return nil, fmt.Errorf("code expired: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(req.Code)) != nil {
		attempts, incErr := s.codeRepo.IncrementAttempts(ctx, email, domain.PurposeLogin)
		if incErr != nil {
			slog.Warn("failed to increment login code attempts", "email", email, "err", incErr)
		} else if attempts >= s.maxAttempts {
			if err := s.codeRepo.Delete(ctx, email, domain.PurposeLogin); err != nil {
				slog.Warn("failed to delete exhausted login code", "email", email, "err", err)
			}
		}
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if err := s.codeRepo.Delete(ctx, email, domain.PurposeLogin); err != nil {
		slog.Warn("failed to delete used login code", "email", email, "err", err)
	}

	u, created, err := s.getOrCreateUser(ctx, email, req)
	if err != nil {
		return nil, err
	}
	if u.Enable == 0 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}

	dev, err := s.resolveDevice(ctx, req.DeviceUUID, u.UserID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		DeviceID:         dev.DeviceID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, dev.DeviceID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &VerifyResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess, Created: created}, nil
}

// getOrCreateUser fetches the account for email or creates it. Creation uses a
// conditional put; on a conflict (concurrent verify) the winner's record is
// fetched and returned.
func (s *service) getOrCreateUser(ctx context.Context, email string, req VerifyCodeRequest) (*domain.User, bool, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	displayName := strings.SplitN(email, "@", 2)[0]
	if req.DisplayName != nil && *req.DisplayName != "" {
		displayName = *req.DisplayName
	}
	timezone := "UTC"
	if req.Timezone != nil {
		if _, tzErr := time.LoadLocation(*req.Timezone); tzErr == nil {
			timezone = *req.Timezone
		}
	}
	now := time.Now().UTC()
	u = &domain.User{
		UserID:         id.New(),
		Email:          email,
		DisplayName:    displayName,
		Timezone:       timezone,
		Role:           domain.RoleUser,
		EmailConfirmed: true, // proven by the OTP itself
		Enable:         1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.PutIfAbsent(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			winner, getErr := s.userRepo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, getErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return u, true, nil
}

func (s *service) resolveDevice(ctx context.Context, deviceUUID *string, userID string) (*domain.Device, error) {
	if deviceUUID != nil {
		d, err := s.deviceRepo.GetByUUID(ctx, *deviceUUID)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	devUUID := id.New()
	if deviceUUID != nil {
		devUUID = *deviceUUID
	}
	now := time.Now().UTC()
	d := &domain.Device{
		DeviceID:  id.New(),
		UUID:      devUUID,
		UserID:    userID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deviceRepo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
