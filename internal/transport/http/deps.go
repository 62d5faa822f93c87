package http

import (
	"context"
	"io"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/habitboard-api/internal/infrastructure/jwt"
	s3infra "github.com/habitboard-api/internal/infrastructure/s3"
	"github.com/habitboard-api/internal/infrastructure/smtp"
	"github.com/habitboard-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	DeviceRepo       *dynamo.DeviceRepo
	CalendarRepo     *dynamo.CalendarRepo
	HabitRepo        *dynamo.HabitRepo
	EntryRepo        *dynamo.EntryRepo
	LoginCodeRepo    *dynamo.LoginCodeRepo
	NotificationRepo *dynamo.NotificationRepo
	FileRepo         *dynamo.FileRepo
	AppVersionRepo   *dynamo.AppVersionRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}

// UserRepository is the contract the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	PutIfAbsent(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
	// QueryPage returns a page of enabled users via the `enable-index` GSI.
	QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// SessionRepository is the contract the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

// EntryRepository is the contract the router requires from a completion-log store.
type EntryRepository interface {
	Put(ctx context.Context, e *domain.Entry) error
	Get(ctx context.Context, habitID, date string) (*domain.Entry, error)
	Delete(ctx context.Context, habitID, date string) error
	Between(ctx context.Context, habitID, from, to string) ([]domain.Entry, error)
	ListByHabit(ctx context.Context, habitID string) ([]domain.Entry, error)
}

// LoginCodeRepository is the contract the router requires from a login-code store.
type LoginCodeRepository interface {
	Put(ctx context.Context, c *domain.LoginCode) error
	Get(ctx context.Context, email, purpose string) (*domain.LoginCode, error)
	Delete(ctx context.Context, email, purpose string) error
	IncrementAttempts(ctx context.Context, email, purpose string) (int, error)
}

// ObjectStore is the contract the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Compile-time checks that the dynamo repos satisfy the contracts above.
var (
	_ UserRepository      = (*dynamo.UserRepo)(nil)
	_ SessionRepository   = (*dynamo.SessionRepo)(nil)
	_ EntryRepository     = (*dynamo.EntryRepo)(nil)
	_ LoginCodeRepository = (*dynamo.LoginCodeRepo)(nil)
	_ ObjectStore         = (*s3infra.Store)(nil)
)
