package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/infrastructure/dynamo"
	s3infra "github.com/habitboard-api/internal/infrastructure/s3"
	"github.com/habitboard-api/internal/pkg/id"
)

// presignTTL bounds how long a shared image link stays valid.
const presignTTL = 15 * time.Minute

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	Kind        string // domain.FileKindIcon or domain.FileKindAvatar
	UploaderID  string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	UploadBase64(ctx context.Context, filename, kind, base64Data, uploaderID string) (*domain.File, error)
	Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error)
	// PresignedURL returns a short-lived direct link to the stored object.
	PresignedURL(ctx context.Context, fileID, requesterID string, isAdmin bool) (string, error)
	Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error
}

type service struct {
	s3       *s3infra.Store
	fileRepo *dynamo.FileRepo
}

func NewService(s3 *s3infra.Store, fileRepo *dynamo.FileRepo) Service {
	return &service{s3: s3, fileRepo: fileRepo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	if err := checkKind(input.Kind); err != nil {
		return nil, err
	}
	if err := checkImageType(input.ContentType); err != nil {
		return nil, err
	}
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("media/%s/%s/%s", input.Kind, input.UploaderID, safeName)
	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	if _, err := s.s3.Upload(ctx, key, tee, input.ContentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           id.New(),
		Object:           key,
		Kind:             input.Kind,
		Size:             input.Size,
		Type:             input.ContentType,
		Name:             safeName,
		Hash:             hex.EncodeToString(hasher.Sum(nil)),
		UploadedByUserID: input.UploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) UploadBase64(ctx context.Context, filename, kind, base64Data, uploaderID string) (*domain.File, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", domain.ErrBadRequest)
	}
	safeName := sanitizeFilename(filename)
	contentType := contentTypeFromName(safeName)
	if err := checkImageType(contentType); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("media/%s/%s/%s", kind, uploaderID, safeName)
	if _, err := s.s3.Upload(ctx, key, bytes.NewReader(decoded), contentType); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(decoded)
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           id.New(),
		Object:           key,
		Kind:             kind,
		Size:             int64(len(decoded)),
		Type:             contentType,
		Name:             safeName,
		Hash:             hex.EncodeToString(sum[:]),
		UploadedByUserID: uploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error) {
	f, err := s.getAccessible(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.s3.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func (s *service) PresignedURL(ctx context.Context, fileID, requesterID string, isAdmin bool) (string, error) {
	f, err := s.getAccessible(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return "", err
	}
	return s.s3.PresignedURL(ctx, f.Object, presignTTL)
}

func (s *service) Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error {
	f, err := s.getAccessible(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	if f.UploadedByUserID != requesterID && !isAdmin {
		return fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	if err := s.s3.Delete(ctx, f.Object); err != nil {
		return err
	}
	return s.fileRepo.SoftDelete(ctx, fileID)
}

func (s *service) getAccessible(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if f.UploadedByUserID != requesterID && !isAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return f, nil
}

func checkKind(kind string) error {
	switch kind {
	case domain.FileKindIcon, domain.FileKindAvatar:
		return nil
	}
	return fmt.Errorf("unknown file kind %q: %w", kind, domain.ErrBadRequest)
}

func checkImageType(contentType string) error {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml":
		return nil
	}
	return fmt.Errorf("unsupported content type %q: %w", contentType, domain.ErrBadRequest)
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".svg"):
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
