package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

const imageKeyPrefix = "products/"

// imageExtensions maps accepted content types to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// MediaService stores product images.
type MediaService struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(store storage.Storage, logger *slog.Logger) *MediaService {
	return &MediaService{store: store, logger: logger}
}

// UploadImageInput describes an image being uploaded.
type UploadImageInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadImage checks type and size and streams the image to the store under
// a fresh key.
func (s *MediaService) UploadImage(ctx context.Context, input *UploadImageInput) (*storage.UploadResult, error) {
	if input.Size <= 0 {
		return nil, apperrors.InvalidInput("file is empty")
	}
	if input.Size > MaxImageSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file exceeds %d MiB", MaxImageSize>>20))
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(input.ContentType, ";")[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperrors.InvalidInput("file must be a JPEG, PNG, WebP or AVIF image")
	}

	br := bufio.NewReaderSize(input.Data, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	// AVIF is not recognised by the sniffer, which reports octet-stream.
	if sniffed := http.DetectContentType(head); sniffed != contentType && sniffed != "application/octet-stream" {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file content is %s, not %s", sniffed, contentType))
	}

	key := imageKeyPrefix + uuid.New().String() + ext
	res, err := s.store.Upload(ctx, &storage.UploadInput{
		Key:         key,
		FileName:    input.FileName,
		ContentType: contentType,
		Size:        input.Size,
		Data:        io.LimitReader(br, MaxImageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("key", res.Key),
		slog.Int64("size", input.Size),
	)
	return res, nil
}

// DeleteImage removes an uploaded image.
func (s *MediaService) DeleteImage(ctx context.Context, key string) error {
	if !ValidImageKey(key) {
		return apperrors.InvalidInput("invalid image key")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	s.logger.InfoContext(ctx, "image deleted", slog.String("key", key))
	return nil
}

// ValidImageKey reports whether key names an image this service created.
func ValidImageKey(key string) bool {
	if !strings.HasPrefix(key, imageKeyPrefix) || path.Clean(key) != key {
		return false
	}
	name := strings.TrimPrefix(key, imageKeyPrefix)
	ext := path.Ext(name)
	if uuid.Validate(strings.TrimSuffix(name, ext)) != nil {
		return false
	}
	for _, e := range imageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
