// Package memory keeps uploaded images in process memory.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

type fileEntry struct {
	ContentType string
	Data        []byte
	URL         string
}

// Storage implements storage.Storage with an in-memory map.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]*fileEntry
	baseURL string
}

// New creates an in-memory store whose URLs are rooted at baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]*fileEntry),
		baseURL: baseURL,
	}
}

// Upload reads the image into memory.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, input.Data); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	url := fmt.Sprintf("%s/media/%s", s.baseURL, input.Key)

	s.mu.Lock()
	s.files[input.Key] = &fileEntry{ContentType: input.ContentType, Data: buf.Bytes(), URL: url}
	s.mu.Unlock()

	return &storage.UploadResult{Key: input.Key, URL: url}, nil
}

// Delete removes an image.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[key]; !ok {
		return apperrors.NotFound("image", key)
	}
	delete(s.files, key)
	return nil
}

// Get returns the stored bytes and content type.
func (s *Storage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[key]
	if !ok {
		return nil, "", false
	}
	return f.Data, f.ContentType, true
}
