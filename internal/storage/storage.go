// Package storage defines where uploaded product images are kept.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for image blob operations.
type Storage interface {
	// Upload stores the image under Key and returns its public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)
	// Delete removes the image stored under key.
	Delete(ctx context.Context, key string) error
}

// UploadInput holds the parameters for uploading an image.
type UploadInput struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
