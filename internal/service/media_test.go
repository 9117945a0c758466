package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage/memory"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadImage(t *testing.T) {
	store := memory.New("http://localhost:8080")
	svc := NewMediaService(store, newTestLogger())

	res, err := svc.UploadImage(context.Background(), &UploadImageInput{
		FileName:    "bottle.png",
		ContentType: "image/png",
		Size:        int64(len(pngHeader)),
		Data:        bytes.NewReader(pngHeader),
	})

	require.NoError(t, err)
	assert.True(t, ValidImageKey(res.Key), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/media/"+res.Key, res.URL)

	data, contentType, ok := store.Get(res.Key)
	require.True(t, ok)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, svc.DeleteImage(context.Background(), res.Key))
	assert.ErrorIs(t, svc.DeleteImage(context.Background(), res.Key), apperrors.ErrNotFound)
}

func TestUploadImage_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input UploadImageInput
	}{
		{name: "empty", input: UploadImageInput{ContentType: "image/png", Size: 0, Data: bytes.NewReader(nil)}},
		{name: "too large", input: UploadImageInput{ContentType: "image/png", Size: MaxImageSize + 1, Data: bytes.NewReader(pngHeader)}},
		{name: "wrong type", input: UploadImageInput{ContentType: "image/gif", Size: 4, Data: strings.NewReader("GIF8")}},
		{name: "content mismatch", input: UploadImageInput{ContentType: "image/jpeg", Size: int64(len(pngHeader)), Data: bytes.NewReader(pngHeader)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMediaService(memory.New("http://localhost"), newTestLogger())
			_, err := svc.UploadImage(context.Background(), &tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestValidImageKey(t *testing.T) {
	assert.True(t, ValidImageKey("products/3f1c2a5e-8f8e-4c59-9d0c-7f1f7b0c2a11.webp"))
	assert.False(t, ValidImageKey("products/../secrets.png"))
	assert.False(t, ValidImageKey("other/3f1c2a5e-8f8e-4c59-9d0c-7f1f7b0c2a11.png"))
	assert.False(t, ValidImageKey("products/3f1c2a5e-8f8e-4c59-9d0c-7f1f7b0c2a11.gif"))
	assert.False(t, ValidImageKey("products/not-a-uuid.png"))
}
