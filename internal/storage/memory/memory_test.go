package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

var _ storage.Storage = (*Storage)(nil)

func TestStorage_UploadGetDelete(t *testing.T) {
	s := New("http://localhost:8080")
	ctx := context.Background()

	res, err := s.Upload(ctx, &storage.UploadInput{
		Key: "products/abc.png", ContentType: "image/png", Data: strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/products/abc.png", res.URL)

	data, ct, ok := s.Get("products/abc.png")
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", ct)

	require.NoError(t, s.Delete(ctx, "products/abc.png"))
	assert.ErrorIs(t, s.Delete(ctx, "products/abc.png"), apperrors.ErrNotFound)
}
