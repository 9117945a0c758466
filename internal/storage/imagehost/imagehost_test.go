package imagehost

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httpclient"
)

var _ storage.Storage = (*Storage)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStorage(t *testing.T, h http.HandlerFunc) *Storage {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	client := httpclient.NewCircuitBreakerClient(
		httpclient.NewWithHTTPClient(srv.Client(), cfg),
		httpclient.DefaultCircuitBreakerConfig("imagehost-test-"+t.Name()),
		discardLogger(),
	)

	s := New(Config{BaseURL: srv.URL + "/", CloudName: "demo", APIKey: "key-1", APISecret: "shh", Folder: "perfumes"}, client, discardLogger())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestSign(t *testing.T) {
	// sha1("public_id=sample&timestamp=1315060510abcd")
	got := Sign(map[string]string{"timestamp": "1315060510", "public_id": "sample"}, "abcd")
	assert.Equal(t, "c3470533147774275dd37996cc4d0e68fd03cd4f", got)
}

func TestUpload_SignedMultipart(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "perfumes/products/p1.png", r.FormValue("public_id"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "key-1", r.FormValue("api_key"))
		want := Sign(map[string]string{"public_id": "perfumes/products/p1.png", "timestamp": "1700000000"}, "shh")
		assert.Equal(t, want, r.FormValue("signature"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "bottle.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"public_id":"perfumes/products/p1.png","secure_url":"https://cdn.example.com/p1.png"}`))
	})

	res, err := s.Upload(context.Background(), &storage.UploadInput{
		Key: "products/p1.png", FileName: "bottle.png", ContentType: "image/png", Size: 9, Data: strings.NewReader("png-bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, "products/p1.png", res.Key)
	assert.Equal(t, "https://cdn.example.com/p1.png", res.URL)
}

func TestUpload_ClientErrorIsInvalidInput(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
	})

	_, err := s.Upload(context.Background(), &storage.UploadInput{Key: "k", ContentType: "image/png", Data: strings.NewReader("x")})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorContains(t, err, "Invalid image file")
}

func TestUpload_ServerErrorIsUnavailableAndNotRetried(t *testing.T) {
	var calls atomic.Int32
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := s.Upload(context.Background(), &storage.UploadInput{Key: "k", ContentType: "image/png", Data: strings.NewReader("x")})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("public_id") {
		case "perfumes/products/p1.png":
			assert.NotEmpty(t, r.PostForm.Get("signature"))
			_, _ = w.Write([]byte(`{"result":"ok"}`))
		default:
			_, _ = w.Write([]byte(`{"result":"not found"}`))
		}
	})

	require.NoError(t, s.Delete(context.Background(), "products/p1.png"))
	assert.ErrorIs(t, s.Delete(context.Background(), "products/none.png"), apperrors.ErrNotFound)
}
