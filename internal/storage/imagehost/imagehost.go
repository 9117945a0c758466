// Package imagehost uploads product images to a Cloudinary-compatible
// image hosting API using signed requests.
package imagehost

import (
	"context"
	"crypto/sha1" // #nosec G505 -- signature scheme mandated by the upload API
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httpclient"
)

const serviceName = "image host"

// Config holds the account settings of the image host.
type Config struct {
	BaseURL   string `env:"IMAGEHOST_BASE_URL" envDefault:"https://api.cloudinary.com"`
	CloudName string `env:"IMAGEHOST_CLOUD_NAME"`
	APIKey    string `env:"IMAGEHOST_API_KEY"`
	APISecret string `env:"IMAGEHOST_API_SECRET"`
	Folder    string `env:"IMAGEHOST_FOLDER" envDefault:"perfumes"`
}

// Doer sends an HTTP request; *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Storage implements storage.Storage against the image host.
type Storage struct {
	cfg    Config
	client Doer
	logger *slog.Logger
	now    func() time.Time
}

// New creates an image host store sending requests through client.
func New(cfg Config, client Doer, logger *slog.Logger) *Storage {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Storage{cfg: cfg, client: client, logger: logger, now: time.Now}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type destroyResponse struct {
	Result string `json:"result"`
}

func (s *Storage) endpoint(action string) string {
	return fmt.Sprintf("%s/v1_1/%s/image/%s", s.cfg.BaseURL, url.PathEscape(s.cfg.CloudName), action)
}

// publicID maps a storage key onto the host's id, inside the folder.
func (s *Storage) publicID(key string) string {
	if s.cfg.Folder == "" {
		return key
	}
	return s.cfg.Folder + "/" + key
}

// Upload streams the image to the host as multipart form data. The body is
// never buffered, so a failed upload is not retried.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	params := map[string]string{
		"public_id": s.publicID(input.Key),
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	fields := s.signed(params)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, input))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("upload"), pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(ctx, req)
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.SecureURL == "" {
		return nil, apperrors.Unavailable("image host returned no url", nil)
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("key", input.Key),
		slog.String("public_id", out.PublicID),
		slog.Int64("size", input.Size),
	)
	return &storage.UploadResult{Key: input.Key, URL: out.SecureURL}, nil
}

// Delete destroys the image stored under key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	params := map[string]string{
		"public_id": s.publicID(key),
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range s.signed(params) {
		form.Set(k, v)
	}
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("destroy"), strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out destroyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode destroy response: %w", err)
	}
	switch out.Result {
	case "ok":
		return nil
	case "not found":
		return apperrors.NotFound("image", key)
	default:
		return fmt.Errorf("image host destroy %s: %s", key, out.Result)
	}
}

// signed adds api_key and signature to params. The signature is the hex
// SHA-1 of the params sorted by name, joined as k=v with "&", followed by
// the API secret.
func (s *Storage) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = Sign(params, s.cfg.APISecret)
	out["api_key"] = s.cfg.APIKey
	return out
}

// Sign computes the request signature for params.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, input *storage.UploadInput) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName(input)))
	h.Set("Content-Type", input.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return err
	}
	return mw.Close()
}

func fileName(input *storage.UploadInput) string {
	if input.FileName != "" {
		return input.FileName
	}
	return input.Key
}

func transportError(err error) error {
	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return apperrors.Unavailable("image host is temporarily unavailable", err)
	}
	var se *httpclient.ServerError
	if errors.As(err, &se) {
		return apperrors.Unavailable("image host is unavailable", err)
	}
	return apperrors.Unavailable("image host request failed", err)
}
