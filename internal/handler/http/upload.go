package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the image itself.
const multipartOverhead = 64 << 10

// MediaSource serves stored image bytes. The in-memory store implements it.
type MediaSource interface {
	Get(key string) ([]byte, string, bool)
}

// UploadHandler serves image uploads and, for the in-memory store, the
// uploaded bytes themselves.
type UploadHandler struct {
	service *service.MediaService
	source  MediaSource
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload HTTP handler. source may be nil
// when images are hosted elsewhere.
func NewUploadHandler(svc *service.MediaService, source MediaSource, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{service: svc, source: source, logger: logger}
}

// Upload handles POST /api/v1/admin/uploads
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			httputil.WriteError(w, r, apperrors.InvalidInput("file exceeds 5 MiB"), h.logger)
		case errors.Is(err, http.ErrMissingFile):
			httputil.WriteError(w, r, apperrors.InvalidInput("file is required"), h.logger)
		default:
			httputil.WriteError(w, r, apperrors.InvalidInput("request must be multipart/form-data with a file field"), h.logger)
		}
		return
	}
	defer file.Close()

	res, err := h.service.UploadImage(r.Context(), &service.UploadImageInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, res)
}

// Delete handles DELETE /api/v1/admin/uploads/*
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := h.service.DeleteImage(r.Context(), key); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Serve handles GET /media/*
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if h.source == nil || !service.ValidImageKey(key) {
		httputil.WriteError(w, r, apperrors.NotFound("image", key), h.logger)
		return
	}
	data, contentType, ok := h.source.Get(key)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("image", key), h.logger)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
