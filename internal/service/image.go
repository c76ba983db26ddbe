package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/metrics"
	"github.com/sourzer/sourzer-web/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// UploadService stores blog cover images.
type UploadService interface {
	// Upload validates, resizes and stores one image and returns its public
	// URL, ready to be used as a post's image_url.
	// Returns domain.EINVALID for unsupported content.
	// Returns domain.ETOOLARGE when the file exceeds domain.MaxImageSize.
	Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.UploadedImage, error)
}

// =============================================================================
// Implementation
// =============================================================================

type uploadService struct {
	storage   storage.Storage
	processor ImageProcessor
	logger    *slog.Logger
	now       func() time.Time
}

// NewUploadService creates a new UploadService.
//
// Parameters:
// - store: Local disk or R2 storage
// - processor: Resizes images before they are stored
// - logger: Structured logger
func NewUploadService(store storage.Storage, processor ImageProcessor, logger *slog.Logger) UploadService {
	return &uploadService{
		storage:   store,
		processor: processor,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload stores a cover image.
//
// Flow:
// 1. Check the declared size
// 2. Sniff the content type from the first 512 bytes
// 3. Resize to fit the cover bounds and re-encode as JPEG
// 4. Store under blog/covers/{uuid}.jpg and resolve the public URL
func (s *uploadService) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.UploadedImage, error) {
	const op = "image.upload"

	if err := domain.ValidateImageSize(size); err != nil {
		metrics.ImagesUploaded.WithLabelValues("rejected").Inc()
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read upload")
	}
	if err := domain.ValidateImageSize(int64(len(data))); err != nil {
		metrics.ImagesUploaded.WithLabelValues("rejected").Inc()
		return nil, err
	}

	contentType := http.DetectContentType(data)
	if !domain.IsValidImageContentType(contentType) {
		metrics.ImagesUploaded.WithLabelValues("rejected").Inc()
		return nil, domain.Invalid(op, "Unsupported image type. Use JPEG, PNG or GIF.")
	}

	fit, err := s.processor.Fit(bytes.NewReader(data), domain.CoverMaxWidth, domain.CoverMaxHeight)
	if err != nil {
		metrics.ImagesUploaded.WithLabelValues("rejected").Inc()
		return nil, domain.Wrap(err, domain.EINVALID, op, "The image could not be read.")
	}

	key := storage.CoverImageKey(filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(fit.JPEG), storage.PutOptions{
		ContentType: "image/jpeg",
		MaxSize:     domain.MaxImageSize,
		Public:      true,
	}); err != nil {
		metrics.ImagesUploaded.WithLabelValues("failed").Inc()
		return nil, domain.Internal(err, op, "failed to store image")
	}

	url, err := s.storage.URL(ctx, key, 0)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		metrics.ImagesUploaded.WithLabelValues("failed").Inc()
		return nil, domain.Internal(err, op, "failed to resolve image URL")
	}

	metrics.ImagesUploaded.WithLabelValues("stored").Inc()
	s.logger.Info("cover image stored",
		"key", key,
		"original", filename,
		"width", fit.Width,
		"height", fit.Height,
	)

	return &domain.UploadedImage{
		Key:            key,
		URL:            url,
		ContentType:    "image/jpeg",
		Width:          fit.Width,
		Height:         fit.Height,
		OriginalWidth:  fit.OriginalWidth,
		OriginalHeight: fit.OriginalHeight,
		Size:           int64(len(fit.JPEG)),
		UploadedAt:     s.now(),
	}, nil
}
