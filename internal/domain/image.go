package domain

import "time"

// =============================================================================
// Image Constants
// =============================================================================

// SupportedImageTypes maps accepted cover image MIME types to display names.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

const (
	// MaxImageSize is the largest cover image accepted for upload (10MB).
	MaxImageSize = 10 * 1024 * 1024

	// CoverMaxWidth and CoverMaxHeight bound the stored cover image.
	CoverMaxWidth  = 1600
	CoverMaxHeight = 900

	// CoverJPEGQuality is the JPEG quality used when re-encoding covers.
	CoverJPEGQuality = 85
)

// IsValidImageContentType reports whether contentType is accepted for upload.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateImageSize rejects empty and oversized uploads.
func ValidateImageSize(size int64) error {
	if size <= 0 {
		return Invalid("image.validate", "The file is empty.")
	}
	if size > MaxImageSize {
		return &Error{
			Code:    ETOOLARGE,
			Op:      "image.validate",
			Message: "Images must be 10MB or smaller.",
		}
	}
	return nil
}

// =============================================================================
// Uploaded Image
// =============================================================================

// UploadedImage describes a stored blog cover image.
type UploadedImage struct {
	Key            string
	URL            string
	ContentType    string
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
	Size           int64
	UploadedAt     time.Time
}
