package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/sourzer/sourzer-web/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ImageProcessor shrinks uploaded cover images.
type ImageProcessor interface {
	// Fit decodes data and scales it down to fit within maxWidth x maxHeight,
	// preserving the aspect ratio. Smaller images are not enlarged.
	// Returns the JPEG bytes, the output size and the original size.
	Fit(data io.Reader, maxWidth, maxHeight int) (FitResult, error)
}

// FitResult is the outcome of ImageProcessor.Fit.
type FitResult struct {
	JPEG           []byte
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
}

// =============================================================================
// Implementation
// =============================================================================

type imagingProcessor struct{}

// NewImagingProcessor creates an ImageProcessor backed by the imaging library.
func NewImagingProcessor() ImageProcessor {
	return imagingProcessor{}
}

func (imagingProcessor) Fit(data io.Reader, maxWidth, maxHeight int) (FitResult, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return FitResult{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	res := FitResult{OriginalWidth: bounds.Dx(), OriginalHeight: bounds.Dy()}

	out := image.Image(img)
	if res.OriginalWidth > maxWidth || res.OriginalHeight > maxHeight {
		out = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(domain.CoverJPEGQuality)); err != nil {
		return FitResult{}, fmt.Errorf("failed to encode image: %w", err)
	}

	res.JPEG = buf.Bytes()
	res.Width = out.Bounds().Dx()
	res.Height = out.Bounds().Dy()
	return res, nil
}
