package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImagingProcessor_Fit(t *testing.T) {
	p := NewImagingProcessor()

	res, err := p.Fit(bytes.NewReader(pngBytes(t, 3200, 900)), domain.CoverMaxWidth, domain.CoverMaxHeight)
	require.NoError(t, err)
	assert.Equal(t, 1600, res.Width)
	assert.Equal(t, 450, res.Height)
	assert.Equal(t, 3200, res.OriginalWidth)

	res, err = p.Fit(bytes.NewReader(pngBytes(t, 40, 20)), domain.CoverMaxWidth, domain.CoverMaxHeight)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Width, "small images are not enlarged")

	_, err = p.Fit(strings.NewReader("not an image"), 10, 10)
	assert.Error(t, err)
}

func TestUploadService_Upload(t *testing.T) {
	store := newMemoryStorage()
	svc := NewUploadService(store, NewImagingProcessor(), testLogger())
	data := pngBytes(t, 200, 100)

	img, err := svc.Upload(context.Background(), bytes.NewReader(data), "cover.png", int64(len(data)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.Key, "blog/covers/"))
	assert.Equal(t, "https://cdn.example.com/"+img.Key, img.URL)
	assert.Equal(t, "image/jpeg", img.ContentType)

	ok, _ := store.Exists(context.Background(), img.Key)
	assert.True(t, ok)
}

func TestUploadService_Rejects(t *testing.T) {
	svc := NewUploadService(newMemoryStorage(), NewImagingProcessor(), testLogger())

	tests := []struct {
		name     string
		data     []byte
		size     int64
		wantCode string
	}{
		{"empty", nil, 0, domain.EINVALID},
		{"declared too large", []byte("x"), domain.MaxImageSize + 1, domain.ETOOLARGE},
		{"not an image", []byte("%PDF-1.4 hello"), 14, domain.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), bytes.NewReader(tt.data), "f", tt.size)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
		})
	}
}

func TestUploadService_StorageFailure(t *testing.T) {
	store := newMemoryStorage()
	store.putErr = errors.New("bucket gone")
	svc := NewUploadService(store, NewImagingProcessor(), testLogger())
	data := pngBytes(t, 10, 10)

	_, err := svc.Upload(context.Background(), bytes.NewReader(data), "a.png", int64(len(data)))
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
