// Package storage stores uploaded blog cover images.
//
// Two providers implement Storage:
// - LocalStorage: files under a directory, served by the site itself
// - R2Storage: Cloudflare R2 through the S3 API
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage is a flat key/value object store.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists if the key is taken and
	// opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for the object. expires=0 asks for the permanent
	// public URL when the provider has one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // detected from the key when empty
	MaxSize     int64  // 0 means no limit
	Overwrite   bool
	Public      bool // public-read ACL on R2
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./uploads".
	BasePath string

	// BaseURL is the public URL prefix for stored files,
	// e.g. "http://localhost:8080/uploads".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public domain. Without it every URL is
	// presigned.
	PublicURL string

	// Region defaults to "auto".
	Region string

	// Endpoint overrides the account endpoint; used by tests.
	Endpoint string
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// =============================================================================
// Key Generation Helpers
// =============================================================================

// CoverImageKey returns a fresh key for a cover image.
// Format: blog/covers/{uuid}.jpg
//
// Covers are always re-encoded as JPEG, so the original filename only
// contributes a readable stem.
func CoverImageKey(filename string) string {
	stem := slugStem(filename)
	if stem == "" {
		return fmt.Sprintf("blog/covers/%s.jpg", uuid.New())
	}
	return fmt.Sprintf("blog/covers/%s-%s.jpg", uuid.New(), stem)
}

// slugStem reduces "My Photo (1).PNG" to "my-photo-1".
func slugStem(filename string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
