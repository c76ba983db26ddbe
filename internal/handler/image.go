package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// =============================================================================
// Template Data Types
// =============================================================================

// CoverImageData contains data for the cover image partial.
type CoverImageData struct {
	URL    string // Value of the image_url input
	Width  int
	Height int
	Error  string
}

// uploadResponse is the JSON body returned to API clients.
type uploadResponse struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// =============================================================================
// POST /admin/uploads - Upload Cover Image
// =============================================================================

// Upload stores a blog cover image. htmx requests get the cover partial,
// whose input fills image_url; other clients get JSON.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+1<<20)

	// Parse multipart form (32MB memory limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Warn("failed to parse multipart form", "error", err)
		h.uploadFailed(w, r, domain.Invalid("AdminHandler.Upload", "Images must be 10MB or smaller."))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.uploadFailed(w, r, domain.Invalid("AdminHandler.Upload", "Choose an image to upload."))
		return
	}
	defer file.Close()

	img, err := h.uploads.Upload(r.Context(), file, header.Filename, header.Size)
	if err != nil {
		h.logger.Error("failed to upload image",
			"error", err,
			"filename", header.Filename,
			"code", domain.ErrorCode(err),
		)
		h.uploadFailed(w, r, err)
		return
	}

	h.logger.Info("cover image uploaded", "key", img.Key, "size", img.Size)

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(uploadResponse{
			URL:    img.URL,
			Key:    img.Key,
			Width:  img.Width,
			Height: img.Height,
			Size:   img.Size,
		})
		return
	}
	h.renderer.RenderPartialWithToast(w, r, "cover_image", CoverImageData{
		URL:    img.URL,
		Width:  img.Width,
		Height: img.Height,
	}, notify.Flash{Kind: notify.Success, Message: "Image uploaded"})
}

func (h *AdminHandler) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if wantsJSON(r) {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	msg := domain.ErrorMessage(err)
	if domain.ErrorCode(err) == domain.EINTERNAL {
		msg = "Failed to upload image. Please try again."
	}
	h.renderer.RenderPartialWithToast(w, r, "cover_image", CoverImageData{
		URL:   r.FormValue(string(BlogImageURL)),
		Error: msg,
	}, notify.Flash{Kind: notify.Failure, Message: msg})
}

func wantsJSON(r *http.Request) bool {
	return !isHTMX(r) && strings.Contains(r.Header.Get("Accept"), "application/json")
}
