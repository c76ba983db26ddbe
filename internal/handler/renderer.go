package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// Renderer manages template parsing and rendering with isolated template sets.
// It supports three layouts:
//   - "public" layout for the marketing site and the blog
//   - "auth" layout for the admin login page
//   - "admin" layout for the signed-in admin pages
//
// Templates are organized as:
//   - layouts/public.html, layouts/auth.html, layouts/admin.html - base layouts
//   - components/*.html - reusable components (shared across layouts)
//   - partials/*.html - standalone fragments for htmx responses
//   - pages/public/*.html - public pages (use public layout)
//   - pages/auth/*.html - auth pages (use auth layout)
//   - pages/admin/*.html - admin pages (use admin layout)
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	mu        sync.RWMutex

	fsys fs.FS
	dir  string // set when templates are read from disk
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS holds the templates. When nil, TemplatesDir is read from disk.
	FS fs.FS

	// TemplatesDir is read from disk in development so Watch can reload
	// edits.
	TemplatesDir string

	Logger *slog.Logger
	IsDev  bool
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	fsys := cfg.FS
	var dir string
	if fsys == nil || (cfg.IsDev && cfg.TemplatesDir != "") {
		if cfg.TemplatesDir == "" {
			return nil, fmt.Errorf("renderer: no templates configured")
		}
		dir = cfg.TemplatesDir
		fsys = os.DirFS(dir)
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    cfg.Logger,
		fsys:      fsys,
		dir:       dir,
	}
	if err := r.loadTemplatesFromFS(fsys); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRendererFromFS creates a renderer from an embedded filesystem.
func NewRendererFromFS(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	return NewRenderer(RendererConfig{FS: fsys, Logger: logger})
}

var layouts = []string{"public", "auth", "admin"}

func (r *Renderer) loadTemplatesFromFS(fsys fs.FS) error {
	templates := make(map[string]*template.Template)

	// Get component templates (shared across layouts) - recursively from all subdirs
	var componentFiles []string
	err := fs.WalkDir(fsys, "components", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".html") {
			componentFiles = append(componentFiles, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk components dir: %w", err)
	}

	partialFiles, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob partials: %w", err)
	}

	// Each partial is parsed with the components so it can be rendered on
	// its own for htmx swaps.
	for _, partial := range partialFiles {
		files := append([]string{partial}, componentFiles...)
		partialTmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("failed to parse partial %s: %w", partial, err)
		}
		templates["partial/"+baseName(partial)] = partialTmpl
	}

	for _, layout := range layouts {
		files := append([]string{"layouts/" + layout + ".html"}, componentFiles...)
		files = append(files, partialFiles...)
		base, err := template.New(layout).Funcs(TemplateFuncs()).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("failed to parse %s layout: %w", layout, err)
		}

		pages, err := fs.Glob(fsys, "pages/"+layout+"/*.html")
		if err != nil {
			return fmt.Errorf("failed to glob %s pages: %w", layout, err)
		}
		for _, page := range pages {
			pageTmpl, err := base.Clone()
			if err != nil {
				return fmt.Errorf("failed to clone %s template for %s: %w", layout, page, err)
			}
			pageTmpl, err = pageTmpl.ParseFS(fsys, page)
			if err != nil {
				return fmt.Errorf("failed to parse page %s: %w", page, err)
			}
			// Store as "public/home", "admin/blogs", etc.
			templates[layout+"/"+baseName(page)] = pageTmpl
		}
	}

	r.templates = templates
	r.logger.Debug("templates loaded", "count", len(templates))
	return nil
}

func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// Reload re-parses every template. Watch calls it in development.
func (r *Renderer) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadTemplatesFromFS(r.fsys)
}

// Render renders a page template to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, r.getBaseTemplateName(name), data)
}

// RenderHTML renders a template and returns the HTML as a string.
func (r *Renderer) RenderHTML(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderHTTP renders a page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus renders a page with the given status. The page is
// buffered so a template error still produces a clean 500.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderPartial renders a partial template (for htmx responses).
// The partial file should contain {{define "name"}}...{{end}} where name matches the file name.
func (r *Renderer) RenderPartial(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := r.renderPartial(&buf, name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// RenderPartialWithToast renders a partial followed by an out-of-band
// toast.
func (r *Renderer) RenderPartialWithToast(w http.ResponseWriter, req *http.Request, name string, data any, toast notify.Flash) {
	var buf bytes.Buffer
	if err := r.renderPartial(&buf, name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial not found", http.StatusInternalServerError)
		return
	}
	if err := notify.ToastOOB(toast).Render(req.Context(), &buf); err != nil {
		r.logger.Error("toast render failed", "error", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) renderPartial(w io.Writer, name string, data any) error {
	r.mu.RLock()
	tmpl, ok := r.templates["partial/"+name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("partial %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// getBaseTemplateName determines which base template to execute.
func (r *Renderer) getBaseTemplateName(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return "public"
}

// ListTemplates returns a list of all loaded template names.
// Useful for debugging.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
