package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestRenderer_WatchReloadsEditedPage(t *testing.T) {
	dir := t.TempDir()
	for _, layout := range layouts {
		writeTemplate(t, dir, "layouts/"+layout+".html", `{{define "`+layout+`"}}<main>{{block "content" .}}{{end}}</main>{{end}}`)
	}
	writeTemplate(t, dir, "components/empty.html", `{{define "empty"}}{{end}}`)
	writeTemplate(t, dir, "pages/public/home.html", `{{define "content"}}first{{end}}`)

	r, err := NewRenderer(RendererConfig{TemplatesDir: dir, Logger: testLogger(), IsDev: true})
	require.NoError(t, err)

	html, err := r.RenderHTML("public/home", nil)
	require.NoError(t, err)
	assert.Equal(t, "<main>first</main>", html)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)
	writeTemplate(t, dir, "pages/public/home.html", `{{define "content"}}second{{end}}`)

	assert.Eventually(t, func() bool {
		html, err := r.RenderHTML("public/home", nil)
		return err == nil && html == "<main>second</main>"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRenderer_WatchIsNoopForEmbeddedTemplates(t *testing.T) {
	r := newTestRenderer(t)
	assert.NoError(t, r.Watch(context.Background()))
}
