package pagination

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Nav renders previous/next links and the page numbers. Nothing is rendered
// for a single page.
func Nav(d Data, cfg Config) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if d.TotalPages <= 1 {
			return nil
		}

		var b strings.Builder
		b.WriteString(`<nav class="mt-8 flex items-center justify-between border-t border-zinc-200 pt-4" aria-label="Pagination">`)

		if d.HasPrevious {
			b.WriteString(link(cfg, d.PrevPage, "Previous", false))
		} else {
			b.WriteString(`<span class="text-sm text-zinc-400">Previous</span>`)
		}

		b.WriteString(`<div class="hidden gap-1 md:flex">`)
		for _, p := range PageRange(d.CurrentPage, d.TotalPages) {
			if p < 0 {
				b.WriteString(`<span class="px-3 py-1 text-sm text-zinc-400">&hellip;</span>`)
				continue
			}
			b.WriteString(link(cfg, p, strconv.Itoa(p), p == d.CurrentPage))
		}
		b.WriteString(`</div>`)

		if d.HasNext {
			b.WriteString(link(cfg, d.NextPage, "Next", false))
		} else {
			b.WriteString(`<span class="text-sm text-zinc-400">Next</span>`)
		}
		b.WriteString(`</nav>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PageURL returns BaseURL with the page query parameter set.
func PageURL(baseURL string, page int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func link(cfg Config, page int, label string, current bool) string {
	href := templ.EscapeString(string(templ.URL(PageURL(cfg.BaseURL, page))))
	class := "rounded-md px-3 py-1 text-sm text-zinc-700 hover:bg-zinc-100"
	aria := ""
	if current {
		class = "rounded-md bg-zinc-900 px-3 py-1 text-sm text-white"
		aria = ` aria-current="page"`
	}

	htmx := ""
	if cfg.UseHtmx && cfg.TargetID != "" {
		htmx = fmt.Sprintf(` hx-get="%s" hx-target="#%s" hx-select="#%s" hx-swap="outerHTML"`,
			href, templ.EscapeString(cfg.TargetID), templ.EscapeString(cfg.TargetID))
		if cfg.PushURL {
			htmx += ` hx-push-url="true"`
		}
	}
	return fmt.Sprintf(`<a href="%s" class="%s"%s%s>%s</a>`, href, class, aria, htmx, templ.EscapeString(label))
}
