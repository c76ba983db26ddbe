package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"github.com/sourzer/sourzer-web/internal/service"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
	"github.com/sourzer/sourzer-web/internal/templ/components/pagination"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// Math functions
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"odd": func(i int) bool {
			return i%2 == 1
		},

		// Date/Time functions
		"year": func() int {
			return time.Now().Year()
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"formatDateISO": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"durationMS": func(d time.Duration) int64 {
			return d.Milliseconds()
		},

		// String functions
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"title": func(v any) string {
			return cases.Title(language.English).String(fmt.Sprint(v))
		},
		"truncate": truncate,
		"join":     strings.Join,

		// Tailwind class lists; later classes win over conflicting earlier ones.
		"cn": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},

		// JSON encoding for safe JavaScript embedding
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS(`""`)
			}
			return template.JS(b)
		},

		// Conditional/Logic functions
		"ternary": func(condition bool, trueVal, falseVal any) any {
			if condition {
				return trueVal
			}
			return falseVal
		},
		"default": func(defaultVal, val any) any {
			if val == nil || val == "" || val == 0 {
				return defaultVal
			}
			return val
		},

		// Collection functions
		"list": func(items ...any) []any {
			return items
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},

		// HTML rendering functions. Only sanitized post bodies go through
		// safeBody.
		"safeBody": func(s string) template.HTML {
			return template.HTML(service.SanitizeHTML(s))
		},
		"component": func(c templ.Component) (template.HTML, error) {
			if c == nil {
				return "", nil
			}
			return templ.ToGoHTML(context.Background(), c)
		},
		"toast": func(f *notify.Flash) templ.Component {
			if f == nil {
				return nil
			}
			return notify.Toast(*f)
		},
		"successModal": func(m *notify.Modal) templ.Component {
			if m == nil {
				return nil
			}
			return notify.SuccessModal(*m)
		},
		"pagination": func(d pagination.Data, baseURL, targetID string) templ.Component {
			return pagination.Nav(d, pagination.Config{BaseURL: baseURL, TargetID: targetID, UseHtmx: targetID != "", PushURL: true})
		},

		// Form helpers
		"csrfField": func(token string) template.HTML {
			return template.HTML(fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s">`, template.HTMLEscapeString(token)))
		},
		"inputClass": func(errMsg string) string {
			base := "block w-full rounded-md border border-zinc-300 px-3 py-2 text-sm shadow-sm focus:border-violet-500 focus:outline-none focus:ring-1 focus:ring-violet-500"
			if errMsg == "" {
				return base
			}
			return twmerge.Merge(base, "border-red-500 focus:border-red-500 focus:ring-red-500")
		},
		"runeCount": utf8.RuneCountInString,
	}
}

func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length]) + "..."
}
