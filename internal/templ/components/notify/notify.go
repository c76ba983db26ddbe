// Package notify renders the toast and modal that report the outcome of a
// form submission.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Kind selects the styling of a notification.
type Kind string

const (
	Success Kind = "success"
	Failure Kind = "error"
	Info    Kind = "info"
)

// Flash is a transient toast message.
type Flash struct {
	Kind        Kind
	Title       string // optional
	Message     string
	AutoDismiss int // seconds, 5 when zero
}

// Modal is the dialog shown after a successful sign-up.
type Modal struct {
	Title       string
	Message     string
	ActionLabel string
	ActionURL   string
}

// ToastContainerID is the element toasts are appended to.
const ToastContainerID = "toast-container"

// Toast renders f as a self-dismissing toast.
func Toast(f Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f.Kind == "" {
			f.Kind = Info
		}
		if f.AutoDismiss <= 0 {
			f.AutoDismiss = 5
		}

		title := ""
		if f.Title != "" {
			title = `<p class="text-sm font-medium text-zinc-900">` + templ.EscapeString(f.Title) + `</p>`
		}
		msgClass := "text-sm text-zinc-600"
		if f.Title != "" {
			msgClass = "mt-1 " + msgClass
		}

		_, err := fmt.Fprintf(w, `<div role="status" data-kind="%s" x-data="{ show: true, init() { setTimeout(() => { this.show = false; setTimeout(() => this.$el.remove(), 300) }, %d000) } }" x-show="show" x-transition class="pointer-events-auto w-full max-w-sm overflow-hidden rounded-lg bg-white shadow-lg ring-1 ring-black/5">`+
			`<div class="flex items-start gap-3 p-4"><div class="shrink-0">%s</div><div class="w-0 flex-1 pt-0.5">%s<p class="%s">%s</p></div>`+
			`<button type="button" @click="show = false" class="shrink-0 rounded-md text-zinc-400 hover:text-zinc-600"><span class="sr-only">Close</span>&times;</button></div></div>`,
			templ.EscapeString(string(f.Kind)), f.AutoDismiss, icon(f.Kind), title, msgClass, templ.EscapeString(f.Message))
		return err
	})
}

// ToastOOB wraps Toast in an htmx out-of-band swap that appends it to the
// toast container.
func ToastOOB(f Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div hx-swap-oob="beforeend:#`+ToastContainerID+`">`); err != nil {
			return err
		}
		if err := Toast(f).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// SuccessModal renders m as an open dialog. Closing it removes it from the
// page.
func SuccessModal(m Modal) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		action := ""
		if m.ActionLabel != "" && m.ActionURL != "" {
			action = fmt.Sprintf(`<a href="%s" class="rounded-md bg-violet-600 px-4 py-2 text-sm font-medium text-white hover:bg-violet-500">%s</a>`,
				templ.EscapeString(string(templ.URL(m.ActionURL))), templ.EscapeString(m.ActionLabel))
		}
		_, err := fmt.Fprintf(w, `<div id="success-modal" role="dialog" aria-modal="true" aria-labelledby="success-modal-title" x-data="{ open: true }" x-show="open" class="fixed inset-0 z-50 flex items-center justify-center bg-black/50 p-4">`+
			`<div class="w-full max-w-md rounded-xl bg-white p-6 text-center shadow-xl">`+
			`<div class="mx-auto mb-4 flex h-12 w-12 items-center justify-center rounded-full bg-green-100">%s</div>`+
			`<h2 id="success-modal-title" class="text-lg font-semibold text-zinc-900">%s</h2>`+
			`<p class="mt-2 text-sm text-zinc-600">%s</p>`+
			`<div class="mt-6 flex justify-center gap-3">%s<button type="button" @click="open = false; $el.closest('#success-modal').remove()" class="rounded-md border border-zinc-300 px-4 py-2 text-sm">Close</button></div>`+
			`</div></div>`,
			icon(Success), templ.EscapeString(m.Title), templ.EscapeString(m.Message), action)
		return err
	})
}

func icon(k Kind) string {
	switch k {
	case Success:
		return `<svg class="h-6 w-6 text-green-600" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor"><path stroke-linecap="round" stroke-linejoin="round" d="M9 12.75L11.25 15 15 9.75M21 12a9 9 0 11-18 0 9 9 0 0118 0z" /></svg>`
	case Failure:
		return `<svg class="h-6 w-6 text-red-600" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor"><path stroke-linecap="round" stroke-linejoin="round" d="M12 9v3.75m9-.75a9 9 0 11-18 0 9 9 0 0118 0zm-9 3.75h.008v.008H12v-.008z" /></svg>`
	default:
		return `<svg class="h-6 w-6 text-sky-600" fill="none" viewBox="0 0 24 24" stroke-width="1.5" stroke="currentColor"><path stroke-linecap="round" stroke-linejoin="round" d="M11.25 11.25l.041-.02a.75.75 0 011.063.852l-.708 2.836a.75.75 0 001.063.853l.041-.021M21 12a9 9 0 11-18 0 9 9 0 0118 0zm-9-3.75h.008v.008H12V8.25z" /></svg>`
	}
}
