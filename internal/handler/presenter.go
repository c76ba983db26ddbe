package handler

import (
	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// presenter collects the outcome of one submission as a toast, or as the
// success modal when one is configured.
type presenter[R any] struct {
	successMessage string
	failureTitle   string
	failureMessage string // replaces the server's message when set
	successModal   *notify.Modal

	flash *notify.Flash
	modal *notify.Modal
}

func toastPresenter[R any](successMessage, failureTitle string) *presenter[R] {
	return &presenter[R]{successMessage: successMessage, failureTitle: failureTitle}
}

func modalPresenter[R any](m notify.Modal) *presenter[R] {
	return &presenter[R]{successModal: &m}
}

// Success implements form.Presenter.
func (p *presenter[R]) Success(R) {
	if p.successModal != nil {
		m := *p.successModal
		p.modal = &m
		return
	}
	p.flash = &notify.Flash{Kind: notify.Success, Message: p.successMessage}
}

// Failure implements form.Presenter.
func (p *presenter[R]) Failure(message string) {
	if p.failureMessage != "" {
		message = p.failureMessage
	}
	p.flash = &notify.Flash{Kind: notify.Failure, Title: p.failureTitle, Message: message}
}

var _ form.Presenter[struct{}] = (*presenter[struct{}])(nil)
