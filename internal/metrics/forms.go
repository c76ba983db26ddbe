package metrics

import (
	"github.com/sourzer/sourzer-web/internal/form"
)

// FormObserver exports controller transitions as Prometheus metrics.
type FormObserver struct{}

// OnTransition implements form.Observer.
func (FormObserver) OnTransition(t form.Transition) {
	switch t.To {
	case form.Success:
		FormSubmissionsTotal.WithLabelValues(t.Form, "success").Inc()
		FormSubmissionDuration.WithLabelValues(t.Form).Observe(t.Elapsed.Seconds())
	case form.Error:
		FormSubmissionsTotal.WithLabelValues(t.Form, "error").Inc()
		FormSubmissionDuration.WithLabelValues(t.Form).Observe(t.Elapsed.Seconds())
	case form.Idle:
		if t.From == form.Validating {
			FormSubmissionsTotal.WithLabelValues(t.Form, "invalid").Inc()
		}
	}
}
