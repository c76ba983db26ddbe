package metrics

import "time"

// RemoteCompleted records one logical remote call (all attempts).
func RemoteCompleted(endpoint, outcome string, duration time.Duration) {
	RemoteRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	RemoteRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RemoteRetried records a retry attempt.
func RemoteRetried(endpoint string) {
	RemoteRetriesTotal.WithLabelValues(endpoint).Inc()
}
