package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/handler"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts attempts per key in fixed windows.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing maxAttempts per window. Its
// cleanup goroutine runs until Stop.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
		stop:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// entry returns the live entry for key, starting a new window when the old
// one has passed. Caller holds mu.
func (rl *RateLimiter) entry(key string) *rateLimitEntry {
	now := rl.now()
	e, ok := rl.entries[key]
	if !ok || now.Sub(e.windowStart) > rl.window {
		e = &rateLimitEntry{windowStart: now}
		rl.entries[key] = e
	}
	return e
}

// Allow spends one attempt for key and reports whether it was within the
// budget.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e := rl.entry(key)
	if e.count >= rl.maxAttempts {
		return false
	}
	e.count++
	return true
}

// Blocked reports whether key has used its budget, without spending an
// attempt.
func (rl *RateLimiter) Blocked(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.entry(key).count >= rl.maxAttempts
}

// RecordFailure spends one attempt for key.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entry(key).count++
}

// Reset clears the budget for key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, key)
}

// TimeUntilReset returns how long until the window for key ends.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok {
		return 0
	}
	if left := rl.window - rl.now().Sub(e.windowStart); left > 0 {
		return left
	}
	return 0
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, e := range rl.entries {
				if now.Sub(e.windowStart) > rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// =============================================================================
// Middleware
// =============================================================================

// limit rejects requests from clients that are over budget. With consume
// set every request spends an attempt; otherwise only RecordFailure does.
func limit(rl *RateLimiter, op string, consume bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			allowed := !rl.Blocked(ip)
			if consume {
				allowed = rl.Allow(ip)
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "op", op)
			err := domain.RateLimit(op)

			retryAfter := int(rl.TimeUntilReset(ip).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			// htmx ignores 4xx bodies, so the form stays put and the
			// toast arrives out of band.
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Reswap", "none")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_ = notify.ToastOOB(notify.Flash{Kind: notify.Failure, Message: domain.ErrorMessage(err)}).Render(r.Context(), w)
				return
			}

			handler.ErrorResponse(w, r, logger, err)
		})
	}
}

// =============================================================================
// Form Rate Limiter
// =============================================================================

// FormRateLimiter rate limits the forms that anonymous visitors can post.
//   - Login: loginAttempts failed logins per 15 minutes (5 when zero).
//     Successful logins cost nothing.
//   - Waitlist: 10 sign-ups per hour.
//   - Lookup: 120 phone country lookups per minute.
type FormRateLimiter struct {
	login    *RateLimiter
	waitlist *RateLimiter
	lookup   *RateLimiter

	LimitLogin    func(http.Handler) http.Handler
	LimitWaitlist func(http.Handler) http.Handler
	LimitLookup   func(http.Handler) http.Handler
}

// NewFormRateLimiter creates rate limiters for the public forms.
func NewFormRateLimiter(loginAttempts int, logger *slog.Logger) *FormRateLimiter {
	if loginAttempts <= 0 {
		loginAttempts = 5
	}
	f := &FormRateLimiter{
		login:    NewRateLimiter(loginAttempts, 15*time.Minute, logger),
		waitlist: NewRateLimiter(10, time.Hour, logger),
		lookup:   NewRateLimiter(120, time.Minute, logger),
	}
	f.LimitLogin = limit(f.login, "AuthHandler.Login", false, logger)
	f.LimitWaitlist = limit(f.waitlist, "WaitlistHandler.Join", true, logger)
	f.LimitLookup = limit(f.lookup, "WaitlistHandler.Country", true, logger)
	return f
}

// RecordFailedLogin spends one login attempt for ip.
func (f *FormRateLimiter) RecordFailedLogin(ip string) {
	f.login.RecordFailure(ip)
}

// ResetLogin clears the login budget for ip after a successful login.
func (f *FormRateLimiter) ResetLogin(ip string) {
	f.login.Reset(ip)
}

// Stop ends the cleanup goroutines of every limiter.
func (f *FormRateLimiter) Stop() {
	f.login.Stop()
	f.waitlist.Stop()
	f.lookup.Stop()
}

// =============================================================================
// Helpers
// =============================================================================

// ClientIP returns the address requests are limited by.
func ClientIP(r *http.Request) string {
	return getClientIP(r)
}

// getClientIP returns the host part of RemoteAddr. Proxy headers are only
// honoured when chi's RealIP middleware has already copied them into
// RemoteAddr, which the server does behind a trusted proxy.
func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
