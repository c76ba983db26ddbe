// Package apiclient talks to the remote content API (blogs and categories)
// and the external waitlist endpoint.
//
// Every call returns a domain.SubmissionResult. Transport errors, non-2xx
// responses and undecodable bodies are all reported as OK=false with a
// message that can be shown to the user; nothing in this package panics or
// returns an error for a failed request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/metrics"
)

// Defaults for Config.
const (
	DefaultTimeout        = 15 * time.Second
	DefaultRetryBaseDelay = 200 * time.Millisecond

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL     string // content API root, e.g. https://api.example.com
	WaitlistURL string // absolute URL of the waitlist endpoint

	Timeout time.Duration // per attempt; zero means DefaultTimeout

	// MaxRetries applies to GET requests only. Mutations are sent exactly
	// once so a slow success is never duplicated.
	MaxRetries     int
	RetryBaseDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a JSON client for the remote APIs.
type Client struct {
	baseURL     *url.URL
	waitlistURL string
	httpClient  *http.Client
	maxRetries  uint64
	retryBase   time.Duration
	logger      *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = DefaultRetryBaseDelay
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:     base,
		waitlistURL: cfg.WaitlistURL,
		httpClient:  httpClient,
		maxRetries:  uint64(maxRetries),
		retryBase:   retryBase,
		logger:      logger,
	}, nil
}

// envelope is the response wrapper used by the content API:
// {"success": true, "message": "...", "statusCode": 200, "data": ...}.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

var errRequestFailed = errors.New("apiclient: request failed")

// Do performs one logical request and decodes the envelope's data into T.
// path is resolved against the base URL unless it is already absolute.
// payload, when non-nil, is sent as a JSON body.
func Do[T any](ctx context.Context, c *Client, method, path string, payload any) domain.SubmissionResult[T] {
	target, err := c.resolve(path)
	if err != nil {
		return domain.Failed[T]("Invalid request", 0, err)
	}
	endpoint := endpointLabel(method, target)

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return domain.Failed[T]("Invalid request", 0, fmt.Errorf("apiclient: encode payload: %w", err))
		}
	}

	start := time.Now()
	var res domain.SubmissionResult[T]

	if method != http.MethodGet || c.maxRetries == 0 {
		res = send[T](ctx, c, method, target, body)
	} else {
		b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
		attempt := 0
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			if attempt > 0 {
				metrics.RemoteRetried(endpoint)
			}
			attempt++
			res = send[T](ctx, c, method, target, body)
			if res.OK {
				return nil
			}
			if retryable(res.StatusCode) {
				return retry.RetryableError(errRequestFailed)
			}
			return errRequestFailed
		})
		if attempt == 0 && err != nil {
			res = domain.Failed[T]("The request was cancelled.", 0, err)
		}
	}

	outcome := "ok"
	if !res.OK {
		outcome = "error"
		c.logger.Warn("remote request failed",
			"endpoint", endpoint,
			"status_code", res.StatusCode,
			"message", res.ErrorMessage,
			"error", res.Err,
		)
	}
	metrics.RemoteCompleted(endpoint, outcome, time.Since(start))
	return res
}

func send[T any](ctx context.Context, c *Client, method, target string, body []byte) domain.SubmissionResult[T] {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return domain.Failed[T]("Invalid request", 0, fmt.Errorf("apiclient: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		msg := "Unable to reach the server. Please try again."
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "The server took too long to respond. Please try again."
		}
		return domain.Failed[T](msg, 0, fmt.Errorf("apiclient: %s %s: %w", method, target, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Failed[T]("Unable to read the server response.", resp.StatusCode, fmt.Errorf("apiclient: read body: %w", err))
	}

	var env envelope
	hasEnvelope := len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Failed[T](failureMessage(resp, env, hasEnvelope), resp.StatusCode,
			fmt.Errorf("apiclient: %s %s: unexpected status %d", method, target, resp.StatusCode))
	}
	if hasEnvelope && env.Success != nil && !*env.Success {
		return domain.Failed[T](failureMessage(resp, env, hasEnvelope), resp.StatusCode,
			fmt.Errorf("apiclient: %s %s: success=false", method, target))
	}

	var payload T
	data := raw
	if hasEnvelope && len(env.Data) > 0 {
		data = env.Data
	}
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := json.Unmarshal(data, &payload); err != nil {
			return domain.Failed[T]("The server sent an unexpected response.", resp.StatusCode,
				fmt.Errorf("apiclient: decode %s %s: %w", method, target, err))
		}
	}
	return domain.Succeeded(payload, resp.StatusCode)
}

func failureMessage(resp *http.Response, env envelope, hasEnvelope bool) string {
	if hasEnvelope && env.Message != "" {
		return env.Message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "Request failed"
}

// retryable reports whether a failed GET is worth another attempt.
func retryable(status int) bool {
	return status == 0 ||
		status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func (c *Client) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if _, err := url.ParseRequestURI(path); err != nil {
			return "", fmt.Errorf("apiclient: invalid url %q: %w", path, err)
		}
		return path, nil
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("apiclient: invalid path %q: %w", path, err)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// endpointLabel turns "GET https://host/api/blogs/my-post?page=1" into
// "GET /blogs/{id}" for metrics.
func endpointLabel(method, target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return method
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for len(parts) > 1 && parts[0] != "blogs" && parts[0] != "blog-categories" {
		parts = parts[1:]
	}
	if len(parts) > 1 {
		parts = []string{parts[0], "{id}"}
	}
	return method + " /" + strings.Join(parts, "/")
}
