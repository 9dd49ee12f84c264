// Package scanstat is a client for the scan statistics service that serves
// exam card layouts and turns recognition results into scan data.
package scanstat

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

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/jackzampolin/cardfix/version"
)

const (
	// RecInfoPath serves the recognition layout (scan document) of an exam.
	RecInfoPath = "/exam/exam/rec_info"

	// GenerateScanDatasPath accepts recognition results and returns scan data.
	GenerateScanDatasPath = "/exam/exam/generate_scan_datas"

	// RequestIDHeader carries a per-request id for correlating service logs.
	RequestIDHeader = "X-Request-Id"
)

// ErrNoData is returned when the rec_info envelope has no body.data member.
var ErrNoData = errors.New("response envelope has no body.data")

// StatusError is returned for responses with a status code >= 400.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s: server error (%d): %s", e.Method, e.URL, e.StatusCode, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	AuthToken  string        // Sent as a bearer token when non-empty
	Timeout    time.Duration // Per-request timeout (default 60s)
	MaxRetries int           // Total attempts for retryable failures (default 3)
	RetryDelay time.Duration // Base backoff delay (default 500ms)
	HTTPClient *http.Client  // Optional; overrides Timeout
	Logger     *slog.Logger
}

// Client talks to the scan statistics service.
type Client struct {
	baseURL    string
	authToken  string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new service client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: httpClient,
		logger:     logger,
	}
}

// RecInfoURL returns the rec_info URL for an exam.
func (c *Client) RecInfoURL(uid string) string {
	return c.baseURL + RecInfoPath + "?uid=" + url.QueryEscape(uid)
}

// recInfoEnvelope is the wrapper the service puts around every rec_info answer.
type recInfoEnvelope struct {
	Body struct {
		Data json.RawMessage `json:"data"`
	} `json:"body"`
}

// RecInfo fetches the scan document of an exam and returns body.data verbatim.
func (c *Client) RecInfo(ctx context.Context, uid string) (json.RawMessage, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.RecInfoURL(uid), nil)
	if err != nil {
		return nil, err
	}

	var env recInfoEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode rec_info response: %w", err)
	}
	data := bytes.TrimSpace(env.Body.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("rec_info uid=%s: %w", uid, ErrNoData)
	}
	return data, nil
}

// GenerateScanDatas posts a recognition payload and returns the JSON response.
func (c *Client) GenerateScanDatas(ctx context.Context, payload any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	body, _, err := c.do(ctx, http.MethodPost, c.baseURL+GenerateScanDatasPath, reqBody)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("generate_scan_datas returned invalid JSON: %.200s", body)
	}
	return body, nil
}

// Download is a fetched file.
type Download struct {
	Data        []byte
	ContentType string
}

// Download fetches an arbitrary URL, typically a scan image on a CDN.
func (c *Client) Download(ctx context.Context, rawURL string) (*Download, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	body, contentType, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return &Download{Data: body, ContentType: contentType}, nil
}

// do performs a request with retries and returns the body and content type.
func (c *Client) do(ctx context.Context, method, target string, reqBody []byte) ([]byte, string, error) {
	type result struct {
		body        []byte
		contentType string
	}

	if _, err := http.NewRequestWithContext(ctx, method, target, nil); err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	res, err := retry.DoWithData(
		func() (result, error) {
			var bodyReader io.Reader
			if reqBody != nil {
				bodyReader = bytes.NewReader(reqBody)
			}
			req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
			if err != nil {
				return result{}, fmt.Errorf("failed to create request: %w", err)
			}
			if reqBody != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			req.Header.Set("User-Agent", version.UserAgent())
			req.Header.Set(RequestIDHeader, uuid.New().String())
			if c.authToken != "" {
				req.Header.Set("Authorization", "Bearer "+c.authToken)
			}

			start := time.Now()
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return result{}, fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return result{}, fmt.Errorf("failed to read response: %w", err)
			}
			c.logger.Debug("service request",
				"method", method,
				"url", target,
				"status", resp.StatusCode,
				"bytes", len(body),
				"request_id", req.Header.Get(RequestIDHeader),
				"duration", time.Since(start),
			)

			if resp.StatusCode >= 400 {
				return result{}, &StatusError{
					Method:     method,
					URL:        target,
					StatusCode: resp.StatusCode,
					Body:       string(body),
				}
			}
			return result{body: body, contentType: resp.Header.Get("Content-Type")}, nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && isRetryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying service request", "method", method, "url", target, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, "", err
	}
	return res.body, res.contentType, nil
}

// isRetryable retries transport failures, 429 and 5xx, but not other 4xx.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
