// Package apiclient talks to a remote taxdesk backend over HTTP. It injects
// the bearer token and unwraps the {"data": ...} envelope. It also turns
// every failure into an *Error with a domain code.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"taxdesk/pkg/platform/circuit"
	"taxdesk/pkg/platform/httputil"
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

// TokenSource holds the bearer token between requests.
type TokenSource interface {
	Token() string
	SetToken(token string)
}

// MemoryTokens is a TokenSource that lives as long as the process.
type MemoryTokens struct {
	mu    sync.RWMutex
	token string
}

func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryTokens) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Response is a successful call. Data is the envelope's data field, or the
// whole body when the server did not wrap it. It is nil for empty and
// non-JSON bodies.
type Response struct {
	Data    json.RawMessage
	Success bool
	Message string
	Meta    *httputil.Meta
	Status  int
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tokens  TokenSource
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(cl *Client) {
		cl.tokens = ts
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		tokens:  &MemoryTokens{},
		breaker: circuit.New("apiclient"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "apiclient")
	return c, nil
}

func (c *Client) SetToken(token string) { c.tokens.SetToken(token) }

func (c *Client) Token() string { return c.tokens.Token() }

func (c *Client) Get(ctx context.Context, endpoint string) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, endpoint, body)
}

func (c *Client) Delete(ctx context.Context, endpoint string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

// UploadFile posts a multipart form with the file under "file" and fields
// as extra form values.
func (c *Client) UploadFile(ctx context.Context, endpoint, filename string, file io.Reader, fields map[string]string) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return c.send(ctx, http.MethodPost, endpoint, &buf, mw.FormDataContentType())
}

// HealthCheck reports whether GET /health succeeds.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Get(ctx, "/health")
	return err == nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, endpoint, reader, contentType)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*Response, error) {
	if !c.breaker.Allow() {
		return nil, networkError(msgCircuitOpen)
	}

	caller := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller giving up says nothing about the server's health.
		if caller.Err() != nil {
			return nil, networkError(msgCanceled)
		}
		c.recordFailure(method, endpoint)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, timeoutError()
		}
		c.logger.WarnContext(ctx, "request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, networkError(msgNetwork)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if caller.Err() != nil {
			return nil, networkError(msgCanceled)
		}
		c.recordFailure(method, endpoint)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, timeoutError()
		}
		return nil, networkError(msgNetwork)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := statusError(resp.StatusCode, raw)
		if resp.StatusCode >= http.StatusInternalServerError {
			c.recordFailure(method, endpoint)
		} else {
			c.breaker.RecordSuccess()
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.SetToken("")
		}
		return nil, apiErr
	}
	c.breaker.RecordSuccess()
	return parseSuccess(resp, raw), nil
}

func (c *Client) recordFailure(method, endpoint string) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("circuit opened", "method", method, "endpoint", endpoint)
	}
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Meta    *httputil.Meta  `json:"meta"`
}

func parseSuccess(resp *http.Response, raw []byte) *Response {
	out := &Response{Success: true, Status: resp.StatusCode}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" || len(bytes.TrimSpace(raw)) == 0 {
		return out
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		if !json.Valid(raw) {
			return out
		}
		out.Data = raw
		return out
	}
	out.Data = env.Data
	out.Message = env.Message
	out.Meta = env.Meta
	return out
}

// Decode unmarshals the response data into T. Empty data yields the zero value.
func Decode[T any](r *Response) (T, error) {
	var v T
	if r == nil || len(r.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return v, fmt.Errorf("decode response data: %w", err)
	}
	return v, nil
}
