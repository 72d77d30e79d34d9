package ocrclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// ErrExtractionFailed wraps every transport or status failure of the OCR
// service.
var ErrExtractionFailed = errors.New("ocr extraction failed")

type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets how many extra attempts follow a transport error or 5xx.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDial replaces the dialer; tests point it at an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 15 * time.Second,
		retryMax:       2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extractResponse struct {
	Status    string   `json:"status"`
	White     []string `json:"white"`
	Black     []string `json:"black"`
	StartMove int      `json:"start_move"`
	RawText   string   `json:"raw_text"`
	Reason    string   `json:"reason"`
}

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Extract sends one page image and classifies the reply. A reply that
// cannot be decoded as columns comes back Malformed with its body as raw
// text, not as an error.
func (c *Client) Extract(ctx context.Context, page scoresheetdto.PageImage) (scoresheetdto.RawMoveTokens, error) {
	if len(page.Data) == 0 {
		return scoresheetdto.EmptyTokens(), nil
	}
	contentType := strings.TrimSpace(page.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body, err := c.do(ctx, fasthttp.MethodPost, "/v1/extract", contentType, page.Data)
	if err != nil {
		return scoresheetdto.RawMoveTokens{}, err
	}

	var resp extractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("ocr response not decodable", zap.Error(err), zap.Int("bytes", len(body)))
		return scoresheetdto.MalformedTokens(string(body), "undecodable response"), nil
	}
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "empty":
		t := scoresheetdto.EmptyTokens()
		t.RawText = resp.RawText
		return t, nil
	case "unreadable", "malformed":
		return scoresheetdto.MalformedTokens(resp.RawText, resp.Reason), nil
	}
	tokens := scoresheetdto.WellFormedTokens(resp.White, resp.Black, resp.RawText)
	tokens.StartMoveNumber = resp.StartMove
	return tokens, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/healthz", "", nil)
	if err != nil {
		return nil, err
	}
	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if payload != nil {
		req.SetBody(payload)
	}

	attempts := c.retryMax + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return append([]byte(nil), resp.Body()...), nil
			}
			err = fmt.Errorf("ocr api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
			}
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		c.logger.Debug("ocr request retry", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration doubles from 100ms and caps at 3.2s.
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
