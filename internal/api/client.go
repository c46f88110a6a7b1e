package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenFunc returns the bearer token to attach to the next request, or "".
type TokenFunc func() string

// Options configure a Client.
type Options struct {
	BaseURL   string
	Token     TokenFunc
	Logger    zerolog.Logger
	UserAgent string
}

// Client is the single configured transport to the GuacPlayer backend.
type Client struct {
	baseURL  string
	http     *resty.Client
	transfer *resty.Client
	token    TokenFunc
	log      zerolog.Logger

	mu           sync.RWMutex
	unauthorized []func(*Error)
}

const (
	DefaultBaseURL   = "http://localhost:5000/api"
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "guacplayer/0.1"

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// New builds a Client. Regular calls time out after DefaultTimeout; downloads
// use a second client without a timeout and the same interceptors.
func New(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL: base,
		token:   opts.Token,
		log:     opts.Logger,
	}
	c.http = c.newResty(base, userAgent, DefaultTimeout)
	c.transfer = c.newResty(base, userAgent, 0)
	return c, nil
}

func (c *Client) newResty(base, userAgent string, timeout time.Duration) *resty.Client {
	r := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0).
		SetLogger(restyLogger{c.log})
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	r.OnBeforeRequest(c.authorize)
	r.OnAfterResponse(c.inspect)
	return r
}

// BaseURL returns the normalized API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the token the next request would carry.
func (c *Client) Token() string {
	if c == nil || c.token == nil {
		return ""
	}
	return c.token()
}

// OnUnauthorized registers fn to run whenever any response carries HTTP 401.
// Handlers run synchronously, in registration order, before the error reaches
// the caller.
func (c *Client) OnUnauthorized(fn func(*Error)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = append(c.unauthorized, fn)
}

// Get issues a GET for path (relative to the base URL) and decodes the JSON
// response into dest when dest is non-nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// Post issues a POST with a JSON body and decodes the JSON response into dest
// when dest is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

// Download streams the response body of a GET on rawURL into w. rawURL may be
// absolute or relative to the base URL.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	resp, err := c.transfer.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "*/*").
		Get(rawURL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			_ = resp.RawBody().Close()
		}
		return 0, c.wrap(http.MethodGet, rawURL, err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	// Unparsed responses skip the after-response hooks and leave Body empty.
	var errBody []byte
	if resp.IsError() {
		errBody, _ = io.ReadAll(io.LimitReader(body, maxErrorBody))
	}
	if err := c.check(resp, errBody); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, &Error{Method: http.MethodGet, Path: pathOf(rawURL), Err: fmt.Errorf("read body: %w", err)}
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return c.wrap(method, path, err)
	}
	if dest == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return &Error{Status: resp.StatusCode(), Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// authorize is the request interceptor: bearer token and request id.
func (c *Client) authorize(_ *resty.Client, req *resty.Request) error {
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	req.SetHeader(requestIDHeader, uuid.NewString())
	return nil
}

// inspect is the response interceptor. Successful responses pass through;
// anything >= 400 becomes an *Error, and 401 additionally fires the
// unauthorized handlers.
func (c *Client) inspect(_ *resty.Client, resp *resty.Response) error {
	return c.check(resp, resp.Body())
}

func (c *Client) check(resp *resty.Response, body []byte) error {
	req := resp.Request
	event := c.log.Debug()
	if resp.IsError() {
		event = c.log.Warn()
	}
	event.
		Str("method", req.Method).
		Str("path", pathOf(req.URL)).
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("api response")

	if !resp.IsError() {
		return nil
	}
	apiErr := newStatusError(req.Method, pathOf(req.URL), resp.StatusCode(), body)
	if apiErr.Status == http.StatusUnauthorized {
		c.notifyUnauthorized(apiErr)
	}
	return apiErr
}

func (c *Client) notifyUnauthorized(err *Error) {
	c.mu.RLock()
	handlers := make([]func(*Error), len(c.unauthorized))
	copy(handlers, c.unauthorized)
	c.mu.RUnlock()

	c.log.Info().Str("path", err.Path).Msg("session rejected by backend")
	for _, fn := range handlers {
		fn(err)
	}
}

func (c *Client) wrap(method, path string, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	c.log.Error().Err(err).Str("method", method).Str("path", pathOf(path)).Msg("api request failed")
	return &Error{Method: method, Path: pathOf(path), Err: err}
}

func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("api url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("api url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// pathOf strips scheme, host and query so tokens in URLs never reach logs or
// error messages.
func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.EscapedPath()
}

type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
