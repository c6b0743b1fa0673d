// Package hrapi is the client for the remote HR REST API.
//
// Every endpoint answers with the envelope
//
//	{ "success": true,  "data": ... }
//	{ "success": false, "message": "..." }
//
// and expects a bearer JWT. Client holds the shared transport, throttle and
// base URL; Session binds a user's access token to it.
package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxBody caps how much of an upstream response is read.
const maxBody = 4 << 20

// Config configures a Client.
type Config struct {
	BaseURL   string        // e.g. https://hr.example.com
	Timeout   time.Duration // per request
	RateLimit float64       // requests per second across all sessions; <= 0 disables
	Burst     int
	Transport http.RoundTripper // nil means http.DefaultTransport
}

// Client talks to the upstream API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	limiter   *rate.Limiter
	log       *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("hrapi: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("hrapi: base url must be http(s), got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	tr := cfg.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		base:      base,
		timeout:   cfg.Timeout,
		transport: tr,
		limiter:   rate.NewLimiter(limit, burst),
		log:       logger,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Session returns a token-bound view of the client.
func (c *Client) Session(accessToken string) (*Session, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrNoToken
	}
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	return &Session{
		c: c,
		hc: &http.Client{
			Transport: &oauth2.Transport{Base: c.transport, Source: oauth2.StaticTokenSource(tok)},
			Timeout:   c.timeout,
		},
	}, nil
}

// anonymous is used for the login call, which carries no token.
func (c *Client) anonymous() *http.Client {
	return &http.Client{Transport: c.transport, Timeout: c.timeout}
}

// Session is a Client bound to one user's bearer token.
type Session struct {
	c  *Client
	hc *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Get issues a GET and returns the envelope's data.
func (s *Session) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return s.c.do(ctx, s.hc, http.MethodGet, path, query, nil)
}

// Send issues a request with an optional JSON body and returns the envelope's data.
func (s *Session) Send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return s.c.do(ctx, s.hc, method, path, nil, body)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("hrapi: throttle: %w", err)
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("hrapi: encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("hrapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hrapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("hrapi: read %s: %w", path, err)
	}

	c.log.Debug("hrapi request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	var env envelope
	// Error bodies are not always JSON; a failed decode leaves env empty.
	_ = json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusMethodNotAllowed,
		resp.StatusCode == http.StatusNotImplemented:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, &ValidationError{Status: resp.StatusCode, Message: env.Message}
	case resp.StatusCode >= 300:
		return nil, &APIError{Status: resp.StatusCode, Path: path, Message: env.Message}
	}

	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Path: path, Message: env.Message}
	}
	return env.Data, nil
}

// Ping reports whether the upstream host answers HTTP at all. Any response
// below 500 counts as reachable; the body is ignored.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/", nil)
	if err != nil {
		return fmt.Errorf("hrapi: build ping: %w", err)
	}
	resp, err := c.anonymous().Do(req)
	if err != nil {
		return fmt.Errorf("hrapi: ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode >= http.StatusInternalServerError {
		return &APIError{Status: resp.StatusCode, Path: "/"}
	}
	return nil
}
