// Package client talks to the FarmBuddy web backend.
//
// The backend is a session-cookie web app: the active conversation lives in
// the server-side session, and every POST carries the CSRF token the backend
// hands out as a cookie. Client keeps both in a cookie jar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/papercomputeco/farmbuddy/pkg/logger"
)

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"

	// DefaultTimeout bounds a whole request, including a streamed reply.
	DefaultTimeout = 5 * time.Minute
)

// Config holds Client settings.
type Config struct {
	// Target is the backend base URL, e.g. "http://localhost:8000".
	Target string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its Jar is replaced.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a FarmBuddy backend client. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for cfg.Target.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Target, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing target %q: %w", cfg.Target, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("target %q must be an http or https URL", cfg.Target)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	hc.Jar = jar

	hc.Timeout = cfg.Timeout
	if hc.Timeout == 0 {
		hc.Timeout = DefaultTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		base:       base,
		httpClient: hc,
		logger:     log,
	}, nil
}

// Target returns the backend base URL.
func (c *Client) Target() string {
	return c.base.String()
}

func (c *Client) url(path string) string {
	return c.base.String() + path
}

// csrfToken returns the CSRF cookie value, fetching the chat page first when
// the jar does not hold one yet.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if tok := c.cookie(csrfCookie); tok != "" {
		return tok, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/chat/"), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching csrf token: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	tok := c.cookie(csrfCookie)
	if tok == "" {
		c.logger.Debug("backend set no csrf cookie", "status", resp.StatusCode)
	}
	return tok, nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.httpClient.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// post sends a POST with the CSRF header set and returns the raw response.
// Callers own the body.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	tok, err := c.csrfToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set(csrfHeader, tok)
	}
	req.Header.Set("Referer", c.url("/chat/"))

	c.logger.Debug("sending request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", path, err)
	}
	return resp, nil
}

// postJSON marshals in, posts it, and decodes a JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.post(ctx, path, "application/json", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeReply(resp, path, out)
}

// envelope is the {"success": ..., "error": ...} wrapper every JSON endpoint
// replies with.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// decodeReply checks the status and success flag and decodes into out.
func decodeReply(resp *http.Response, path string, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	var env envelope
	jsonErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if jsonErr == nil && env.Error != "" {
			msg = env.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Path: path, Message: msg}
	}

	if jsonErr != nil {
		return fmt.Errorf("decoding %s response: %w", path, jsonErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Path: path, Message: env.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
