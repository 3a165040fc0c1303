package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/bmvault/internal/logger"
)

const (
	DefaultBaseURL    = "http://localhost:5000"
	DefaultCookieName = "bmvault_session"

	maxResponseBytes = 4 << 20
)

type Options struct {
	BaseURL    string
	CookieName string
	Session    SessionStore
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to the bookmark backend. Each call is a single attempt.
type Client struct {
	baseURL    string
	cookieName string
	session    SessionStore
	http       *http.Client
	log        logger.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookieName: opts.CookieName,
		session:    opts.Session,
		http:       opts.HTTPClient,
		log:        opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.cookieName == "" {
		c.cookieName = DefaultCookieName
	}
	if c.session == nil {
		c.session = NewMemorySession()
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

// Session exposes the token store the client reads and writes.
func (c *Client) Session() SessionStore { return c.session }

func (c *Client) BaseURL() string { return c.baseURL }

// errorEnvelope picks the error field out of any response body.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// Do sends body (if non-nil) as JSON to path and decodes the response into
// out (if non-nil). Responses carrying an "error" field or a non-2xx status
// become *Error regardless of which condition triggered.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "failed to encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	c.captureSession(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	msg, parsed := errorMessage(data)
	if msg != "" || !ok {
		kind := KindServer
		if !ok {
			kind = kindForStatus(resp.StatusCode)
		}
		if msg == "" && !parsed {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Kind: kind, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "unreadable response", Err: err}
	}
	return nil
}

// errorMessage returns the "error" text of a JSON body and whether the body
// parsed as JSON at all.
func errorMessage(data []byte) (string, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", false
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", false
	}
	if len(env.Error) == 0 || string(env.Error) == "null" {
		return "", true
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s, true
	}
	return string(env.Error), true
}

func (c *Client) captureSession(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != c.cookieName {
			continue
		}
		if ck.Value == "" || ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			c.session.Clear()
		} else {
			c.session.SetToken(ck.Value)
		}
	}
}
