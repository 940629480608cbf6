package artsy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/limiter"
	"github.com/amonks/artsy/request"
	"github.com/amonks/artsy/tokens"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the fixed origin every operation is relative to.
	DefaultBaseURL = "https://node-app-12.uw.r.appspot.com/api/"

	// DefaultTimeout applies to connecting, writing and reading every request.
	DefaultTimeout = 30 * time.Second

	// maxAttempts bounds how many times one call is retried after a 429.
	maxAttempts = 3
)

var (
	// ErrUnauthorized means the server rejected our session tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the server has no such resource.
	ErrNotFound = errors.New("not found")

	// ErrDecode means a response body was missing or malformed.
	ErrDecode = errors.New("malformed response")
)

// Client speaks to the remote catalog service. It attaches the stored session
// tokens to every request, but never writes them: persisting the tokens from
// an AuthResult is the caller's job.
type Client struct {
	base   *url.URL
	tokens *tokens.Store
	http   *http.Client
	lim    *limiter.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
		if transport, ok := c.http.Transport.(*http.Transport); ok {
			transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
			transport.ResponseHeaderTimeout = timeout
		}
	}
}

// WithLimiter paces requests through lim.
func WithLimiter(lim *limiter.Limiter) Option {
	return func(c *Client) { c.lim = lim }
}

// WithCookieJar lets the http client keep whatever cookies the server sets.
// The session tokens are sent explicitly either way.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

// WithHTTPClient replaces the underlying http client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, tokens *tokens.Store, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad base url '%s': %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("bad base url '%s': not absolute", baseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		base:   base,
		tokens: tokens,
		http:   &http.Client{Transport: transport},
		lim:    limiter.New(0, 1),
	}
	WithTimeout(DefaultTimeout)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// cookieHeader builds the Cookie header the backend expects, like
// "artsyToken=a; jwtToken=j;". It returns "" when neither token is stored.
func (c *Client) cookieHeader() string {
	var b strings.Builder
	if token, ok := c.tokens.Get(data.ArtsyToken); ok && strings.TrimSpace(token) != "" {
		fmt.Fprintf(&b, "%s=%s; ", data.ArtsyToken, token)
	}
	if token, ok := c.tokens.Get(data.JWTToken); ok && strings.TrimSpace(token) != "" {
		fmt.Fprintf(&b, "%s=%s;", data.JWTToken, token)
	}
	return strings.TrimSpace(b.String())
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("%s %s: encode error: %w", method, path, err)
		}
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("bad path '%s': %w", path, err)
	}
	ref.RawQuery = query.Encode()
	target := c.base.ResolveReference(ref).String()

	for attempt := 1; ; attempt++ {
		if err := c.lim.Wait(ctx); err != nil {
			return nil, err
		}

		body := io.Reader(http.NoBody)
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if cookie := c.cookieHeader(); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: request error: %w", method, path, err)
		}
		log.Debug().
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Dur("took", time.Since(start)).
			Bool("cookies", req.Header.Get("Cookie") != "").
			Msg("artsy request")

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxAttempts {
			wait, err := c.lim.SetNextAt(resp.Header.Get("Retry-After"))
			drain(resp)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			log.Warn().Str("path", path).Dur("retry_in", wait).Msg("429 from server")
			continue
		}

		if err := request.Error(resp); err != nil {
			drain(resp)
			return nil, fmt.Errorf("%s %s: %w", method, path, apiError(err))
		}
		return resp, nil
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func decode[T any](resp *http.Response, what string) (*T, error) {
	defer drain(resp)

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s decode error: %w: %w", what, ErrDecode, err)
	}
	return &out, nil
}
