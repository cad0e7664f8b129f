// Package cube delivers encoded event batches to the collector over HTTP(S).
// Delivery is best effort: failures are logged and the batch is dropped.
package cube

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/encoder"
	"github.com/vshulcz/Cubeship/internal/misc"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// DefaultTimeout bounds a whole POST when Endpoint.Timeout is zero.
const DefaultTimeout = 10 * time.Second

const (
	defaultProxyPort = 80
	maxDrainBytes    = 64 << 10
)

// Endpoint describes where and how batches are delivered. It is read once by New.
type Endpoint struct {
	// TLS is used for https collectors only.
	TLS        *tls.Config
	Collector  string
	ProxyHost  string
	AuthHeader string
	Marker     string
	// Key signs payloads in the HashSHA256 header when set.
	Key       string
	ProxyPort int
	// Timeout bounds a POST; zero means DefaultTimeout, negative disables the limit.
	Timeout time.Duration
}

// Client posts batches to a single collector.
type Client struct {
	logger    *zap.Logger
	hc        *http.Client
	target    *url.URL
	newID     func() string
	configErr error
	ep        Endpoint
}

var _ ports.Publisher = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the endpoint. Proxy, TLS and timeout
// settings of the endpoint are then up to hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRequestID overrides the X-Request-ID generator.
func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New builds a client for ep. It never fails: an invalid endpoint is logged once and the
// returned client silently ignores every Post.
func New(ep Endpoint, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		ep:     ep,
		logger: logger.With(zap.String("collector", ep.Collector)),
		newID:  uuid.NewString,
	}

	c.target, c.configErr = validate(ep)
	if c.configErr == nil {
		c.hc, c.configErr = newHTTPClient(ep)
	}
	for _, o := range opts {
		o(c)
	}
	if c.configErr != nil {
		c.logger.Warn("collector client disabled, events will not be sent", zap.Error(c.configErr))
	}
	return c
}

// Enabled reports whether the endpoint configuration was valid.
func (c *Client) Enabled() bool {
	return c.configErr == nil
}

func validate(ep Endpoint) (*url.URL, error) {
	if strings.TrimSpace(ep.Marker) == "" {
		return nil, domain.ErrMissingMarker
	}
	u, err := url.ParseRequestURI(strings.TrimSpace(ep.Collector))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCollector, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidCollector, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrInvalidCollector)
	}
	return u, nil
}

func newHTTPClient(ep Endpoint) (*http.Client, error) {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       ep.TLS,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
	}
	if host := strings.TrimSpace(ep.ProxyHost); host != "" {
		port := ep.ProxyPort
		if port <= 0 {
			port = defaultProxyPort
		}
		if port > 65535 {
			return nil, fmt.Errorf("invalid proxy port %d", port)
		}
		tr.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))})
	}

	timeout := ep.Timeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}

// BasicAuthHeader renders the Authorization value for user and password.
func BasicAuthHeader(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// Post finalizes b and sends it. Empty batches and disabled clients cause no network
// activity. Post never returns an error and never panics: every failure ends in a warning.
func (c *Client) Post(ctx context.Context, b *encoder.Batch) {
	if b.Empty() || !c.Enabled() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("can't post data to collector", zap.Any("panic", r))
		}
	}()

	payload, err := b.Finalize()
	if err != nil {
		c.logger.Warn("can't post data to collector", zap.Error(err))
		return
	}
	if err := c.doPost(ctx, payload); err != nil {
		c.logger.Warn("can't post data to collector",
			zap.Error(err),
			zap.Int("events", b.Len()),
			zap.Int("bytes", len(payload)),
		)
	}
}

func (c *Client) doPost(ctx context.Context, payload []byte) (retErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "*/*")
	if c.ep.AuthHeader != "" {
		req.Header.Set("Authorization", c.ep.AuthHeader)
	}
	if c.ep.Key != "" {
		req.Header.Set(misc.HashHeader, misc.SumSHA256(payload, c.ep.Key))
	}
	reqID := c.newID()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)); err != nil {
		return fmt.Errorf("drain body: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		c.logger.Warn("pushed data but collector replied with non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", reqID),
		)
		return nil
	}
	c.logger.Debug("batch delivered",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(payload)),
		zap.String("request_id", reqID),
	)
	return nil
}
