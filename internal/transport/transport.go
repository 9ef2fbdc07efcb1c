// Package transport builds the outbound HTTP clients used for catalog
// requests: one retry policy, one timeout, optional browser TLS fingerprint.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Defaults for catalog requests.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultRetryMax     = 2
	DefaultRetryWaitMin = 250 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
)

// Options configures a client. Call sites tune it instead of carrying
// their own retry loops.
type Options struct {
	Timeout      time.Duration // Whole-request timeout including retries
	RetryMax     int           // Retries after the first attempt; negative disables
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Fingerprint  bool         // Present a Chrome TLS fingerprint
	Logger       *slog.Logger // Retry attempts are logged at debug level
}

// NewClient returns an *http.Client that retries connection errors,
// 429 and 5xx responses with exponential backoff. After the last attempt
// the final response is returned as-is so callers can map its status.
func NewClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = DefaultRetryMax
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = DefaultRetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = DefaultRetryWaitMax
	}

	var base http.RoundTripper
	if opts.Fingerprint {
		base = NewChromeTransport(opts.Timeout)
	} else {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: base}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Logger != nil {
		rc.Logger = retryLogger{opts.Logger}
	} else {
		rc.Logger = nil
	}

	client := rc.StandardClient()
	client.Timeout = opts.Timeout
	return client
}

// retryLogger demotes retryablehttp's per-attempt chatter to debug.
type retryLogger struct {
	logger *slog.Logger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.logger.Warn(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.logger.Debug(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.logger.Debug(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn(msg, kv...) }

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint to upstream servers. WooCommerce stores behind Cloudflare
// throttle Go's default ClientHello. HTTPS requests try HTTP/2 first and
// fall back to HTTP/1.1 when the server does not negotiate h2; plain HTTP
// goes straight to HTTP/1.1.
func NewChromeTransport(dialTimeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: dialTimeout}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialContext: dialer.DialContext,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Context().Err() != nil {
		return nil, err
	}
	return t.h1.RoundTrip(req)
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	return tlsConn, nil
}
