// Package web builds the HTTP client shared by the crawler and the fetch
// workers: one pooled transport sized to the worker count, a fixed
// User-Agent, and a per-request timeout.
package web

import (
	"net"
	"net/http"
	"time"
)

// Options configures the shared client.
type Options struct {
	// UserAgent is set on every request that does not carry one.
	UserAgent string
	// Timeout bounds each individual request, body read included.
	Timeout time.Duration
	// PoolSize is the number of concurrent consumers; the connection
	// pool is sized to match so workers do not fight over sockets.
	PoolSize int
}

// NewClient returns an *http.Client configured per opts.
func NewClient(opts Options) *http.Client {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 8
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          opts.PoolSize * 2,
		MaxIdleConnsPerHost:   opts.PoolSize,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: &agentTransport{base: transport, agent: opts.UserAgent},
		Timeout:   opts.Timeout,
	}
}

// agentTransport stamps the User-Agent header on outgoing requests.
type agentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *agentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}
