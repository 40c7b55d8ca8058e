// Package http builds the outbound HTTP clients of the model service connectors.
package http

import (
	"net"
	"net/http"
	"time"
)

// TransportFunc wraps a round tripper
type TransportFunc func(http.RoundTripper) http.RoundTripper

type clientConfig struct {
	requestTimeout        time.Duration
	dialTimeout           time.Duration
	keepAlive             time.Duration
	idleConnTimeout       time.Duration
	responseHeaderTimeout time.Duration
	transports            []TransportFunc
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		requestTimeout:        5 * time.Minute,
		dialTimeout:           10 * time.Second,
		keepAlive:             30 * time.Second,
		idleConnTimeout:       90 * time.Second,
		responseHeaderTimeout: 2 * time.Minute,
	}
}

// NewClient builds an *http.Client with pooled transport, timeouts and the given transport chain.
// Proxy settings come from the environment.
func NewClient(opts ...HttpOpts) *http.Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.dialTimeout,
		KeepAlive: cfg.keepAlive,
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = dialer.DialContext
	base.IdleConnTimeout = cfg.idleConnTimeout
	base.ResponseHeaderTimeout = cfg.responseHeaderTimeout

	var transport http.RoundTripper = base
	for _, wrap := range cfg.transports {
		transport = wrap(transport)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: transport,
	}
}
