package http

import "time"

// HttpOpts configures a client built by NewClient
type HttpOpts func(*clientConfig)

// WithRequestTimeout bounds a whole exchange, including reading a streamed body
func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) { c.requestTimeout = timeout }
}

func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) { c.dialTimeout = timeout }
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *clientConfig) { c.keepAlive = keepAlive }
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) { c.idleConnTimeout = timeout }
}

// WithResponseHeaderTimeout bounds the wait for the first response byte.
// Model calls answer late, so keep it generous.
func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) { c.responseHeaderTimeout = timeout }
}

// WithTransport adds a round tripper wrapper. Wrappers added later sit
// further from the network.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *clientConfig) { c.transports = append(c.transports, transport) }
}
