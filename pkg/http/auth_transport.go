package http

import (
	"context"
	"fmt"
	"net/http"
)

// TokenSource supplies bearer tokens, refreshing them as needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

type authTransport struct {
	source    TokenSource
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("acquire bearer token: %w", err)
	}

	reqCopy := req.Clone(req.Context())

	if token != "" {
		reqCopy.Header.Set("Authorization", "Bearer "+token)
	}

	return t.transport.RoundTrip(reqCopy)
}

// WithBearerToken sets the Authorization header of every request from source.
func WithBearerToken(source TokenSource) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			source:    source,
			transport: rt,
		}
	})
}
