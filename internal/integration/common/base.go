package common

import (
	"net/http"

	"github.com/futig/docchat/internal/config"
	pkgHTTP "github.com/futig/docchat/pkg/http"
)

// NewHTTPClient builds the HTTP client shared by the model service connectors.
func NewHTTPClient(cfg config.HTTPClientConfig, opts ...pkgHTTP.HttpOpts) *http.Client {
	base := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
	}
	base = append(base, opts...)
	base = append(base, pkgHTTP.WithRequestLogging())

	return pkgHTTP.NewClient(base...)
}
