// Package di provides dependency injection factories for creating application components.
package di

import (
	"stock_watcher/internal/platform/externalapi/finnhub"
	infrahttp "stock_watcher/internal/platform/http"
)

// NewQuote creates a fully configured FinnhubQuote with HTTP client.
func NewQuote() *finnhub.FinnhubQuote {
	cfg := finnhub.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return finnhub.NewFinnhubQuote(cfg, httpClient)
}
