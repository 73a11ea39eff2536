// Package finnhub provides a client for the Finnhub stock quote API.
package finnhub

import (
	"os"
	"time"
)

// DefaultBaseURL is used when FINNHUB_BASE_URL is not set.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config holds configuration for the Finnhub API client.
type Config struct {
	APIKey  string        // API key for authentication
	BaseURL string        // Base URL for the API (e.g., "https://finnhub.io/api/v1")
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads Finnhub configuration from environment variables.
// A missing API key is not an error here; every fetch will fail with a
// configuration error until the key is set.
func LoadConfig() Config {
	base := os.Getenv("FINNHUB_BASE_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{
		APIKey:  os.Getenv("FINNHUB_API_KEY"),
		BaseURL: base,
		Timeout: 10 * time.Second,
	}
}
