package integrations

import (
	"errors"
	"net/http"
	"time"
)

const (
	httpTimeout     = 10 * time.Second
	DefaultCacheTTL = 24 * time.Hour // Default HTTP cache duration
)

var (
	// ErrNotFound is returned when a gem or version doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
