package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nao1215/torserve/internal/tor"
)

var (
	// ErrTransport wraps every failure to obtain an upstream response.
	// It maps to 502 Bad Gateway.
	ErrTransport = errors.New("upstream request failed")

	// ErrInvalidTarget is returned for targets rejected before dialing,
	// such as malformed .onion hosts. It maps to 400 Bad Request.
	ErrInvalidTarget = errors.New("invalid target")
)

// Fetcher performs the passthrough GET. It never retries and caches nothing.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher returns a Fetcher that sends requests with client.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch issues a single GET to rawURL. On success the caller owns the
// response body. Transport failures, including an unparsable or empty URL,
// wrap ErrTransport.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	target, err := url.Parse(rawURL)
	if err == nil && target.Host != "" {
		if err := tor.ValidateHost(target.Host); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("passthrough fetch failed", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}
