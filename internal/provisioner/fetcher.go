package provisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Failure causes surfaced by fetching and applying artifacts.
// Matched by callers with errors.Is.
var (
	// ErrNotFound is returned when the remote host answers 404.
	ErrNotFound = errors.New("remote file not found")
	// ErrNetwork is returned on transport-level failures, timeouts and
	// non-success HTTP statuses other than 404.
	ErrNetwork = errors.New("network failure")
	// ErrPermissionDenied is returned when the destination tree is not writable.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrChecksumMismatch is returned when fetched content does not match
	// the checksum declared for the artifact.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Fetcher retrieves the content behind a URL. It is the only capability the
// provisioner needs from the network, which keeps an in-memory fake usable
// in tests.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher fetches artifacts over HTTP(S). Redirects are followed;
// non-success statuses surface as errors rather than error-page bodies.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a fetcher whose requests are bounded by the
// provided timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the content behind rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", rawURL, err, ErrNetwork)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s, %s: %w", rawURL, response.Status, ErrNotFound)
	case response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%s, %s: %w", rawURL, response.Status, ErrNetwork)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", rawURL, err, ErrNetwork)
	}

	return data, nil
}
