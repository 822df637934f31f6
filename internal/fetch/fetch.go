// Package fetch downloads subtitle files over HTTP and decodes them to
// normalized UTF-8 text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"subsync/internal/faults"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 10_000_000
	DefaultUserAgent = "subsync/1.0"
)

var (
	ErrStatus   = errors.New("unexpected HTTP status")
	ErrTooLarge = errors.New("response body too large")
	ErrScheme   = errors.New("unsupported url scheme")
)

// Fetcher downloads subtitle text. The zero value uses the defaults.
type Fetcher struct {
	Client    *http.Client
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// FetchText downloads rawURL and decodes the body. Every failure wraps
// faults.ErrFetch.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	data, err := f.FetchBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := Decode(data)
	if err != nil {
		return "", faults.Wrap(faults.ErrFetch, "fetch", "decode", rawURL, err)
	}
	return text, nil
}

// FetchBytes downloads rawURL and returns the raw body.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	agent := strings.TrimSpace(f.UserAgent)
	if agent == "" {
		agent = DefaultUserAgent
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "validate url", fmt.Sprintf("invalid url %q", rawURL), err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "validate url", rawURL, ErrScheme)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "new request", rawURL, err)
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "request", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "request", rawURL, fmt.Errorf("%w: %s", ErrStatus, resp.Status))
	}
	if resp.ContentLength > maxBytes {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "read body", rawURL,
			fmt.Errorf("%w: content-length %d exceeds %d", ErrTooLarge, resp.ContentLength, maxBytes))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "read body", rawURL, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, faults.Wrap(faults.ErrFetch, "fetch", "read body", rawURL,
			fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes))
	}
	return data, nil
}
