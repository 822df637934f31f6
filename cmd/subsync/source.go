package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"subsync/internal/config"
	"subsync/internal/fetch"
)

func newFetcher(cfg *config.Config) *fetch.Fetcher {
	return &fetch.Fetcher{
		Timeout:   cfg.FetchTimeout(),
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
	}
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// readSource returns the decoded subtitle text of a file path or URL. A
// source of "-" reads stdin.
func readSource(ctx context.Context, cfg *config.Config, source string, stdin io.Reader) (string, error) {
	source = strings.TrimSpace(source)
	if isURL(source) {
		return newFetcher(cfg).FetchText(ctx, source)
	}

	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		var path string
		path, err = config.ExpandPath(source)
		if err != nil {
			return "", err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read subtitles: %w", err)
	}
	text, err := fetch.Decode(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", source, err)
	}
	return text, nil
}
