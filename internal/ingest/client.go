// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// userAgent identifies this service to upstream APIs that require one
// (Scryfall rejects anonymous clients).
const userAgent = "TCGAtlas/1.0"

// maxErrorBodyBytes limits how much of an error response is kept for logs.
const maxErrorBodyBytes = 512

// client is the shared HTTP fetch helper for all sources. Requests pass
// through a token-bucket limiter so bursts of per-set fetches stay polite.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

// newClient creates a client with the given request timeout and a rate limit
// of rps requests per second (0 disables limiting). headers are added to
// every request on top of the User-Agent.
func newClient(timeout time.Duration, rps float64, headers map[string]string) *client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		headers: headers,
	}
}

// getJSON fetches url and decodes the JSON response body into dst.
func (c *client) getJSON(ctx context.Context, url string, dst interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readBodyForError reads a bounded prefix of an error response body.
func readBodyForError(body io.Reader) []byte {
	b, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return []byte("(unreadable body)")
	}
	return b
}

// sleepCtx pauses for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
