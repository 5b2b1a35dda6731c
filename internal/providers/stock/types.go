// Package stock integrates the external stock-photo providers and joins their
// search results behind one partial-failure-tolerant aggregator.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Query is the normalized search input shared by all providers. Locale is a
// BCP 47 tag such as "pt-BR"; providers that rank regionally forward it in
// whatever shape their API expects.
type Query struct {
	Term        string
	Orientation string
	Color       string
	Locale      string
	PerPage     int
}

// Result is the provider-agnostic search record. ID is namespaced with the
// provider name so it is globally unique across the merged grid.
type Result struct {
	ID          string `json:"id"`
	AltText     string `json:"alt_text"`
	Attribution string `json:"attribution"`
	ThumbURL    string `json:"thumbnail_url"`
	FullURL     string `json:"full_url"`
	Provider    string `json:"provider"`
}

// Provider is one stock-photo upstream. Configured reports whether the
// credential is present; unconfigured providers are skipped by the
// aggregator without counting as failures.
type Provider interface {
	Name() string
	Configured() bool
	Search(ctx context.Context, q Query) ([]Result, error)
}

// namespaceID prefixes a native id with the provider name.
func namespaceID(provider string, id any) string {
	return fmt.Sprintf("%s-%v", provider, id)
}

// getJSON performs an authenticated GET and decodes the JSON body.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(data) > 0 {
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// baseLanguage reduces "pt-BR" style tags to the lowercase language part.
func baseLanguage(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	return locale
}

func clampPerPage(perPage int) int {
	if perPage <= 0 {
		return 12
	}
	if perPage > 30 {
		return 30
	}
	return perPage
}
