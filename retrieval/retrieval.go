// Package retrieval downloads the upstream prohibited substances page and
// extracts the raw substance rows embedded in its Drupal settings JSON.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// drupalSettingsSelector matches the script tag Drupal embeds page
// settings into.
const drupalSettingsSelector = `script[type="application/json"][data-drupal-selector="drupal-settings-json"]`

// settingsKey is the top-level settings entry holding the prohibited list.
const settingsKey = "dodProhibited"

// Compile-time check to ensure PageFetcher implements Fetcher
var _ interfaces.Fetcher = (*PageFetcher)(nil)

// PageFetcher fetches raw substance rows from the source page.
type PageFetcher struct {
	client    *http.Client
	sourceURL string
	userAgent string
}

// NewPageFetcher creates a fetcher for the given source URL. A nil client
// gets a default with a bounded timeout.
func NewPageFetcher(client *http.Client, sourceURL, userAgent string) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &PageFetcher{
		client:    client,
		sourceURL: sourceURL,
		userAgent: userAgent,
	}
}

// FetchRaw downloads the source page and decodes the prohibited list into
// raw rows. Malformed rows are kept as-is: normalization decides what to
// skip, not retrieval.
func (f *PageFetcher) FetchRaw(ctx context.Context) ([]entities.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", f.sourceURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", f.sourceURL, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s: %s", f.sourceURL, response.Status)
	}

	doc, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", f.sourceURL, err)
	}

	settingsText := strings.TrimSpace(doc.Find(drupalSettingsSelector).First().Text())
	if settingsText == "" {
		return nil, fmt.Errorf("drupal settings script tag not found in %s", f.sourceURL)
	}

	rows, err := decodeProhibitedList(settingsText)
	if err != nil {
		return nil, err
	}

	logging.Info("Fetched prohibited substances page",
		"url", f.sourceURL,
		"rows", len(rows),
	)

	return rows, nil
}

// decodeProhibitedList extracts the prohibited list rows from the settings
// JSON text.
func decodeProhibitedList(settingsText string) ([]entities.RawRow, error) {
	var settings map[string]json.RawMessage
	if err := json.Unmarshal([]byte(settingsText), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode drupal settings: %w", err)
	}

	listRaw, ok := settings[settingsKey]
	if !ok {
		return nil, fmt.Errorf("drupal settings missing %q entry", settingsKey)
	}

	var rows []entities.RawRow
	if err := json.Unmarshal(listRaw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %q rows: %w", settingsKey, err)
	}

	return rows, nil
}
