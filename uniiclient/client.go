// Package uniiclient downloads the FDA UNII data archive and builds an
// in-memory index of substance records for name lookups.
package uniiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gooosetavo/dod-prohibited/logging"
)

// DefaultArchiveURL is the latest UNII data archive published by the FDA.
const DefaultArchiveURL = "https://precision.fda.gov/uniisearch/archive/latest/UNII_Data.zip"

// archiveFileName is the cached copy name inside the cache directory.
const archiveFileName = "UNII_Data.zip"

// Client downloads and caches the UNII archive.
type Client struct {
	httpClient *http.Client
	archiveURL string
	userAgent  string
	cacheDir   string
	maxAge     time.Duration
}

// NewClient creates a UNII archive client caching under cacheDir. A nil
// httpClient gets a default with a generous timeout since the archive is
// large.
func NewClient(httpClient *http.Client, archiveURL, userAgent, cacheDir string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}
	return &Client{
		httpClient: httpClient,
		archiveURL: archiveURL,
		userAgent:  userAgent,
		cacheDir:   cacheDir,
		maxAge:     7 * 24 * time.Hour,
	}
}

// ArchivePath ensures a fresh archive copy exists in the cache directory and
// returns its path. A cached copy newer than the max age is reused without
// touching the network.
func (c *Client) ArchivePath(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.cacheDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", c.cacheDir, err)
	}

	cachedPath := filepath.Join(c.cacheDir, archiveFileName)
	if info, err := os.Stat(cachedPath); err == nil {
		if info.Size() > 0 && time.Since(info.ModTime()) < c.maxAge {
			logging.Debug("Using cached UNII archive",
				"path", cachedPath,
				"age_hours", time.Since(info.ModTime()).Hours(),
			)
			return cachedPath, nil
		}
	}

	if err := c.download(ctx, cachedPath); err != nil {
		// A stale cached copy beats no data at all
		if info, statErr := os.Stat(cachedPath); statErr == nil && info.Size() > 0 {
			logging.Warn("UNII archive download failed, using stale cache",
				"path", cachedPath,
				"error", err,
			)
			return cachedPath, nil
		}
		return "", err
	}

	return cachedPath, nil
}

// download fetches the archive into destPath via a temp file so a partial
// download never replaces a good cached copy.
func (c *Client) download(ctx context.Context, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.archiveURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", c.archiveURL, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", c.archiveURL, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status downloading %s: %s", c.archiveURL, response.Status)
	}

	tmpFile, err := os.CreateTemp(c.cacheDir, archiveFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.Warn("Failed to remove temp archive file", "path", tmpPath, "error", removeErr)
		}
	}()

	written, err := io.Copy(tmpFile, response.Body)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write archive to %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	logging.Info("Downloaded UNII archive",
		"url", c.archiveURL,
		"path", destPath,
		"bytes", written,
	)

	return nil
}
