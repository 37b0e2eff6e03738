package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const settingsPage = `<!DOCTYPE html>
<html>
<head><title>DoD Prohibited Dietary Supplement Ingredients</title></head>
<body>
<script type="application/json" data-drupal-selector="drupal-settings-json">
{"path": {"baseUrl": "/"}, "dodProhibited": [
  {"Name": "Ephedrine", "Classifications": "Stimulant", "Guid": "abc-123"},
  {"Name": "Yohimbine", "Other_names": "[\"Yohimbe\"]"}
]}
</script>
</body>
</html>`

func TestFetchRaw(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, settingsPage)
	}))
	defer server.Close()

	fetcher := NewPageFetcher(server.Client(), server.URL, "dod-prohibited-test/1.0")
	rows, err := fetcher.FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}

	if gotUserAgent != "dod-prohibited-test/1.0" {
		t.Errorf("Expected custom User-Agent, got %q", gotUserAgent)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Name"] != "Ephedrine" {
		t.Errorf("Unexpected first row: %v", rows[0])
	}
	// Rows keep their raw shape; normalization happens later
	if rows[1]["Other_names"] != `["Yohimbe"]` {
		t.Errorf("Raw JSON-string field altered: %v", rows[1]["Other_names"])
	}
}

func TestFetchRawErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"Server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"No settings tag", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><p>maintenance</p></body></html>")
		}},
		{"Settings missing list entry", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><script type="application/json" data-drupal-selector="drupal-settings-json">{"path": {}}</script></body></html>`)
		}},
		{"List entry not an array", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><script type="application/json" data-drupal-selector="drupal-settings-json">{"dodProhibited": "nope"}</script></body></html>`)
		}},
		{"Settings not JSON", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><script type="application/json" data-drupal-selector="drupal-settings-json">not json</script></body></html>`)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			fetcher := NewPageFetcher(server.Client(), server.URL, "")
			if _, err := fetcher.FetchRaw(context.Background()); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestFetchRawContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewPageFetcher(server.Client(), server.URL, "")
	if _, err := fetcher.FetchRaw(ctx); err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}

func TestFetchRawIgnoresOtherScriptTags(t *testing.T) {
	page := `<html><body>
<script type="application/json">{"dodProhibited": []}</script>
<script type="application/json" data-drupal-selector="drupal-settings-json">{"dodProhibited": [{"Name": "Ephedrine"}]}</script>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	fetcher := NewPageFetcher(server.Client(), server.URL, "")
	rows, err := fetcher.FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected 1 row from the annotated tag, got %d", len(rows))
	}
}
