package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	testCases := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{"Mid-year week", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), "2026-W35"},
		{"Single-digit week padded", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), "2026-W02"},
		{"ISO year differs at boundary", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := weekKey(tc.time); got != tc.expected {
				t.Errorf("weekKey(%v) = %q, expected %q", tc.time, got, tc.expected)
			}
		})
	}
}

func TestWriteCreatesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 1024*1024)
	defer rl.Close()

	msg := []byte("first entry\n")
	n, err := rl.Write(msg)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("Expected %d bytes written, got %d", len(msg), n)
	}

	expected := filepath.Join(dir, fmt.Sprintf("app-%s.log", weekKey(time.Now())))
	content, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("Expected log file missing: %v", err)
	}
	if string(content) != "first entry\n" {
		t.Errorf("Unexpected file content: %q", content)
	}
}

func TestWriteRotatesOnSizeCap(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 32)
	defer rl.Close()

	entry := []byte(strings.Repeat("x", 20) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rl.Write(entry); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "app-*.log"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) < 2 {
		t.Errorf("Expected size cap to produce numbered siblings, got %v", matches)
	}

	week := weekKey(time.Now())
	rolled := filepath.Join(dir, fmt.Sprintf("app-%s_01.log", week))
	if _, err := os.Stat(rolled); err != nil {
		t.Errorf("Expected rolled file %s: %v", rolled, err)
	}
}

func TestWriteAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	week := weekKey(time.Now())
	existing := filepath.Join(dir, fmt.Sprintf("app-%s.log", week))
	if err := os.WriteFile(existing, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed log file: %v", err)
	}

	rl := NewRotatingLogger(dir, 4, 1024*1024)
	defer rl.Close()

	if _, err := rl.Write([]byte("this run\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if string(content) != "earlier run\nthis run\n" {
		t.Errorf("Expected append, got %q", content)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 2, 1024*1024)
	defer rl.Close()

	oldFile := filepath.Join(dir, "app-2025-W01.log")
	freshFile := filepath.Join(dir, "app-2026-W35.log")
	for _, path := range []string{oldFile, freshFile} {
		if err := os.WriteFile(path, []byte("entry\n"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	if err := os.Chtimes(oldFile, time.Now().AddDate(0, 0, -30), time.Now().AddDate(0, 0, -30)); err != nil {
		t.Fatalf("Failed to age log file: %v", err)
	}

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected old log file to be removed")
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Errorf("Fresh log file should survive cleanup: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rl := NewRotatingLogger(t.TempDir(), 4, 1024*1024)
	if _, err := rl.Write([]byte("entry\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger := SetupLogger(dir, 4, 1024*1024)

	logger.Info("generation run completed", "substance_count", 42)

	expected := filepath.Join(dir, fmt.Sprintf("app-%s.log", weekKey(time.Now())))
	content, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("Expected JSON log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if record["msg"] != "generation run completed" {
		t.Errorf("Unexpected message: %v", record["msg"])
	}
	if record["substance_count"] != float64(42) {
		t.Errorf("Unexpected attribute: %v", record["substance_count"])
	}
}

func TestSetupLoggerFallsBackToConsole(t *testing.T) {
	// A file used as the directory path makes MkdirAll fail
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	logger := SetupLogger(filepath.Join(blocked, "logs"), 4, 1024*1024)
	if logger == nil {
		t.Fatal("Expected console fallback logger")
	}
	logger.Info("still works")
}
