package substances

import (
	"errors"
	"strings"
	"testing"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

func TestFromRaw(t *testing.T) {
	row := entities.RawRow{
		"Name":            "Ephedrine",
		"Other_names":     `["Ephedra", "Ma Huang", "Ephedra"]`,
		"Classifications": "Stimulant; Anabolic Steroid",
		"Reasons":         `[{"reason": "DEA Schedule IV", "link": "https://example.org/dea"}]`,
		"Warnings":        []any{"Cardiac risk"},
		"References":      `["https://example.org/ref1"]`,
		"More_info_url":   "https://example.org/ephedrine",
		"Guid":            "abc-123",
		"added":           "2023-06-15",
	}

	sub, err := FromRaw(row)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if sub.Name != "Ephedrine" {
		t.Errorf("Expected name Ephedrine, got %q", sub.Name)
	}
	if sub.Slug != "ephedrine" {
		t.Errorf("Expected slug ephedrine, got %q", sub.Slug)
	}
	if sub.SearchableName != "ephedrine" {
		t.Errorf("Expected searchable name ephedrine, got %q", sub.SearchableName)
	}
	// Exact duplicates collapse, first occurrence order preserved
	if len(sub.OtherNames) != 2 || sub.OtherNames[0] != "Ephedra" || sub.OtherNames[1] != "Ma Huang" {
		t.Errorf("Unexpected other names: %v", sub.OtherNames)
	}
	if len(sub.Classifications) != 2 {
		t.Errorf("Unexpected classifications: %v", sub.Classifications)
	}
	if sub.DeaSchedule != entities.ScheduleIV {
		t.Errorf("Expected Schedule IV, got %q", sub.DeaSchedule)
	}
	if !sub.IsSteroid {
		t.Error("Expected steroid flag from classifications")
	}
	if len(sub.Reasons) != 1 || sub.Reasons[0].Link != "https://example.org/dea" {
		t.Errorf("Unexpected reasons: %v", sub.Reasons)
	}
	if sub.Guid != "abc-123" {
		t.Errorf("Unexpected guid: %q", sub.Guid)
	}
	if sub.Added == nil || sub.Added.Format("2006-01-02") != "2023-06-15" {
		t.Errorf("Unexpected added date: %v", sub.Added)
	}
	if sub.Updated != nil {
		t.Errorf("Expected no updated date, got %v", sub.Updated)
	}
	if len(sub.ReviewFlags) != 0 {
		t.Errorf("Expected no review flags, got %v", sub.ReviewFlags)
	}
}

func TestFromRawMissingName(t *testing.T) {
	testCases := []struct {
		name string
		row  entities.RawRow
	}{
		{"No name column", entities.RawRow{"Guid": "x"}},
		{"Empty name", entities.RawRow{"Name": ""}},
		{"Nil name", entities.RawRow{"Name": nil}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromRaw(tc.row)
			if err == nil {
				t.Fatal("Expected construction error, got nil")
			}
			if !errors.Is(err, ErrMissingName) {
				t.Errorf("Expected ErrMissingName, got %v", err)
			}
			var ce *ConstructionError
			if !errors.As(err, &ce) {
				t.Errorf("Expected ConstructionError, got %T", err)
			}
		})
	}
}

func TestFromRawNameColumnFallback(t *testing.T) {
	// The source has renamed the name column more than once
	testCases := []struct {
		column string
	}{
		{"Name"}, {"ingredient"}, {"name"}, {"substance"}, {"title"},
	}

	for _, tc := range testCases {
		t.Run(tc.column, func(t *testing.T) {
			sub, err := FromRaw(entities.RawRow{tc.column: "Ephedrine"})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if sub.Name != "Ephedrine" {
				t.Errorf("Expected name from column %q, got %q", tc.column, sub.Name)
			}
		})
	}
}

func TestFromRawFallbackSlug(t *testing.T) {
	sub, err := FromRaw(entities.RawRow{"Name": "???", "Guid": "abc-123"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.HasPrefix(sub.Slug, "substance-") {
		t.Errorf("Expected fallback slug, got %q", sub.Slug)
	}
	if len(sub.ReviewFlags) != 1 {
		t.Errorf("Expected one review flag, got %v", sub.ReviewFlags)
	}
}
