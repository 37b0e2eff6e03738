package substances

import (
	"testing"
	"time"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

func TestNormalizeListFieldEncodingInvariance(t *testing.T) {
	// The same logical values arrive in different encodings depending on the
	// row; all of them must normalize to the same canonical sequence.
	expected := []string{"Ephedra", "Ma Huang"}

	testCases := []struct {
		name string
		raw  any
	}{
		{"JSON string array", `["Ephedra", "Ma Huang"]`},
		{"Native array", []any{"Ephedra", "Ma Huang"}},
		{"Semicolon delimited", "Ephedra; Ma Huang"},
		{"Comma delimited", "Ephedra, Ma Huang"},
		{"Padded elements", `["  Ephedra  ", "Ma Huang", ""]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeListField(tc.raw)
			if len(got) != len(expected) {
				t.Fatalf("Expected %v, got %v", expected, got)
			}
			for i := range expected {
				if got[i] != expected[i] {
					t.Errorf("Element %d: expected %q, got %q", i, expected[i], got[i])
				}
			}
		})
	}
}

func TestNormalizeListFieldEdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		raw      any
		expected []string
	}{
		{"Nil", nil, nil},
		{"Empty string", "", nil},
		{"Whitespace only", "   ", nil},
		{"Single value", "Ephedra", []string{"Ephedra"}},
		// Semicolons take priority, so embedded commas survive
		{"Mixed delimiters", "Ephedra, alkaloids; Ma Huang", []string{"Ephedra, alkaloids", "Ma Huang"}},
		// Malformed JSON degrades to delimiter handling
		{"Broken JSON", `["Ephedra", "Ma`, []string{`["Ephedra"`, `"Ma`}},
		{"JSON scalar", `"Ephedra"`, []string{"Ephedra"}},
		{"JSON number", `42`, []string{"42"}},
		{"Empty JSON array", `[]`, nil},
		{"Numeric elements", []any{float64(1), "two"}, []string{"1", "two"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeListField(tc.raw)
			if len(got) != len(tc.expected) {
				t.Fatalf("Expected %v, got %v", tc.expected, got)
			}
			for i := range tc.expected {
				if got[i] != tc.expected[i] {
					t.Errorf("Element %d: expected %q, got %q", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

func TestNormalizeReasons(t *testing.T) {
	t.Run("Bare strings become link-less reasons", func(t *testing.T) {
		got := NormalizeReasons("DEA Schedule I; Banned stimulant")
		if len(got) != 2 {
			t.Fatalf("Expected 2 reasons, got %d", len(got))
		}
		if got[0].Text != "DEA Schedule I" || got[0].Link != "" {
			t.Errorf("Unexpected first reason: %+v", got[0])
		}
	})

	t.Run("Objects keep their link", func(t *testing.T) {
		raw := `[{"reason": "DEA Schedule I", "link": "https://example.org/dea"}]`
		got := NormalizeReasons(raw)
		if len(got) != 1 {
			t.Fatalf("Expected 1 reason, got %d", len(got))
		}
		if got[0].Text != "DEA Schedule I" {
			t.Errorf("Expected text 'DEA Schedule I', got %q", got[0].Text)
		}
		if got[0].Link != "https://example.org/dea" {
			t.Errorf("Expected link, got %q", got[0].Link)
		}
	})

	t.Run("Native object array", func(t *testing.T) {
		raw := []any{
			map[string]any{"reason": "Banned stimulant"},
			"Schedule IV",
		}
		got := NormalizeReasons(raw)
		if len(got) != 2 {
			t.Fatalf("Expected 2 reasons, got %d", len(got))
		}
		if got[1].Text != "Schedule IV" {
			t.Errorf("Expected 'Schedule IV', got %q", got[1].Text)
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		if got := NormalizeReasons(nil); got != nil {
			t.Errorf("Expected nil for nil input, got %v", got)
		}
	})
}

func TestNormalizeDate(t *testing.T) {
	expectDate := func(t *testing.T, got *time.Time, want time.Time) {
		t.Helper()
		if got == nil {
			t.Fatal("Expected a date, got nil")
		}
		if !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}

	t.Run("ISO date", func(t *testing.T) {
		expectDate(t, NormalizeDate("2023-06-15"), time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	})

	t.Run("Long month form", func(t *testing.T) {
		expectDate(t, NormalizeDate("June 15, 2023"), time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	})

	t.Run("Epoch seconds as number", func(t *testing.T) {
		expectDate(t, NormalizeDate(float64(1686787200)), time.Unix(1686787200, 0).UTC())
	})

	t.Run("Epoch seconds as digit string", func(t *testing.T) {
		expectDate(t, NormalizeDate("1686787200"), time.Unix(1686787200, 0).UTC())
	})

	t.Run("Timestamp object", func(t *testing.T) {
		raw := map[string]any{"_seconds": float64(1686787200)}
		expectDate(t, NormalizeDate(raw), time.Unix(1686787200, 0).UTC())
	})

	t.Run("JSON encoded timestamp object", func(t *testing.T) {
		expectDate(t, NormalizeDate(`{"_seconds": 1686787200}`), time.Unix(1686787200, 0).UTC())
	})

	testCases := []struct {
		name string
		raw  any
	}{
		{"Nil", nil},
		{"Empty string", ""},
		{"Garbage", "not a date"},
		{"Zero epoch", float64(0)},
		{"Negative epoch", float64(-1)},
		{"Object without seconds", map[string]any{"nanos": float64(5)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name+" yields nil", func(t *testing.T) {
			if got := NormalizeDate(tc.raw); got != nil {
				t.Errorf("Expected nil, got %v", got)
			}
		})
	}
}

func TestNormalizeReasonsMatchEntities(t *testing.T) {
	// Both encodings of the same reason must compare equal after
	// normalization, otherwise the differ reports phantom changes.
	a := NormalizeReasons(`[{"reason": "DEA Schedule I"}]`)
	b := NormalizeReasons("DEA Schedule I")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("Expected single reasons, got %v and %v", a, b)
	}
	if a[0] != (entities.Reason{Text: "DEA Schedule I"}) || a[0] != b[0] {
		t.Errorf("Encodings differ after normalization: %+v vs %+v", a[0], b[0])
	}
}

func TestNormalizeBareJSONString(t *testing.T) {
	t.Run("List field unwraps the quoted scalar", func(t *testing.T) {
		got := NormalizeListField(`"Ephedra"`)
		if len(got) != 1 || got[0] != "Ephedra" {
			t.Errorf(`NormalizeListField("\"Ephedra\"") = %v, expected [Ephedra]`, got)
		}
	})

	t.Run("Reasons unwrap the quoted scalar", func(t *testing.T) {
		got := NormalizeReasons(`"Cardiotoxic"`)
		if len(got) != 1 || got[0].Text != "Cardiotoxic" {
			t.Errorf("NormalizeReasons quoted scalar = %v", got)
		}
	})

	t.Run("Quoted date string parses", func(t *testing.T) {
		got := NormalizeDate(`"2023-06-15"`)
		if got == nil {
			t.Fatal("Expected quoted ISO date to parse")
		}
		if got.Year() != 2023 || got.Month() != time.June || got.Day() != 15 {
			t.Errorf("Unexpected date: %v", got)
		}
	})

	t.Run("Unterminated quote falls back to delimiters", func(t *testing.T) {
		got := NormalizeListField(`"Ephedra; Ma Huang`)
		if len(got) != 2 || got[0] != `"Ephedra` || got[1] != "Ma Huang" {
			t.Errorf("Unexpected fallback split: %v", got)
		}
	})
}
