package substances

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// NormalizeListField coerces a raw field value into a canonical list of
// trimmed, non-empty strings. Every representation the source uses (JSON
// array serialized as a string, JSON scalar or object, delimited string,
// native array, absent) produces the same canonical sequence for the same
// logical values. Malformed input degrades to best-effort extraction; this
// function never fails.
func NormalizeListField(raw any) []string {
	rv := ClassifyRaw(raw)
	switch rv.Kind {
	case RawAbsent:
		return nil
	case RawScalar:
		return splitDelimited(rv.Scalar)
	case RawJSONText:
		var decoded any
		if err := json.Unmarshal([]byte(rv.Scalar), &decoded); err != nil {
			// Not actually JSON; fall back to delimiter handling on
			// the original text.
			return splitDelimited(rv.Scalar)
		}
		return listFromDecoded(decoded)
	case RawArray:
		return cleanStrings(rv.Elems)
	}
	return nil
}

// listFromDecoded flattens successfully parsed JSON into the canonical list.
func listFromDecoded(decoded any) []string {
	switch val := decoded.(type) {
	case []any:
		return cleanStrings(val)
	case map[string]any:
		// A flat object flattens to its values, in key order so the
		// result is deterministic.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		elems := make([]any, 0, len(keys))
		for _, k := range keys {
			elems = append(elems, val[k])
		}
		return cleanStrings(elems)
	default:
		if s := scalarString(val); s != "" {
			return []string{s}
		}
		return nil
	}
}

// splitDelimited applies the recognized delimiter set to a plain string:
// semicolons take priority over commas, and a string with neither yields a
// single-element sequence.
func splitDelimited(s string) []string {
	var parts []string
	switch {
	case strings.Contains(s, ";"):
		parts = strings.Split(s, ";")
	case strings.Contains(s, ","):
		parts = strings.Split(s, ",")
	default:
		parts = []string{s}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cleanStrings(elems []any) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s := scalarString(e); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeReasons coerces a raw reasons value into {text, link} pairs. Bare
// strings become link-less reasons; {reason, link} objects keep their link.
func NormalizeReasons(raw any) []entities.Reason {
	rv := ClassifyRaw(raw)
	switch rv.Kind {
	case RawAbsent:
		return nil
	case RawScalar:
		return reasonsFromStrings(splitDelimited(rv.Scalar))
	case RawJSONText:
		var decoded any
		if err := json.Unmarshal([]byte(rv.Scalar), &decoded); err != nil {
			return reasonsFromStrings(splitDelimited(rv.Scalar))
		}
		if arr, ok := decoded.([]any); ok {
			return reasonsFromElems(arr)
		}
		return reasonsFromElems([]any{decoded})
	case RawArray:
		return reasonsFromElems(rv.Elems)
	}
	return nil
}

func reasonsFromStrings(texts []string) []entities.Reason {
	if len(texts) == 0 {
		return nil
	}
	reasons := make([]entities.Reason, 0, len(texts))
	for _, t := range texts {
		reasons = append(reasons, entities.Reason{Text: t})
	}
	return reasons
}

func reasonsFromElems(elems []any) []entities.Reason {
	reasons := make([]entities.Reason, 0, len(elems))
	for _, e := range elems {
		switch val := e.(type) {
		case map[string]any:
			r := entities.Reason{}
			for _, key := range []string{"reason", "text", "title"} {
				if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
					r.Text = strings.TrimSpace(s)
					break
				}
			}
			for _, key := range []string{"link", "url"} {
				if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
					r.Link = strings.TrimSpace(s)
					break
				}
			}
			if r.Text != "" || r.Link != "" {
				reasons = append(reasons, r)
			}
		default:
			if s := scalarString(e); s != "" {
				reasons = append(reasons, entities.Reason{Text: s})
			}
		}
	}
	if len(reasons) == 0 {
		return nil
	}
	return reasons
}

// dateLayouts are tried in order against string-shaped dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizeDate coerces a raw date value into a UTC timestamp. Accepted forms
// are ISO-8601 strings, "Month D, YYYY", epoch seconds (numeric or digit
// string) and the Firestore-style {"_seconds": n} object the source embeds in
// its updated column. Unparseable input yields nil; dates are informational,
// not load-bearing.
func NormalizeDate(raw any) *time.Time {
	switch val := raw.(type) {
	case nil:
		return nil
	case float64:
		return epochTime(int64(val))
	case int:
		return epochTime(int64(val))
	case int64:
		return epochTime(val)
	case map[string]any:
		if secs, ok := val["_seconds"].(float64); ok {
			return epochTime(int64(secs))
		}
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if looksLikeJSON(s) {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				switch inner := decoded.(type) {
				case map[string]any:
					return NormalizeDate(inner)
				case string:
					return NormalizeDate(inner)
				}
			}
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochTime(secs)
		}
		return nil
	default:
		return nil
	}
}

func epochTime(secs int64) *time.Time {
	if secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
