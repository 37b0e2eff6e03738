// Package substances turns the heterogeneous raw rows of the upstream
// prohibited list into canonical Substance records. It contains the field
// normalizer, the DEA schedule and steroid extractors, slug and searchable
// name derivation, collection operations (deduplicate, sort, diff) and the
// UNII enrichment adapter.
package substances

import (
	"fmt"
	"strconv"
	"strings"
)

// RawKind identifies the shape a raw field value arrived in.
type RawKind uint8

const (
	// RawAbsent covers nil values and empty / whitespace-only strings.
	RawAbsent RawKind = iota
	// RawScalar is a plain string with no JSON structure.
	RawScalar
	// RawJSONText is a string that looks like a JSON array, object or
	// quoted string and still needs decoding.
	RawJSONText
	// RawArray is a natively decoded sequence.
	RawArray
)

// RawValue is the closed classification of a raw field value. Classifying
// once at ingestion keeps the normalizer a match over a known finite set
// instead of scattered runtime type tests.
type RawValue struct {
	Kind   RawKind
	Scalar string
	Elems  []any
}

// ClassifyRaw sorts a raw field value into one of the four raw kinds.
func ClassifyRaw(v any) RawValue {
	switch val := v.(type) {
	case nil:
		return RawValue{Kind: RawAbsent}
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return RawValue{Kind: RawAbsent}
		}
		if looksLikeJSON(trimmed) {
			return RawValue{Kind: RawJSONText, Scalar: trimmed}
		}
		return RawValue{Kind: RawScalar, Scalar: trimmed}
	case []any:
		return RawValue{Kind: RawArray, Elems: val}
	case []string:
		elems := make([]any, len(val))
		for i, s := range val {
			elems[i] = s
		}
		return RawValue{Kind: RawArray, Elems: elems}
	case map[string]any:
		// An already-decoded object behaves like a one-element array so
		// reason/reference shapes survive.
		return RawValue{Kind: RawArray, Elems: []any{val}}
	default:
		return RawValue{Kind: RawScalar, Scalar: scalarString(v)}
	}
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(len(s) > 1 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`))
}

// scalarString renders a single raw element as a trimmed string. Maps pick
// the first recognized text-bearing key so structured reasons and references
// degrade to readable text instead of Go syntax.
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		for _, key := range []string{"reason", "text", "title", "name", "url", "link"} {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
