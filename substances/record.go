package substances

import (
	"errors"
	"fmt"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// ErrMissingName is the only hard construction failure: a row without a
// usable name cannot become a substance record.
var ErrMissingName = errors.New("substance name is missing or empty")

// ConstructionError wraps a failure to build a substance record from a raw
// row. Callers skip the offending row and keep going; one bad row must never
// abort a generation run.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct substance record: %v", e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// nameColumns is the fallback chain for the record name; the source has
// renamed this column more than once.
var nameColumns = []string{"Name", "ingredient", "name", "substance", "title"}

// FromRaw builds a canonical substance record from a raw row. All derived
// fields are computed eagerly here and the record is immutable afterwards
// (the enrichment adapter later sets UniiInfo, nothing else). A missing or
// empty name is the only error; every other field degrades to empty or
// absent rather than failing construction.
func FromRaw(row entities.RawRow) (*entities.Substance, error) {
	name := firstScalar(row, nameColumns...)
	if name == "" {
		return nil, &ConstructionError{Err: ErrMissingName}
	}

	classifications := NormalizeListField(columnValue(row, "Classifications", "classifications"))
	reasons := NormalizeReasons(columnValue(row, "Reasons", "reasons"))

	s := &entities.Substance{
		Name:            name,
		OtherNames:      dedupeStrings(NormalizeListField(columnValue(row, "Other_names", "other_names"))),
		Classifications: classifications,
		Reasons:         reasons,
		Warnings:        NormalizeListField(columnValue(row, "Warnings", "warnings")),
		References:      NormalizeListField(columnValue(row, "References", "references")),
		IsSteroid:       ExtractIsSteroid(classifications),
		MoreInfoURL:     firstScalar(row, "More_info_url", "more_info_url"),
		Guid:            firstScalar(row, "Guid", "guid"),
		Added:           NormalizeDate(columnValue(row, "added", "Added")),
		Updated:         NormalizeDate(columnValue(row, "updated", "Updated")),
	}
	s.DeaSchedule = ExtractDEASchedule(s.ReasonTexts(), classifications)
	s.SearchableName = SearchableName(name)

	s.Slug = Slugify(name)
	if s.Slug == "" {
		s.Slug = FallbackSlug(row)
		s.ReviewFlags = append(s.ReviewFlags,
			fmt.Sprintf("name %q produced no slug; using fallback %q", name, s.Slug))
	}

	return s, nil
}

// columnValue returns the first present value among the candidate column
// names, mirroring the source's inconsistent casing.
func columnValue(row entities.RawRow, columns ...string) any {
	for _, col := range columns {
		if v, ok := row[col]; ok && v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func firstScalar(row entities.RawRow, columns ...string) string {
	return scalarString(columnValue(row, columns...))
}

// dedupeStrings removes exact duplicates while preserving first-seen order.
func dedupeStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
