package substances

import (
	"sort"
	"strings"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Deduplicate removes records whose normalized data fields all match an
// earlier record. The first occurrence wins and relative order is preserved,
// so the operation is idempotent. Equality is full-field (name, other names,
// classifications, reasons, warnings, references, schedule, steroid flag),
// not name-only: the source sometimes lists the same name with different
// data, and those must both survive.
func Deduplicate(records []entities.Substance) []entities.Substance {
	out := make([]entities.Substance, 0, len(records))
	for i := range records {
		dup := false
		for j := range out {
			if records[i].Equal(&out[j]) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, records[i])
		}
	}
	return out
}

// Sort returns a copy ordered case-insensitively by searchable name. The
// sort is stable: records with equal keys keep their original input order,
// and sorting never changes how many times a slug appears.
func Sort(records []entities.Substance) []entities.Substance {
	out := make([]entities.Substance, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].SearchableName) < strings.ToLower(out[j].SearchableName)
	})
	return out
}

// Diff compares two snapshots, matching records by slug. Records only in new
// are added, records only in old are removed, and records in both whose data
// fields differ are changed (with the changed field names recorded for the
// changelog).
func Diff(old, new []entities.Substance) entities.DiffResult {
	oldBySlug := make(map[string]*entities.Substance, len(old))
	for i := range old {
		oldBySlug[old[i].Slug] = &old[i]
	}
	newSlugs := make(map[string]struct{}, len(new))

	var result entities.DiffResult
	for i := range new {
		rec := &new[i]
		newSlugs[rec.Slug] = struct{}{}
		prev, existed := oldBySlug[rec.Slug]
		if !existed {
			result.Added = append(result.Added, *rec)
			continue
		}
		if fields := prev.ChangedFields(rec); len(fields) > 0 {
			result.Changed = append(result.Changed, entities.FieldChange{
				Slug:   rec.Slug,
				Name:   rec.Name,
				Fields: fields,
			})
		}
	}
	for i := range old {
		if _, still := newSlugs[old[i].Slug]; !still {
			result.Removed = append(result.Removed, old[i])
		}
	}
	return result
}
