// Package entities defines the canonical data structures for the prohibited
// substances list: the normalized substance record, its UNII enrichment data,
// and the diff types consumed by the changelog generator.
package entities

import (
	"encoding/json"
	"time"
)

// RawRow is a single row of the upstream prohibited list exactly as decoded
// from the drupal-settings payload. Values may be strings, JSON-encoded
// strings, native arrays or absent; no column is guaranteed any particular
// shape.
type RawRow map[string]any

// Reason is one reason for prohibition. The source delivers reasons either as
// bare strings or as {reason, link} objects; both normalize to this shape.
type Reason struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// DEASchedule is a controlled-substance classification tier, I (most
// restrictive) through V. The empty value means no schedule was found.
type DEASchedule string

const (
	ScheduleI   DEASchedule = "I"
	ScheduleII  DEASchedule = "II"
	ScheduleIII DEASchedule = "III"
	ScheduleIV  DEASchedule = "IV"
	ScheduleV   DEASchedule = "V"
)

// MarshalJSON renders the empty schedule as null so the export keeps the
// dea_schedule key for every substance.
func (s DEASchedule) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null as the absent schedule.
func (s *DEASchedule) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = DEASchedule(v)
	return nil
}

// Valid reports whether the schedule is one of the five known tiers.
func (s DEASchedule) Valid() bool {
	switch s {
	case ScheduleI, ScheduleII, ScheduleIII, ScheduleIV, ScheduleV:
		return true
	}
	return false
}

// Substance is the canonical, fully normalized substance record. All fields
// are computed once at construction; instances are treated as immutable
// afterwards, except for UniiInfo which the enrichment adapter sets exactly
// once.
type Substance struct {
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	SearchableName  string      `json:"searchable_name"`
	OtherNames      []string    `json:"other_names"`
	Classifications []string    `json:"classifications"`
	Reasons         []Reason    `json:"reasons"`
	Warnings        []string    `json:"warnings"`
	References      []string    `json:"references"`
	DeaSchedule     DEASchedule `json:"dea_schedule"`
	IsSteroid       bool        `json:"is_steroid"`
	MoreInfoURL     string      `json:"more_info_url,omitempty"`
	Guid            string      `json:"guid,omitempty"`
	Added           *time.Time  `json:"added,omitempty"`
	Updated         *time.Time  `json:"updated,omitempty"`
	UniiInfo        *UniiInfo   `json:"unii_info,omitempty"`

	// ReviewFlags carries data-quality warnings attached during
	// construction (e.g. a hash-derived fallback slug). They are surfaced
	// through the quality report, not exported.
	ReviewFlags []string `json:"-"`
}

// ReasonTexts returns the text of every reason, in order.
func (s *Substance) ReasonTexts() []string {
	if len(s.Reasons) == 0 {
		return nil
	}
	texts := make([]string, 0, len(s.Reasons))
	for _, r := range s.Reasons {
		texts = append(texts, r.Text)
	}
	return texts
}

// Equal reports whether two records carry the same normalized data. This is
// the duplicate definition used by collection deduplication: every normalized
// field must match, not just the name.
func (s *Substance) Equal(other *Substance) bool {
	return len(s.ChangedFields(other)) == 0
}

// ChangedFields returns the JSON names of the data fields that differ between
// the two records. Bookkeeping timestamps (added/updated) and enrichment data
// are excluded: they describe when and how we saw the record, not what the
// source says about the substance.
func (s *Substance) ChangedFields(other *Substance) []string {
	var fields []string
	if s.Name != other.Name {
		fields = append(fields, "name")
	}
	if !stringsEqual(s.OtherNames, other.OtherNames) {
		fields = append(fields, "other_names")
	}
	if !stringsEqual(s.Classifications, other.Classifications) {
		fields = append(fields, "classifications")
	}
	if !reasonsEqual(s.Reasons, other.Reasons) {
		fields = append(fields, "reasons")
	}
	if !stringsEqual(s.Warnings, other.Warnings) {
		fields = append(fields, "warnings")
	}
	if !stringsEqual(s.References, other.References) {
		fields = append(fields, "references")
	}
	if s.DeaSchedule != other.DeaSchedule {
		fields = append(fields, "dea_schedule")
	}
	if s.IsSteroid != other.IsSteroid {
		fields = append(fields, "is_steroid")
	}
	if s.MoreInfoURL != other.MoreInfoURL {
		fields = append(fields, "more_info_url")
	}
	if s.Guid != other.Guid {
		fields = append(fields, "guid")
	}
	return fields
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func reasonsEqual(a, b []Reason) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DiffResult describes how a new snapshot differs from the previous one.
// Records are matched across snapshots by slug.
type DiffResult struct {
	Added   []Substance   `json:"added"`
	Removed []Substance   `json:"removed"`
	Changed []FieldChange `json:"changed"`
}

// FieldChange identifies a record present in both snapshots whose data
// differs, along with the names of the fields that changed.
type FieldChange struct {
	Slug   string   `json:"slug"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Empty reports whether the diff carries no changes at all.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
