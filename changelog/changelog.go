// Package changelog maintains the markdown changelog of the prohibited
// substances list. Changes detected by diffing two generations are merged
// into the existing file, newest date first, with duplicate suppression per
// date, change type and substance name.
package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// ChangeType classifies a changelog entry.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeUpdated ChangeType = "updated"
	ChangeRemoved ChangeType = "removed"
)

// Change is one substance-level change attributed to a date.
type Change struct {
	Name       string
	Type       ChangeType
	Fields     []string // changed field names, only set for updates
	SourceDate string   // self-reported date for additions, YYYY-MM-DD
}

// header written when the changelog file does not exist yet.
const fileHeader = "# Changelog\n\n" +
	"All notable changes to the DoD prohibited substances list will be documented in this file.\n"

// FromDiff converts a diff between two generations into dated changes.
// Additions carry their self-reported added date when the source provides
// one; updates and removals are stamped with the detection date.
func FromDiff(diff *entities.DiffResult, detectionDate string) []Change {
	if diff == nil || diff.Empty() {
		return nil
	}

	changes := make([]Change, 0, len(diff.Added)+len(diff.Changed)+len(diff.Removed))

	for i := range diff.Added {
		sub := &diff.Added[i]
		change := Change{Name: sub.Name, Type: ChangeAdded, SourceDate: detectionDate}
		if sub.Added != nil {
			change.SourceDate = sub.Added.Format("2006-01-02")
		}
		changes = append(changes, change)
	}

	for _, fc := range diff.Changed {
		changes = append(changes, Change{
			Name:       fc.Name,
			Type:       ChangeUpdated,
			Fields:     fc.Fields,
			SourceDate: detectionDate,
		})
	}

	for i := range diff.Removed {
		changes = append(changes, Change{
			Name:       diff.Removed[i].Name,
			Type:       ChangeRemoved,
			SourceDate: detectionDate,
		})
	}

	return changes
}

// Update merges the detected changes into the changelog file at path,
// creating it when missing. Changes already recorded under the same date
// and type are skipped.
func Update(path string, changes []Change) error {
	existing, err := readOrCreate(path)
	if err != nil {
		return err
	}

	header, blocks, dateOrder := splitByDate(existing)
	recorded := parseRecorded(blocks)

	// Group fresh changes by date, dropping already-recorded entries
	fresh := make(map[string][]Change)
	skipped := 0
	for _, change := range changes {
		date := change.SourceDate
		if date == "" {
			continue
		}
		if recorded.has(date, change.Type, change.Name) {
			skipped++
			continue
		}
		fresh[date] = append(fresh[date], change)
	}

	if len(fresh) == 0 {
		if skipped > 0 {
			logging.Info("No new changelog entries needed", "already_recorded", skipped)
		}
		return nil
	}

	// Union of dates, rendered newest first
	dateSet := make(map[string]bool, len(dateOrder)+len(fresh))
	for _, d := range dateOrder {
		dateSet[d] = true
	}
	for d := range fresh {
		dateSet[d] = true
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var out strings.Builder
	out.WriteString(header)
	for _, date := range dates {
		out.WriteString("## " + date + "\n\n")
		if newChanges, ok := fresh[date]; ok {
			merged := append(recorded.asChanges(date), newChanges...)
			out.WriteString(renderDate(merged))
		} else {
			out.WriteString(strings.TrimRight(blocks[date], "\n") + "\n\n")
		}
	}

	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, err)
	}

	total := 0
	for _, c := range fresh {
		total += len(c)
	}
	logging.Info("Updated changelog",
		"path", path,
		"new_changes", total,
		"dates", len(fresh),
		"already_recorded", skipped,
	)

	return nil
}

// readOrCreate loads the changelog, writing the standard header first when
// the file does not exist.
func readOrCreate(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err == nil {
		return string(content), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read changelog %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create changelog directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(fileHeader), 0o644); err != nil {
		return "", fmt.Errorf("failed to create changelog %s: %w", path, err)
	}
	logging.Info("Created new changelog file", "path", path)
	return fileHeader, nil
}

// splitByDate splits the changelog into the header text before the first
// date and one raw block per "## YYYY-MM-DD" section, preserving order.
func splitByDate(content string) (header string, blocks map[string]string, order []string) {
	blocks = make(map[string]string)

	lines := strings.Split(content, "\n")
	var headerLines []string
	var current string
	var currentLines []string

	flush := func() {
		if current != "" {
			blocks[current] = strings.Join(currentLines, "\n")
			order = append(order, current)
		}
		currentLines = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") && !strings.HasPrefix(trimmed, "###") {
			flush()
			current = strings.TrimSpace(trimmed[3:])
			continue
		}
		if current == "" {
			headerLines = append(headerLines, line)
		} else {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	header = strings.TrimRight(strings.Join(headerLines, "\n"), "\n") + "\n\n"
	return header, blocks, order
}

// recordedSet indexes already-recorded substance names per date and type.
type recordedSet map[string]map[ChangeType]map[string]bool

func (r recordedSet) has(date string, t ChangeType, name string) bool {
	return r[date] != nil && r[date][t][name]
}

func (r recordedSet) add(date string, t ChangeType, name string) {
	if r[date] == nil {
		r[date] = map[ChangeType]map[string]bool{
			ChangeAdded:   {},
			ChangeUpdated: {},
			ChangeRemoved: {},
		}
	}
	r[date][t][name] = true
}

// asChanges rebuilds plain changes for the already-recorded names of a
// date, in deterministic name order.
func (r recordedSet) asChanges(date string) []Change {
	byType := r[date]
	if byType == nil {
		return nil
	}
	var out []Change
	for _, t := range []ChangeType{ChangeAdded, ChangeUpdated, ChangeRemoved} {
		names := make([]string, 0, len(byType[t]))
		for name := range byType[t] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, Change{Name: name, Type: t, SourceDate: date})
		}
	}
	return out
}

// parseRecorded extracts substance names from the raw section blocks. Names
// are the bold part of bullet lines under the three known section headings.
func parseRecorded(blocks map[string]string) recordedSet {
	recorded := make(recordedSet)

	for date, block := range blocks {
		var section ChangeType
		haveSection := false

		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)

			if strings.HasPrefix(trimmed, "### ") {
				switch {
				case strings.Contains(trimmed, "New Substances Added"):
					section, haveSection = ChangeAdded, true
				case strings.Contains(trimmed, "Substances Modified"):
					section, haveSection = ChangeUpdated, true
				case strings.Contains(trimmed, "Substances Removed"):
					section, haveSection = ChangeRemoved, true
				default:
					haveSection = false
				}
				continue
			}

			if !haveSection || !strings.HasPrefix(trimmed, "- **") {
				continue
			}

			rest := trimmed[len("- **"):]
			end := strings.Index(rest, "**")
			if end <= 0 {
				continue
			}
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[:end]), ":"))
			if name != "" {
				recorded.add(date, section, name)
			}
		}
	}

	return recorded
}

// renderDate renders the three sections for one date. Empty sections are
// omitted.
func renderDate(changes []Change) string {
	var added, updated, removed []Change
	for _, c := range changes {
		switch c.Type {
		case ChangeAdded:
			added = append(added, c)
		case ChangeUpdated:
			updated = append(updated, c)
		case ChangeRemoved:
			removed = append(removed, c)
		}
	}

	var out strings.Builder

	if len(added) > 0 {
		out.WriteString("### New Substances Added\n\n")
		out.WriteString(fmt.Sprintf("*%d new %s*\n\n", len(added), pluralize(len(added))))
		for _, c := range added {
			out.WriteString("- **" + c.Name + "**\n")
		}
		out.WriteString("\n")
	}

	if len(updated) > 0 {
		out.WriteString("### Substances Modified\n\n")
		out.WriteString(fmt.Sprintf("*%d %s modified, detected through data comparison*\n\n",
			len(updated), pluralize(len(updated))))
		for _, c := range updated {
			if len(c.Fields) > 0 {
				fields := make([]string, len(c.Fields))
				for i, f := range c.Fields {
					fields[i] = "`" + f + "`"
				}
				out.WriteString(fmt.Sprintf("- **%s:** Updated %s\n", c.Name, strings.Join(fields, ", ")))
			} else {
				out.WriteString(fmt.Sprintf("- **%s:** Updated\n", c.Name))
			}
		}
		out.WriteString("\n")
	}

	if len(removed) > 0 {
		out.WriteString("### Substances Removed\n\n")
		out.WriteString(fmt.Sprintf("*%d %s removed, detected through data comparison*\n\n",
			len(removed), pluralize(len(removed))))
		for _, c := range removed {
			out.WriteString("- **" + c.Name + "**\n")
		}
		out.WriteString("\n")
	}

	return out.String()
}

func pluralize(n int) string {
	if n == 1 {
		return "substance"
	}
	return "substances"
}
