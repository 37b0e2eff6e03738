// Package docsite generates the static markdown documentation site for the
// prohibited substances list: one page per substance, a sortable table, an
// index with summary statistics and a machine-readable data.json export.
package docsite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Generator writes the documentation tree under a docs directory.
type Generator struct {
	docsDir string
}

// NewGenerator creates a generator writing under docsDir.
func NewGenerator(docsDir string) *Generator {
	return &Generator{docsDir: docsDir}
}

// Generate writes the full documentation tree for the given collection.
// The substances are expected to be in display order already.
func (g *Generator) Generate(substances []entities.Substance, generatedAt time.Time) error {
	substancesDir := filepath.Join(g.docsDir, "substances")
	if err := os.MkdirAll(substancesDir, 0o750); err != nil {
		return fmt.Errorf("failed to create docs directory %s: %w", substancesDir, err)
	}

	if err := g.writePages(substances, substancesDir); err != nil {
		return err
	}
	if err := g.writeTable(substances, substancesDir); err != nil {
		return err
	}
	if err := g.writeIndex(substances, substancesDir, generatedAt); err != nil {
		return err
	}
	if err := g.writeData(substances, generatedAt); err != nil {
		return err
	}

	logging.Info("Generated documentation site",
		"dir", g.docsDir,
		"substances", len(substances),
	)

	return nil
}

// pageTemplate renders one substance page. Navigation links use sibling
// slugs so the site works as plain files.
var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`# {{.Name}}

---

{{.TopNav}}

---

{{if .OtherNames}}**Other names:**

{{range .OtherNames}}- {{.}}
{{end}}
{{end}}{{if .Classifications}}**Classifications:**

{{range .Classifications}}- {{.}}
{{end}}
{{end}}{{if .Reasons}}**Reasons for prohibition:**

{{range .Reasons}}- {{.}}
{{end}}
{{end}}{{if .Warnings}}**Warnings:**

{{range .Warnings}}- {{.}}
{{end}}
{{end}}{{if .References}}**References:**

{{range .References}}- {{.}}
{{end}}
{{end}}{{if .DeaSchedule}}**DEA Schedule:** {{.DeaSchedule}}

{{end}}**Anabolic steroid:** {{if .IsSteroid}}Yes{{else}}No{{end}}

**More info:** {{.MoreInfo}}

**Searchable name:** {{.SearchableName}}

{{if .Guid}}**GUID:** {{.Guid}}

{{end}}{{if .Added}}**Added to this database:** {{.Added}}

{{end}}{{if .Updated}}**Last updated:** {{.Updated}}

{{end}}{{if .Unii}}## UNII (Unique Ingredient Identifier) Information

**UNII ID:** {{.Unii.UniiCode}}

{{if .Unii.PreferredTerm}}**Preferred Term:** {{.Unii.PreferredTerm}}

{{end}}{{if .Unii.CasRN}}**CAS Registry Number:** {{.Unii.CasRN}}

{{end}}{{if .Unii.SubstanceType}}**Substance Type:** {{.Unii.SubstanceType}}

{{end}}**External Resources:**

{{range .UniiLinks}}- {{.}}
{{end}}
{{end}}---

[Complete Table](table.md) | [All Substances](index.md)

*Substance {{.Index}} of {{.Total}}*
`))

type pageData struct {
	Name            string
	TopNav          string
	OtherNames      []string
	Classifications []string
	Reasons         []string
	Warnings        []string
	References      []string
	DeaSchedule     string
	IsSteroid       bool
	MoreInfo        string
	SearchableName  string
	Guid            string
	Added           string
	Updated         string
	Unii            *entities.UniiInfo
	UniiLinks       []string
	Index           int
	Total           int
}

func (g *Generator) writePages(substances []entities.Substance, dir string) error {
	for i := range substances {
		sub := &substances[i]

		var nav []string
		if i > 0 {
			prev := &substances[i-1]
			nav = append(nav, fmt.Sprintf("← [Previous: %s](%s.md)", prev.Name, prev.Slug))
		}
		nav = append(nav, "[All Substances](index.md)", "[Complete Table](table.md)")
		if i < len(substances)-1 {
			next := &substances[i+1]
			nav = append(nav, fmt.Sprintf("[Next: %s](%s.md) →", next.Name, next.Slug))
		}

		data := pageData{
			Name:            sub.Name,
			TopNav:          strings.Join(nav, " | "),
			OtherNames:      sub.OtherNames,
			Classifications: sub.Classifications,
			Reasons:         renderReasons(sub.Reasons),
			Warnings:        sub.Warnings,
			References:      sub.References,
			DeaSchedule:     scheduleLabel(sub.DeaSchedule),
			IsSteroid:       sub.IsSteroid,
			MoreInfo:        moreInfoLink(sub.MoreInfoURL),
			SearchableName:  sub.SearchableName,
			Guid:            sub.Guid,
			Added:           formatDate(sub.Added),
			Updated:         formatDate(sub.Updated),
			Unii:            sub.UniiInfo,
			UniiLinks:       uniiLinks(sub.UniiInfo),
			Index:           i + 1,
			Total:           len(substances),
		}

		pagePath := filepath.Join(dir, sub.Slug+".md")
		file, err := os.Create(pagePath)
		if err != nil {
			return fmt.Errorf("failed to create page %s: %w", pagePath, err)
		}
		execErr := pageTemplate.Execute(file, data)
		if closeErr := file.Close(); execErr == nil {
			execErr = closeErr
		}
		if execErr != nil {
			return fmt.Errorf("failed to write page %s: %w", pagePath, execErr)
		}
	}
	return nil
}

func renderReasons(reasons []entities.Reason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r.Link != "" {
			out = append(out, fmt.Sprintf("%s ([source](%s))", r.Text, r.Link))
		} else {
			out = append(out, r.Text)
		}
	}
	return out
}

func moreInfoLink(url string) string {
	if strings.TrimSpace(url) == "" {
		return "Not specified"
	}
	return fmt.Sprintf("<%s>", url)
}

func scheduleLabel(s entities.DEASchedule) string {
	if s == "" {
		return ""
	}
	return "Schedule " + string(s)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func uniiLinks(info *entities.UniiInfo) []string {
	if info == nil {
		return nil
	}
	var links []string
	add := func(label, url string) {
		if url != "" {
			links = append(links, fmt.Sprintf("[%s](%s)", label, url))
		}
	}
	add("FDA UNII Search", info.ResourceURL)
	add("GSRS Full Record", info.GsrsRecordURL)
	add("NCATS Inxight Drugs", info.NcatsURL)
	add("CAS Common Chemistry", info.CommonChemistryURL)
	add("PubChem", info.PubchemURL)
	add("EPA CompTox Dashboard", info.CompToxURL)
	if len(links) == 0 {
		links = append(links, "No external resources available")
	}
	return links
}

// writeTable renders table.md, one pipe-escaped row per substance.
func (g *Generator) writeTable(substances []entities.Substance, dir string) error {
	var out strings.Builder

	out.WriteString("# Complete Substances Table\n\n")
	out.WriteString("All prohibited substances in one sortable table. ")
	out.WriteString("Cell content is truncated; follow the details link for the full record.\n\n")
	out.WriteString("| Name | Other Names | Classifications | DEA Schedule | Reason | Warnings | References | Added | Updated | Details |\n")
	out.WriteString("|------|-------------|-----------------|--------------|--------|----------|------------|-------|---------|---------|\n")

	for i := range substances {
		sub := &substances[i]

		reason := "N/A"
		if len(sub.Reasons) > 0 {
			reason = sub.Reasons[0].Text
		}
		references := "No refs"
		if n := len(sub.References); n > 0 {
			references = fmt.Sprintf("%d refs", n)
		}

		row := []string{
			fmt.Sprintf("[%s](%s.md)", escapePipes(sub.Name), sub.Slug),
			truncate(escapePipes(joinOrNA(sub.OtherNames)), 50),
			truncate(escapePipes(joinOrNA(sub.Classifications)), 30),
			orNA(scheduleLabel(sub.DeaSchedule)),
			truncate(escapePipes(reason), 40),
			truncate(escapePipes(joinOrNA(sub.Warnings)), 30),
			references,
			orNA(formatDate(sub.Added)),
			orNA(formatDate(sub.Updated)),
			fmt.Sprintf("[View details](%s.md)", sub.Slug),
		}

		out.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	tablePath := filepath.Join(dir, "table.md")
	if err := os.WriteFile(tablePath, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write table %s: %w", tablePath, err)
	}
	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// writeIndex renders index.md: summary statistics, schedule breakdown, top
// classifications and an A-Z listing.
func (g *Generator) writeIndex(substances []entities.Substance, dir string, generatedAt time.Time) error {
	var out strings.Builder

	out.WriteString("# Prohibited Substances\n\n")
	out.WriteString("## Summary Statistics\n\n")
	out.WriteString(fmt.Sprintf("**Total prohibited substances:** %d\n\n", len(substances)))
	out.WriteString(fmt.Sprintf("**Last generated:** %s\n\n", generatedAt.UTC().Format("2006-01-02 15:04 UTC")))

	// DEA schedule breakdown
	scheduleCounts := make(map[entities.DEASchedule]int)
	steroidCount := 0
	classificationCounts := make(map[string]int)
	for i := range substances {
		sub := &substances[i]
		if sub.DeaSchedule != "" {
			scheduleCounts[sub.DeaSchedule]++
		}
		if sub.IsSteroid {
			steroidCount++
		}
		for _, c := range sub.Classifications {
			classificationCounts[c]++
		}
	}

	totalScheduled := 0
	for _, n := range scheduleCounts {
		totalScheduled += n
	}
	out.WriteString("### DEA Controlled Substances Breakdown\n\n")
	out.WriteString(fmt.Sprintf("**Total DEA controlled substances:** %d\n\n", totalScheduled))
	if totalScheduled > 0 {
		for _, schedule := range []entities.DEASchedule{
			entities.ScheduleI, entities.ScheduleII, entities.ScheduleIII,
			entities.ScheduleIV, entities.ScheduleV,
		} {
			if n := scheduleCounts[schedule]; n > 0 {
				pct := float64(n) / float64(totalScheduled) * 100
				out.WriteString(fmt.Sprintf("- **Schedule %s:** %d substances (%.1f%%)\n", schedule, n, pct))
			}
		}
		out.WriteString("\n")
	}

	out.WriteString(fmt.Sprintf("**Anabolic steroids:** %d substances\n\n", steroidCount))

	// Top classifications
	if len(classificationCounts) > 0 {
		type classCount struct {
			name  string
			count int
		}
		counts := make([]classCount, 0, len(classificationCounts))
		for name, n := range classificationCounts {
			counts = append(counts, classCount{name, n})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].name < counts[j].name
		})
		if len(counts) > 10 {
			counts = counts[:10]
		}

		out.WriteString("### Top Classifications\n\n")
		for _, c := range counts {
			pct := float64(c.count) / float64(len(substances)) * 100
			out.WriteString(fmt.Sprintf("- **%s:** %d substances (%.1f%%)\n", c.name, c.count, pct))
		}
		out.WriteString("\n")
	}

	out.WriteString("## Browse Substances\n\n")
	out.WriteString("- [View Complete Table](table.md) - Sortable table of all substances\n\n")

	// A-Z listing grouped by first letter of the display name
	letterGroups := make(map[string][]*entities.Substance)
	for i := range substances {
		sub := &substances[i]
		letter := "#"
		if sub.Name != "" {
			letter = strings.ToUpper(sub.Name[:1])
			if letter < "A" || letter > "Z" {
				letter = "#"
			}
		}
		letterGroups[letter] = append(letterGroups[letter], sub)
	}
	letters := make([]string, 0, len(letterGroups))
	for letter := range letterGroups {
		letters = append(letters, letter)
	}
	sort.Strings(letters)

	out.WriteString("## Browse by Name\n\n")
	for _, letter := range letters {
		out.WriteString(fmt.Sprintf("### %s\n\n", letter))
		for _, sub := range letterGroups[letter] {
			out.WriteString(fmt.Sprintf("- [%s](%s.md)\n", sub.Name, sub.Slug))
		}
		out.WriteString("\n")
	}

	out.WriteString("---\n\n")
	out.WriteString("*This database contains information about substances prohibited for use in dietary supplements by the Department of Defense.*\n")

	indexPath := filepath.Join(dir, "index.md")
	if err := os.WriteFile(indexPath, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write index %s: %w", indexPath, err)
	}
	return nil
}

// dataExport is the machine-readable site export.
type dataExport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Total       int                  `json:"total"`
	Substances  []entities.Substance `json:"substances"`
}

func (g *Generator) writeData(substances []entities.Substance, generatedAt time.Time) error {
	export := dataExport{
		GeneratedAt: generatedAt.UTC(),
		Total:       len(substances),
		Substances:  substances,
	}

	doc, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data export: %w", err)
	}

	dataPath := filepath.Join(g.docsDir, "data.json")
	if err := os.WriteFile(dataPath, append(doc, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write data export %s: %w", dataPath, err)
	}
	return nil
}
