package uniiclient

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Index holds the parsed UNII records keyed by uppercased name. A name can
// map to several candidates when terms collide across records.
type Index struct {
	byName map[string][]entities.UniiCandidate
	total  int
}

// BuildIndex downloads (or reuses) the archive and parses the records file
// inside it into a lookup index.
func BuildIndex(ctx context.Context, client *Client) (*Index, error) {
	archivePath, err := client.ArchivePath(ctx)
	if err != nil {
		return nil, err
	}
	return ParseArchive(archivePath)
}

// ParseArchive opens the zip archive and parses the tab-separated records
// file inside it.
func ParseArchive(archivePath string) (*Index, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open UNII archive %s: %w", archivePath, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logging.Warn("Failed to close UNII archive", "error", err)
		}
	}()

	recordsFile := findRecordsFile(&reader.Reader)
	if recordsFile == nil {
		return nil, fmt.Errorf("no records file found in UNII archive %s", archivePath)
	}

	rc, err := recordsFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in archive: %w", recordsFile.Name, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			logging.Warn("Failed to close UNII records file", "error", err)
		}
	}()

	index, err := parseRecords(bufio.NewScanner(rc), recordsFile.Name)
	if err != nil {
		return nil, err
	}
	return index, nil
}

// findRecordsFile locates the UNII records TSV inside the archive. File
// names carry a release date (UNII_Records_18Aug2025.txt) so match on
// prefix instead of the full name.
func findRecordsFile(r *zip.Reader) *zip.File {
	for _, f := range r.File {
		base := strings.ToUpper(f.Name)
		if strings.HasPrefix(base, "UNII_RECORDS") && strings.HasSuffix(base, ".TXT") {
			return f
		}
	}
	// Fall back to any .txt entry carrying UNII in the name
	for _, f := range r.File {
		base := strings.ToUpper(f.Name)
		if strings.Contains(base, "UNII") && strings.HasSuffix(base, ".TXT") {
			return f
		}
	}
	return nil
}

// parseRecords scans the tab-separated records file. The first line is a
// header naming the columns; records with missing required columns are
// counted and skipped.
func parseRecords(scanner *bufio.Scanner, fileName string) (*Index, error) {
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s header: %w", fileName, err)
		}
		return nil, fmt.Errorf("empty UNII records file %s", fileName)
	}

	columns := make(map[string]int)
	for i, name := range strings.Split(scanner.Text(), "\t") {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	uniiCol, ok := columns["UNII"]
	if !ok {
		return nil, fmt.Errorf("UNII column missing in %s header", fileName)
	}
	ptCol, ok := columns["PT"]
	if !ok {
		return nil, fmt.Errorf("PT column missing in %s header", fileName)
	}
	displayCol := columnOrMissing(columns, "DISPLAY NAME")
	rnCol := columnOrMissing(columns, "RN")
	typeCol := columnOrMissing(columns, "UNII TYPE")
	pubchemCol := columnOrMissing(columns, "PUBCHEM")
	comptoxCol := columnOrMissing(columns, "EPA_COMPTOX")

	index := &Index{byName: make(map[string][]entities.UniiCandidate)}

	lineCount := 0
	skippedEmptyLines := 0
	skippedMissingColumns := 0
	skippedNoName := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()

		// Skip empty lines silently
		if len(line) == 0 {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, "\t")

		if len(fields) <= uniiCol || len(fields) <= ptCol {
			skippedMissingColumns++
			continue
		}

		candidate := entities.UniiCandidate{
			UniiCode:      strings.TrimSpace(fields[uniiCol]),
			PreferredTerm: strings.TrimSpace(fields[ptCol]),
			DisplayName:   fieldAt(fields, displayCol),
			CasRN:         fieldAt(fields, rnCol),
			SubstanceType: fieldAt(fields, typeCol),
			PubchemCID:    fieldAt(fields, pubchemCol),
			CompToxID:     fieldAt(fields, comptoxCol),
		}

		if candidate.UniiCode == "" {
			skippedMissingColumns++
			continue
		}

		keys := indexKeys(candidate)
		if len(keys) == 0 {
			skippedNoName++
			continue
		}

		index.total++
		for key := range keys {
			index.byName[key] = append(index.byName[key], candidate)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", fileName, err)
	}

	// Log skip statistics if any lines were skipped
	if skippedEmptyLines > 0 || skippedMissingColumns > 0 || skippedNoName > 0 {
		logging.Info("UNII records skip statistics",
			"file", fileName,
			"empty_lines", skippedEmptyLines,
			"missing_columns", skippedMissingColumns,
			"no_name", skippedNoName,
			"total_lines", lineCount,
			"records_parsed", index.total)
	}

	logging.Info("UNII index built", "records", index.total, "names", len(index.byName))
	return index, nil
}

// indexKeys returns the uppercased names a candidate is reachable under.
func indexKeys(c entities.UniiCandidate) map[string]struct{} {
	keys := make(map[string]struct{}, 2)
	if c.PreferredTerm != "" {
		keys[strings.ToUpper(c.PreferredTerm)] = struct{}{}
	}
	if c.DisplayName != "" {
		keys[strings.ToUpper(c.DisplayName)] = struct{}{}
	}
	return keys
}

func columnOrMissing(columns map[string]int, name string) int {
	if i, ok := columns[name]; ok {
		return i
	}
	return -1
}

func fieldAt(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// Lookup returns the candidates indexed under the uppercased name. The
// returned slice is shared; callers must not mutate it.
func (idx *Index) Lookup(name string) ([]entities.UniiCandidate, error) {
	if idx == nil {
		return nil, fmt.Errorf("unii index not built")
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}
	return idx.byName[key], nil
}

// Size returns the number of parsed records.
func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return idx.total
}
