package substances

import (
	"strings"

	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// LookupFunc resolves a substance name to UNII candidates. It is injected so
// the adapter carries no client state of its own; the backing data source
// (the FDA archive index, a test stub) is the caller's concern. A failing or
// empty lookup means "no candidates", never a fatal error.
type LookupFunc func(name string) ([]entities.UniiCandidate, error)

// Enricher attaches UNII enrichment data to substance records. It mutates
// exactly one field (UniiInfo) and nothing else.
type Enricher struct {
	lookup LookupFunc
}

// NewEnricher creates an enricher around the injected lookup.
func NewEnricher(lookup LookupFunc) *Enricher {
	return &Enricher{lookup: lookup}
}

// Enrich resolves the record's name through the lookup exactly once and, when
// candidates come back, attaches the best match as a fresh UniiInfo. On
// lookup failure or zero candidates the record is left untouched; enrichment
// is never fatal to a generation run.
func (e *Enricher) Enrich(record *entities.Substance) {
	if e == nil || e.lookup == nil || record == nil {
		return
	}

	candidates, err := e.lookup(record.Name)
	if err != nil {
		logging.Debug("UNII lookup failed", "substance", record.Name, "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	best := pickCandidate(record.SearchableName, candidates)
	record.UniiInfo = best.Info()
}

// EnrichAll runs Enrich over every record in the collection and reports how
// many were enriched.
func (e *Enricher) EnrichAll(records []entities.Substance) int {
	enriched := 0
	for i := range records {
		e.Enrich(&records[i])
		if records[i].UniiInfo != nil {
			enriched++
		}
	}
	return enriched
}

// pickCandidate chooses the candidate whose preferred term is most similar to
// the record's searchable name, case-insensitively. Ties break toward the
// lexicographically smallest UNII code so repeated runs over the same data
// always pick the same candidate.
func pickCandidate(searchableName string, candidates []entities.UniiCandidate) entities.UniiCandidate {
	best := candidates[0]
	bestScore := termSimilarity(searchableName, candidateTerm(best))
	for _, c := range candidates[1:] {
		score := termSimilarity(searchableName, candidateTerm(c))
		if score > bestScore || (score == bestScore && c.UniiCode < best.UniiCode) {
			best = c
			bestScore = score
		}
	}
	return best
}

func candidateTerm(c entities.UniiCandidate) string {
	if c.PreferredTerm != "" {
		return c.PreferredTerm
	}
	return c.DisplayName
}

// termSimilarity is a character-bigram Dice coefficient over the lowercased
// terms: 1 for identical strings, 0 for no shared bigrams. Deterministic and
// cheap, which is all candidate ranking needs.
func termSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	ab := bigrams(a)
	bb := bigrams(b)
	if len(ab) == 0 || len(bb) == 0 {
		return 0
	}
	shared := 0
	for bg, count := range ab {
		if other, ok := bb[bg]; ok {
			shared += min(count, other)
		}
	}
	return 2 * float64(shared) / float64(len([]rune(a))-1+len([]rune(b))-1)
}


func bigrams(s string) map[string]int {
	rs := []rune(s)
	if len(rs) < 2 {
		return nil
	}
	grams := make(map[string]int, len(rs)-1)
	for i := 0; i < len(rs)-1; i++ {
		grams[string(rs[i:i+2])]++
	}
	return grams
}

