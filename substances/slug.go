package substances

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// stripAccents decomposes to NFKD, drops combining marks and recomposes, so
// accented and chemical-notation characters flatten to plain ASCII where a
// plain ASCII form exists.
var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name, strips diacritics, collapses every run of
// non-alphanumeric characters into a single hyphen and trims the edges.
// Names made entirely of symbols (heavy chemical notation) produce the empty
// string; callers fall back to a hash-derived slug.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	flattened, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		flattened = lowered
	}
	slug := nonAlnumRun.ReplaceAllString(flattened, "-")
	return strings.Trim(slug, "-")
}

// FallbackSlug derives a stable placeholder slug from the whole raw row for
// names that slugify to nothing. json.Marshal sorts map keys, so the hash is
// reproducible across runs for identical rows.
func FallbackSlug(row entities.RawRow) string {
	encoded, err := json.Marshal(row)
	if err != nil {
		encoded = []byte{}
	}
	sum := sha1.Sum(encoded)
	return "substance-" + hex.EncodeToString(sum[:])[:10]
}

// SearchableName derives the normalized-for-search form of a name: case
// folded, diacritics stripped, whitespace collapsed, punctuation dropped
// except hyphens joining alphanumeric characters (common in chemical names
// like beta-methylphenethylamine).
func SearchableName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	flattened, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		flattened = lowered
	}

	rs := []rune(flattened)
	var b strings.Builder
	b.Grow(len(flattened))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' && i > 0 && i < len(rs)-1 && isAlnum(rs[i-1]) && isAlnum(rs[i+1]):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
