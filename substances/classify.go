package substances

import (
	"regexp"
	"strings"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// scheduleRe matches the literal schedule mentions the source uses. The word
// "Schedule" is case-sensitive; the alternation is ordered longest-first so
// "Schedule III" never matches as "Schedule II", and the boundary keeps
// "Schedule I" from matching inside "Schedule IV".
var scheduleRe = regexp.MustCompile(`Schedule (III|II|IV|V|I)\b`)

// ExtractDEASchedule scans reason texts, then classification texts, for a
// schedule mention and returns the first one found. The source data is
// allowed to be redundant or inconsistent: when several distinct schedules
// appear, the first in scan order is authoritative and no conflict is
// raised. No match yields the empty schedule.
func ExtractDEASchedule(reasons, classifications []string) entities.DEASchedule {
	for _, text := range reasons {
		if m := scheduleRe.FindStringSubmatch(text); m != nil {
			return entities.DEASchedule(m[1])
		}
	}
	for _, text := range classifications {
		if m := scheduleRe.FindStringSubmatch(text); m != nil {
			return entities.DEASchedule(m[1])
		}
	}
	return ""
}

// steroidKeywords flag a substance as a steroid or anabolic agent. This is a
// pure case-insensitive substring test with no negation handling, so a
// classification like "non-steroidal" still matches; that false positive is
// the documented source behavior and is preserved on purpose.
var steroidKeywords = []string{"steroid", "anabolic"}

// ExtractIsSteroid reports whether any classification mentions a steroid
// keyword.
func ExtractIsSteroid(classifications []string) bool {
	for _, c := range classifications {
		lower := strings.ToLower(c)
		for _, kw := range steroidKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
