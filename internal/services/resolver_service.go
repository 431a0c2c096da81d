// internal/services/resolver_service.go
package services

import (
	"strings"

	"scriptvision/internal/models"
	"scriptvision/internal/utils"
)

// Matching configuration tables. These are deliberately plain data so the
// matcher stays a pure function over them.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"professor": true, "sir": true, "lady": true, "lord": true,
	"king": true, "queen": true, "father": true, "mother": true,
	"uncle": true, "aunt": true,
}

var maleTitles = map[string]bool{
	"mr": true, "lord": true, "sir": true, "king": true,
	"father": true, "uncle": true,
}

var femaleTitles = map[string]bool{
	"mrs": true, "miss": true, "ms": true, "lady": true,
	"queen": true, "mother": true, "aunt": true,
}

// matchOutcome reports how a pair of names compared.
type matchOutcome int

const (
	outcomeNoMatch matchOutcome = iota
	outcomeMatch
	// outcomeConflict is a forced non-match from the unique-remainder rule:
	// both sides kept a distinguishing token outside the shared ones
	// ("Lily Potter" vs "Harry Potter").
	outcomeConflict
)

// ResolverService reconciles script-local character names with the
// canonical roster.
type ResolverService struct{}

// NewResolverService creates a resolver.
func NewResolverService() *ResolverService {
	return &ResolverService{}
}

// ResolveAll pairs each script-local name with at most one canonical roster
// entry (first satisfying entry in roster order). Unmatched names become
// their own canonical entry. The result is recomputed whenever the script
// or roster changes; it is never persisted here.
func (s *ResolverService) ResolveAll(scriptNames []string, roster []models.RosterEntry) []models.CharacterRef {
	refs := make([]models.CharacterRef, 0, len(scriptNames))

	for _, name := range scriptNames {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}

		var matched *models.RosterEntry
		for i := range roster {
			outcome := matchNames(trimmed, roster[i].Name)
			if outcome == outcomeConflict {
				utils.GetLogger().Warn("character match rejected by conflict rule", map[string]interface{}{
					"script_name": trimmed,
					"roster_name": roster[i].Name,
				})
				continue
			}
			if outcome == outcomeMatch {
				matched = &roster[i]
				break
			}
		}

		if matched != nil {
			refs = append(refs, models.CharacterRef{
				CanonicalName:       matched.Name,
				OriginalName:        trimmed,
				DisplayName:         trimmed,
				PhysicalDescription: matched.PhysicalDescription,
				Personality:         matched.Personality,
				Role:                matched.Role,
				ImageURL:            matched.ImageURL,
				Matched:             true,
			})
		} else {
			refs = append(refs, models.CharacterRef{
				CanonicalName: trimmed,
				OriginalName:  trimmed,
				DisplayName:   trimmed,
				Matched:       false,
			})
		}
	}

	return refs
}

// MatchNames reports whether two character names refer to the same
// character under the resolution heuristics.
func (s *ResolverService) MatchNames(a, b string) bool {
	return matchNames(a, b) == outcomeMatch
}

// matchNames applies the rules in order; the first rule that fires decides.
func matchNames(a, b string) matchOutcome {
	na := normalizeName(a)
	nb := normalizeName(b)

	if na == "" || nb == "" {
		return outcomeNoMatch
	}

	if na == nb {
		return outcomeMatch
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return outcomeMatch
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)

	// A gendered title on one side with the opposite title on the other is
	// a forced non-match regardless of the remaining logic
	// ("Mr. Potter" vs "Mrs. Potter").
	if oppositeGenderedTitles(tokensA, tokensB) {
		return outcomeNoMatch
	}

	tokensA = stripHonorifics(tokensA)
	tokensB = stripHonorifics(tokensB)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return outcomeNoMatch
	}

	shared := make(map[string]bool)
	setB := make(map[string]bool)
	for _, t := range tokensB {
		setB[t] = true
	}
	for _, t := range tokensA {
		if setB[t] {
			shared[t] = true
		}
	}

	if len(shared) == 0 {
		return outcomeNoMatch
	}

	remainderA := false
	for _, t := range tokensA {
		if !shared[t] {
			remainderA = true
			break
		}
	}
	remainderB := false
	for _, t := range tokensB {
		if !shared[t] {
			remainderB = true
			break
		}
	}

	// Both sides keeping a distinguishing token means two different people
	// sharing a surname. At most one remainder is tolerated so that
	// "Albus Dumbledore" still matches "Dumbledore". A side reduced to only
	// the shared surname can over-match; that behavior is preserved as-is.
	if remainderA && remainderB {
		return outcomeConflict
	}

	return outcomeMatch
}

// normalizeName trims, lowercases and strips periods and commas.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, ".", "")
	n = strings.ReplaceAll(n, ",", "")
	return strings.Join(strings.Fields(n), " ")
}

func stripHonorifics(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !honorifics[t] {
			out = append(out, t)
		}
	}
	return out
}

func oppositeGenderedTitles(tokensA, tokensB []string) bool {
	maleA, femaleA := genderedTitles(tokensA)
	maleB, femaleB := genderedTitles(tokensB)
	return (maleA && femaleB) || (femaleA && maleB)
}

func genderedTitles(tokens []string) (male, female bool) {
	for _, t := range tokens {
		if maleTitles[t] {
			male = true
		}
		if femaleTitles[t] {
			female = true
		}
	}
	return male, female
}
