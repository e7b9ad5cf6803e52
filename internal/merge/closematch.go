package merge

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"atlas/internal/gazetteer"
	"atlas/internal/normalize"
)

// StartsWithICND reports whether target is a case-/diacritic-insensitive
// prefix of candidate, both simplified first.
func StartsWithICND(target, candidate string) bool {
	t := normalize.Simplify(target, false)
	c := normalize.Simplify(candidate, false)
	if t == "" {
		return true
	}
	return strings.HasPrefix(c, t)
}

// CloseMatchForCity reports whether target is a close match for a
// candidate city name (prefix, simplified).
func CloseMatchForCity(target, candidate string) bool {
	return StartsWithICND(target, candidate)
}

// CloseMatchForState implements: target matches any of {state,
// country, longState, longCountry, code2, oldCode2}, plus the GBR special
// case ("Great Britain", "England").
func CloseMatchForState(target, state, country string, g *gazetteer.Gazetteer) bool {
	if target == "" {
		return true
	}
	t := normalize.Simplify(target, false)

	candidates := []string{state, country}
	if g != nil {
		if long, ok := g.StateLongName(state); ok {
			candidates = append(candidates, long)
		}
		if c, ok := g.CountryByCode3(country); ok {
			candidates = append(candidates, c.Name, c.Code2, c.OldCode2)
		}
	}
	if strings.EqualFold(country, "GBR") {
		candidates = append(candidates, "Great Britain", "England")
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if normalize.Simplify(c, false) == t {
			return true
		}
	}
	return false
}

// FuzzyCloseMatchForCity is a Levenshtein-distance variant of
// CloseMatchForCity used only for the orchestrator's "did you mean"
// suggestion text, built on github.com/agnivade/levenshtein.
func FuzzyCloseMatchForCity(target, candidate string, maxDistance int) bool {
	t := normalize.Simplify(target, false)
	c := normalize.Simplify(candidate, false)
	if t == "" || c == "" {
		return false
	}
	return levenshtein.ComputeDistance(t, c) <= maxDistance
}
