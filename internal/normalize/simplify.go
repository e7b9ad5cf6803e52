package normalize

import (
	"regexp"
	"strings"
)

// parentheticalTail strips a trailing "(...)" group, e.g. "Placid (Lake)".
var parentheticalTail = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// compressions are applied, in order, to whole words after uppercasing.
var compressions = []struct {
	from, to string
}{
	{"FORT", "FT"},
	{"MOUNT", "MT"},
	{"POINT", "PT"},
	{"SAINTE", "STE"}, // whole-word match, so "SAINTE" never hits the SAINT entry
	{"SAINT", "ST"},
}

// variantPrefixes lists every prefix stripVariantPrefix may strip; the
// longest matching one wins regardless of list order.
var variantPrefixes = []string{
	"CANON DE", "CERRO", "FORT", "FT", "ILE D", "ILE DE", "ILE DU", "ILES",
	"ILSA", "LA", "LAKE", "LAS", "LE", "LOS", "MOUNT", "MT", "POINT", "PT",
	"THE",
}

const maxSimplifiedLen = 40

// Simplify folds s into the 40-char ASCII-upper key used throughout the
// gazetteer indexes. When asVariant is true, a leading prefix
// from variantPrefixes is stripped first.
//
// Simplify(Simplify(x), false) == Simplify(x, false) holds unless removing
// the spaces joins words into one that the compression table then shortens
// ("FOR T" -> "FORT" -> "FT"); compressions apply to whole input words only.
func Simplify(s string, asVariant bool) string {
	s = parentheticalTail.ReplaceAllString(s, "")

	upper := strings.ToUpper(PlainASCII(s, false))

	var kept strings.Builder
	kept.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			kept.WriteRune(r)
		case r == '-' || r == '.':
			kept.WriteByte(' ')
		}
	}

	words := strings.Fields(kept.String())

	if asVariant && len(words) > 0 {
		words = stripVariantPrefix(words)
	}

	for i, w := range words {
		for _, c := range compressions {
			if w == c.from {
				words[i] = c.to
				break
			}
		}
	}

	joined := strings.Join(words, "")
	if len(joined) > maxSimplifiedLen {
		joined = joined[:maxSimplifiedLen]
	}
	return joined
}

func stripVariantPrefix(words []string) []string {
	// Try multi-word prefixes (space-joined) longest first, then
	// single-word prefixes.
	joinedAll := strings.Join(words, " ")
	best := ""
	for _, p := range variantPrefixes {
		if strings.HasPrefix(joinedAll, p+" ") && len(p) > len(best) {
			best = p
		}
	}
	if best == "" {
		return words
	}
	consumed := len(strings.Fields(best))
	if consumed >= len(words) {
		return words
	}
	return words[consumed:]
}
