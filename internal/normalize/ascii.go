// Package normalize implements the text-folding primitives that are the
// sole keys into the gazetteer indexes: plainASCII, the 40-char simplify
// key, and the variant prefix strip.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// multiCharTranslit holds code points that expand to more than one ASCII
// character (ligatures, German sharp s, decorative punctuation).
var multiCharTranslit = map[rune]string{
	'Æ': "Ae", 'æ': "ae", // Æ æ
	'Þ': "Th", 'þ': "th", // Þ þ
	'ß': "ss",            // ß
	'Ĳ': "Ij", 'ĳ': "ij", // Ĳ ĳ
	'Œ': "Oe", 'œ': "oe", // Œ œ
	'—': " -- ", '―': " -- ", // em dash, horizontal bar
	'…': "...", // ellipsis
}

// decorativeOnly holds the subset of multiCharTranslit that forFileName
// suppresses (the multi-char transliterations of symbols that are merely
// decorative).
var decorativeOnly = map[rune]bool{
	'—': true, '―': true, '…': true,
}

// forFileNameSubstitutes maps shell/path-hostile characters (and a leading
// dot) to safe substitutes when forFileName is set.
var forFileNameSubstitutes = map[rune]string{
	'"': "'", '[': "(", ']': ")", '*': "_", '/': "-", ':': "-",
	';': "-", '<': "(", '>': ")", '?': "", '\\': "-", '|': "-",
}

// PlainASCII transliterates s to printable ASCII (0x20-0x7E), mapping
// diacritics, known ligatures, em-dash/ellipsis, and otherwise-unmappable
// code points to "_". When forFileName is true, additionally neutralizes
// shell/path-hostile characters and a leading '.'.
//
// Restricted to ASCII input, PlainASCII is the identity function.
func PlainASCII(s string, forFileName bool) string {
	if isASCII(s) {
		if forFileName {
			return sanitizeFileNameASCII(s)
		}
		return s
	}

	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))

	first := true
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			// Combining mark: drop it, it has already modified the base
			// rune's decomposition context.
			continue
		}

		if forFileName && first && r == '.' {
			b.WriteByte('_')
			first = false
			continue
		}
		first = false

		if 0x20 <= r && r <= 0x7E {
			if forFileName {
				if sub, ok := forFileNameSubstitutes[r]; ok {
					b.WriteString(sub)
					continue
				}
			}
			b.WriteRune(r)
			continue
		}

		if sub, ok := multiCharTranslit[r]; ok {
			if forFileName && decorativeOnly[r] {
				continue
			}
			b.WriteString(sub)
			continue
		}

		b.WriteByte('_')
	}

	return b.String()
}

func sanitizeFileNameASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if i == 0 && r == '.' {
			b.WriteByte('_')
			continue
		}
		if sub, ok := forFileNameSubstitutes[r]; ok {
			b.WriteString(sub)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7E {
			return false
		}
	}
	return true
}
