// Package search implements the free-form query parser.
package search

import (
	"regexp"
	"strings"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
	"atlas/internal/normalize"
)

var (
	usZipRe               = regexp.MustCompile(`^\d{5}(-\d{4,6})?$`)
	otherPostalRe         = regexp.MustCompile(`^[0-9A-Z]{2,8}((-|\s+)[0-9A-Z]{2,6})?$`)
	hasDigitRe            = regexp.MustCompile(`\d`)
	trailingStateSpacedRe = regexp.MustCompile(`^(.+)\s+(\w{2,3})$`)
)

// ParseSearchString splits a free-form query into a ParsedSearchString.
func ParseSearchString(raw string, mode atlastype.ParseMode, g *gazetteer.Gazetteer) atlastype.ParsedSearchString {
	actual := strings.TrimSpace(raw)

	parts := strings.SplitN(actual, ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	cityPart := ""
	statePart := ""
	countryPart := ""
	switch len(parts) {
	case 1:
		cityPart = parts[0]
	case 2:
		cityPart, statePart = parts[0], parts[1]
	default:
		cityPart, statePart, countryPart = parts[0], parts[1], parts[2]
	}
	if countryPart != "" {
		statePart = countryPart
	}

	postal, cityPart := extractPostalCode(cityPart)

	targetState := statePart
	if mode == atlastype.ParseLoose && targetState == "" && postal == "" {
		// Must run on the still-spaced city string: pullTrailingState's
		// regex needs a whitespace boundary that Simplify would remove.
		if city, state, ok := pullTrailingState(cityPart, g); ok {
			cityPart = city
			targetState = state
		}
	}
	if postal == "" {
		cityPart = normalize.Simplify(cityPart, false)
	}

	parsed := atlastype.ParsedSearchString{
		PostalCode:   postal,
		TargetCity:   cityPart,
		TargetState:  targetState,
		ActualSearch: actual,
	}
	parsed.NormalizedSearch = NormalizedSearch(parsed)
	return parsed
}

// extractPostalCode detects a postal code in either of the first two
// whitespace-split tokens of s, preferring the ZIP form, and returns the
// postal code plus s with that token removed.
func extractPostalCode(s string) (postal string, rest string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", s
	}

	limit := 2
	if limit > len(fields) {
		limit = len(fields)
	}

	bestIdx := -1
	for i := 0; i < limit; i++ {
		tok := strings.ToUpper(fields[i])
		if usZipRe.MatchString(tok) {
			bestIdx = i
			break
		}
		if bestIdx == -1 && hasDigitRe.MatchString(tok) && otherPostalRe.MatchString(tok) {
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return "", s
	}

	postal = strings.ToUpper(fields[bestIdx])
	remaining := append(append([]string{}, fields[:bestIdx]...), fields[bestIdx+1:]...)
	return postal, strings.Join(remaining, " ")
}

// pullTrailingState attempts to pull a 2-3 char trailing token off city and
// accept it as a state iff it is a known state abbreviation or country
// code ("loose" mode). It only recognizes the whitespace-separated form
// ("Los Angeles CA"): splitting on a bare suffix with no separator at all
// would misfire on ordinary single-word city names that happen to end in a
// state code, e.g. "Miami" (MI) or "Tampa" (PA).
func pullTrailingState(city string, g *gazetteer.Gazetteer) (string, string, bool) {
	m := trailingStateSpacedRe.FindStringSubmatch(city)
	if m == nil {
		return city, "", false
	}
	head, tail := strings.TrimSpace(m[1]), strings.ToUpper(m[2])
	if isKnownStateOrCountry(tail, g) {
		return head, tail, true
	}
	return city, "", false
}

// SplitGluedCityState tries to recover a city/state split from a single
// run-together word, e.g. "NashuaNH" -> ("Nashua", "NH"). Unlike
// pullTrailingState this accepts no separator at all, so it is deliberately
// restricted to the "did you mean" suggestion path: there a wrong guess
// only costs a misleading hint, whereas using it to drive an actual search
// would silently misroute ordinary names like "Miami" or "Tampa".
func SplitGluedCityState(raw string, g *gazetteer.Gazetteer) (city, state string, ok bool) {
	trimmed := strings.TrimRight(raw, " ")
	for _, n := range []int{3, 2} {
		if len(trimmed) <= n {
			continue
		}
		head, tail := trimmed[:len(trimmed)-n], strings.ToUpper(trimmed[len(trimmed)-n:])
		if strings.TrimSpace(head) == "" {
			continue
		}
		if isKnownStateOrCountry(tail, g) {
			return strings.TrimRight(head, " "), tail, true
		}
	}
	return raw, "", false
}

func isKnownStateOrCountry(tail string, g *gazetteer.Gazetteer) bool {
	if g == nil {
		return false
	}
	if _, ok := g.StateLongName(tail); ok {
		return true
	}
	if _, ok := g.CountryByCode3(tail); ok {
		return true
	}
	if _, ok := g.CountryByCode2(tail); ok {
		return true
	}
	return false
}

// NormalizedSearch computes the cache/log key: postal (or targetCity) plus
// ", " + targetState if present, or the swapped "city, postal" form when
// both were supplied.
func NormalizedSearch(p atlastype.ParsedSearchString) string {
	if p.PostalCode != "" && p.TargetCity != "" {
		return p.TargetCity + ", " + p.PostalCode
	}
	base := p.PostalCode
	if base == "" {
		base = p.TargetCity
	}
	if p.TargetState != "" {
		return base + ", " + p.TargetState
	}
	return base
}
