// Package merge implements the union/dedup stage and the close-match
// helpers it (and the orchestrator's suggestion text) depend on.
package merge

import (
	"regexp"
	"strings"

	"atlas/internal/atlastype"
	"atlas/internal/normalize"
)

// usCanCountries are the countries for which MakeLocationKey buckets by
// state rather than country.
var usCanCountries = map[string]bool{"USA": true, "CAN": true}

// trailingDisambiguator matches a "(n)" suffix so keys that differ only by
// it collapse into the same bucket.
var trailingDisambiguator = regexp.MustCompile(`\(\d+\)$`)

// MakeLocationKey returns the composite bucket key for a location: "city,
// state" for USA/CAN, "city,country" otherwise.
func MakeLocationKey(l *atlastype.Location) string {
	city := normalize.Simplify(l.City, false)
	if usCanCountries[strings.ToUpper(l.Country)] {
		return city + "," + strings.ToUpper(l.State)
	}
	return city + "," + strings.ToUpper(l.Country)
}

// CanonicalKey strips a trailing "(n)" disambiguator so keys that differ
// only by it collapse into the same bucket.
func CanonicalKey(key string) string {
	return trailingDisambiguator.ReplaceAllString(key, "")
}
