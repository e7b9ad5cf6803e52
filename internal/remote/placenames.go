package remote

import (
	"html"
	"regexp"
	"strings"

	"atlas/internal/gazetteer"
	"atlas/internal/normalize"
)

// ProcessedName is the outcome of ProcessPlaceNames: a rejected input
// yields Rejected=true and no further fields are meaningful.
type ProcessedName struct {
	City     string
	Variant  string
	County   string
	State    string
	Country  string
	Rejected bool
}

var (
	numericSuffixRe = regexp.MustCompile(`(?i)\s+\d{1,3}$`)
	apartmentRe     = regexp.MustCompile(`(?i)\b(apartments?|trailer\s+park|mobile\s+home\s+park)\b`)
	cdpRe           = regexp.MustCompile(`(?i)census\s+designated\s+place`)
	subdivisionRe   = regexp.MustCompile(`(?i)\bsubdivision\b`)
	historicalRe    = regexp.MustCompile(`(?i)\bhistorical\b`)
	rearrangeRe     = regexp.MustCompile(`^(.+),\s*(.+)$`)

	lakeMountPrefixRe = regexp.MustCompile(`(?i)^(Lake|Mount|Mt\.?|The|La|Las|El|Le|Los)\s+(.+)$`)

	countyOfRe    = regexp.MustCompile(`(?i)^county\s+of\s+`)
	provinciaDeRe = regexp.MustCompile(`(?i)^provincia\s+de\s+`)
	stateSuffixRe = regexp.MustCompile(`(?i)\s+(Province|Prefecture|Oblast|Kray|District|Department|Governorate|Metropolitan\s+Area|Territory|Region|Republic)$`)

	cityOfRe           = regexp.MustCompile(`(?i)^city\s+of\s+`)
	independentCityRe  = regexp.MustCompile(`(?i)\s*independent\s+city\s*`)
)

// ProcessPlaceNames canonicalizes a raw remote document's name/admin fields.
// decodeEntities controls whether HTML entities in the input are decoded
// first (Getty documents need it; GeoNames JSON does not).
func ProcessPlaceNames(rawCity, rawCounty, rawState, rawCountry string, decodeEntities bool, g *gazetteer.Gazetteer) ProcessedName {
	city := strings.TrimSpace(rawCity)
	if decodeEntities {
		city = html.UnescapeString(city)
	}

	if numericSuffixRe.MatchString(city) ||
		apartmentRe.MatchString(city) ||
		cdpRe.MatchString(city) ||
		subdivisionRe.MatchString(city) ||
		historicalRe.MatchString(city) {
		return ProcessedName{Rejected: true}
	}

	variant := ""
	if m := rearrangeRe.FindStringSubmatch(city); m != nil {
		// "Foo, X" -> "X Foo", capturing the original as variant.
		variant = city
		city = strings.TrimSpace(m[2]) + " " + strings.TrimSpace(m[1])
	} else if m := lakeMountPrefixRe.FindStringSubmatch(city); m != nil {
		variant = strings.TrimSpace(m[2])
	}

	county := cleanAdminSuffix(strings.TrimSpace(rawCounty))
	state := cleanAdminSuffix(strings.TrimSpace(rawState))
	country := resolveCountry(strings.TrimSpace(rawCountry), g)

	pn := ProcessedName{City: city, Variant: variant, County: county, State: state, Country: country}

	upperCountry := strings.ToUpper(country)
	if upperCountry == "USA" || upperCountry == "CAN" {
		if abbr, ok := g.StateAbbrev(normalize.Simplify(state, false)); ok {
			pn.State = abbr
		}
		if upperCountry == "USA" {
			pn.County = standardizeUSCounty(pn.County, pn.State, pn.City, g)
		}
	}

	return pn
}

func cleanAdminSuffix(s string) string {
	s = countyOfRe.ReplaceAllString(s, "")
	s = provinciaDeRe.ReplaceAllString(s, "")
	s = stateSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func resolveCountry(raw string, g *gazetteer.Gazetteer) string {
	if raw == "" || g == nil {
		return raw
	}
	key := normalize.Simplify(raw, false)
	if c, ok := g.CountryByName(key); ok {
		return c.Code3
	}
	if c, ok := g.CountryByAltForm(key); ok {
		return c.Code3
	}
	if len(raw) == 3 {
		if c, ok := g.CountryByCode3(raw); ok {
			return c.Code3
		}
	}
	if len(raw) == 2 {
		if c, ok := g.CountryByCode2(raw); ok {
			return c.Code3
		}
		if c, ok := g.CountryByOldCode2(raw); ok {
			return c.Code3
		}
	}
	return raw + "?"
}

// StandardizeShortCountyName implements the US county-name standardization:
// Mc* capitalization, apostrophes, and the fixed irregular-spelling list.
func StandardizeShortCountyName(county string) string {
	c := strings.TrimSpace(county)
	if c == "" {
		return c
	}
	if fixed, ok := irregularCountySpellings[strings.ToUpper(c)]; ok {
		return fixed
	}
	words := strings.Fields(strings.ToLower(c))
	for i, w := range words {
		if strings.HasPrefix(w, "mc") && len(w) > 2 {
			words[i] = "Mc" + strings.ToUpper(w[2:3]) + w[3:]
			continue
		}
		if idx := strings.Index(w, "'"); idx >= 0 && idx+1 < len(w) {
			words[i] = strings.ToUpper(w[:1]) + w[1:idx+1] + strings.ToUpper(w[idx+1:idx+2]) + w[idx+2:]
			continue
		}
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var irregularCountySpellings = map[string]string{
	"DEKALB":                "DeKalb",
	"DESOTO":                "DeSoto",
	"DUPAGE":                "DuPage",
	"SKAGWAY-HOONAH-ANGOON": "Skagway-Hoonah-Angoon",
	"LASALLE":               "LaSalle",
	"LAPORTE":               "LaPorte",
}

func standardizeUSCounty(rawCounty, state, city string, g *gazetteer.Gazetteer) string {
	county := StandardizeShortCountyName(rawCounty)
	if county == "" {
		return county
	}
	if g != nil && g.IsUSCounty(normalize.Simplify(county+", "+state, false)) {
		return county
	}

	stripped := strings.TrimSpace(cityOfRe.ReplaceAllString(county, ""))
	stripped = strings.TrimSpace(independentCityRe.ReplaceAllString(stripped, ""))
	if strings.EqualFold(stripped, city) {
		// Independent-city case: blank the county.
		return ""
	}

	if g != nil && g.IsUSCounty(normalize.Simplify(stripped+", "+state, false)) {
		return stripped
	}

	return "City of " + county
}

// AdjustUSCountyName appends the state-appropriate suffix for display:
// "Parish" for LA, "Census Area" (fixed list) or "Borough" for AK, and
// "County" for every other state. No other suffix, such as "Division", is
// ever appended.
func AdjustUSCountyName(county, state string) string {
	if county == "" {
		return county
	}
	switch strings.ToUpper(state) {
	case "LA":
		return county + " Parish"
	case "AK":
		if alaskaCensusAreas[strings.ToUpper(county)] {
			return county + " Census Area"
		}
		return county + " Borough"
	default:
		return county + " County"
	}
}

// alaskaCensusAreas is the fixed list of Alaska census areas that take
// "Census Area" instead of "Borough".
var alaskaCensusAreas = map[string]bool{
	"ALEUTIANS EAST":        true,
	"ALEUTIANS WEST":        true,
	"BETHEL":                true,
	"BRISTOL BAY":           true,
	"DILLINGHAM":            true,
	"HOONAH-ANGOON":         true,
	"KUSILVAK":              true,
	"NOME":                  true,
	"NORTH SLOPE":           true,
	"NORTHWEST ARCTIC":      true,
	"PRINCE OF WALES-HYDER": true,
	"SOUTHEAST FAIRBANKS":   true,
	"YAKUTAT":               true,
	"YUKON-KOYUKUK":         true,
}
