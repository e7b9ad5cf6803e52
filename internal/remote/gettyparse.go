package remote

import (
	"regexp"
	"strconv"
	"strings"
)

// gettyParseState is the four-state machine used to scrape one preliminary
// result-list item block. Encapsulated here so a future HTML layout change
// only touches this file.
type gettyParseState int

const (
	lookingForIDCode gettyParseState = iota
	lookingForPlaceName
	lookingForHierarchy
	lookingForExtrasOrEnd
	placeHasBeenParsed
)

// GettyPreliminaryMatch is one row of the preliminary (paged) result list.
type GettyPreliminaryMatch struct {
	ID          string
	PlaceName   string
	Hierarchy   string
	IsAlternate bool
}

// GettyPageOutcome classifies a preliminary page's sentinel text.
type GettyPageOutcome int

const (
	GettyPageOK GettyPageOutcome = iota
	GettyPageNoResults
	GettyPageTooMany
	GettyPageInvalidSyntax
	GettyPageServerError
)

var (
	noResultsRe     = regexp.MustCompile(`(?i)your search has produced no results`)
	tooManyRe       = regexp.MustCompile(`(?i)too many (records|results|matches)`)
	invalidSyntaxRe = regexp.MustCompile(`(?i)(invalid|unrecognized)\s+(search\s+)?syntax`)
	serverErrorRe   = regexp.MustCompile(`(?i)(server error|internal error|service unavailable)`)
	moreResultsRe   = regexp.MustCompile(`(?i)there.s more`)

	idCodeRe     = regexp.MustCompile(`(?i)tgn[\s:\-]*(\d{5,9})`)
	placeNameRe  = regexp.MustCompile(`(?i)<a[^>]*>([^<]{1,200})</a>`)
	hierarchyRe  = regexp.MustCompile(`(?i)\(([^()]*(?:\([^()]*\)[^()]*)*)\)\s*$`)
	extraAltRe   = regexp.MustCompile(`(?i)\balso known as\b|\balternate\b`)

	// ligatureCollisionFixes pre-fixes targeted substitutions for
	// ligature/comma collisions in Getty hierarchy names.
	ligatureCollisionFixes = []struct{ from, to string }{
		{"\uFB01", "fi"}, // ﬁ
		{"\uFB02", "fl"}, // ﬂ
	}
)

// ClassifyGettyPage inspects one preliminary page's raw HTML body for the
// "no results" / "too many" / "invalid syntax" / "server error" sentinels.
func ClassifyGettyPage(body string) GettyPageOutcome {
	switch {
	case serverErrorRe.MatchString(body):
		return GettyPageServerError
	case noResultsRe.MatchString(body):
		return GettyPageNoResults
	case invalidSyntaxRe.MatchString(body):
		return GettyPageInvalidSyntax
	case tooManyRe.MatchString(body):
		return GettyPageTooMany
	default:
		return GettyPageOK
	}
}

// HasMoreResults reports the "there's more" sentinel used to decide whether
// paging should continue.
func HasMoreResults(body string) bool {
	return moreResultsRe.MatchString(body)
}

// ParseGettyItemBlocks drives the four-state machine over one page's item
// blocks, splitting on the ID-code marker that starts each block.
func ParseGettyItemBlocks(body string) []GettyPreliminaryMatch {
	idMatches := idCodeRe.FindAllStringSubmatchIndex(body, -1)
	if len(idMatches) == 0 {
		return nil
	}

	var out []GettyPreliminaryMatch
	for i, m := range idMatches {
		start := m[0]
		end := len(body)
		if i+1 < len(idMatches) {
			end = idMatches[i+1][0]
		}
		block := body[start:end]
		match, ok := parseOneBlock(block, body[m[2]:m[3]])
		if ok {
			out = append(out, match)
		}
	}
	return out
}

func parseOneBlock(block, id string) (GettyPreliminaryMatch, bool) {
	match := GettyPreliminaryMatch{ID: id}
	state := lookingForIDCode

	for state != placeHasBeenParsed {
		switch state {
		case lookingForIDCode:
			// The ID code itself was already pulled out of the block by the
			// caller (ParseGettyItemBlocks); this state only marks where
			// the machine starts.
			state = lookingForPlaceName

		case lookingForPlaceName:
			m := placeNameRe.FindStringSubmatch(block)
			if m == nil {
				return match, false
			}
			match.PlaceName = fixLigatureCollisions(strings.TrimSpace(m[1]))
			state = lookingForHierarchy

		case lookingForHierarchy:
			if m := hierarchyRe.FindStringSubmatch(block); m != nil {
				match.Hierarchy = fixLigatureCollisions(strings.TrimSpace(m[1]))
			}
			state = lookingForExtrasOrEnd

		case lookingForExtrasOrEnd:
			if extraAltRe.MatchString(block) {
				match.IsAlternate = true
			}
			state = placeHasBeenParsed
		}
	}

	return match, match.PlaceName != ""
}

func fixLigatureCollisions(s string) string {
	for _, f := range ligatureCollisionFixes {
		s = strings.ReplaceAll(s, f.from, f.to)
	}
	return s
}

// GettyHierarchy is the {continent, country, state, county} breakdown of a
// Getty hierarchy string.
type GettyHierarchy struct {
	Continent string
	Country   string
	State     string
	County    string
}

// ParseGettyHierarchy splits a hierarchy string like
// "World, North and Central America, United States, California, Los
// Angeles" into its depth-2..5 components.
func ParseGettyHierarchy(hierarchy string) GettyHierarchy {
	parts := strings.Split(hierarchy, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var h GettyHierarchy
	// depth 0 is always "World"; depths 1..4 map to continent..county.
	get := func(depth int) string {
		if depth < len(parts) {
			return parts[depth]
		}
		return ""
	}
	h.Continent = get(1)
	h.Country = get(2)
	h.State = get(3)
	h.County = get(4)
	return h
}

// GettyPlaceType maps a Getty place-type keyword to the core's X.YYYY tag.
func GettyPlaceType(keyword string) string {
	k := strings.ToLower(keyword)
	switch {
	case strings.Contains(k, "cape"):
		return "T.CAPE"
	case strings.Contains(k, "park"):
		return "L.PRK"
	case strings.Contains(k, "peak"):
		return "T.PK"
	case strings.Contains(k, "county"):
		return "A.ADM2"
	case strings.Contains(k, "atoll"), strings.Contains(k, "island"):
		return "T.ISL"
	case strings.Contains(k, "mountain"):
		return "T.MT"
	case strings.Contains(k, "dependent state"), strings.Contains(k, "nation"):
		return "A.ADM0"
	case strings.Contains(k, "province"), strings.Contains(k, "state"):
		return "A.ADM1"
	default:
		return "P.PPL"
	}
}

// secondaryLatLongRe extracts "Lat: 34.05 Long: -118.24"-shaped text from a
// full Getty record page.
var secondaryLatLongRe = regexp.MustCompile(`(?i)Lat:\s*(-?\d+(?:\.\d+)?).{0,40}?Long:\s*(-?\d+(?:\.\d+)?)`)

// ParseGettySecondaryLatLong extracts the decimal lat/long from a full
// record page fetched in the Getty secondary phase.
func ParseGettySecondaryLatLong(body string) (lat, lon float64, ok bool) {
	m := secondaryLatLongRe.FindStringSubmatch(body)
	if m == nil {
		return 0, 0, false
	}
	latF, err1 := strconv.ParseFloat(m[1], 64)
	lonF, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return latF, lonF, true
}

// secondaryPlaceTypeRe extracts the place-type keyword line, typically
// "Types: inhabited place" or "Types: peak".
var secondaryPlaceTypeRe = regexp.MustCompile(`(?i)Types?:\s*([A-Za-z \-]+)`)

// ParseGettySecondaryPlaceType extracts the place-type keyword from a full
// record page.
func ParseGettySecondaryPlaceType(body string) (string, bool) {
	m := secondaryPlaceTypeRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
