// Package atlas implements the search orchestrator: it sequences the query
// parser, local DB search, remote adapters, merge/dedup, writeback and
// search log into the single ranked SearchResult the HTTP handler
// serializes.
package atlas

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"atlas/internal/alog"
	"atlas/internal/atlastype"
	"atlas/internal/db"
	"atlas/internal/gazetteer"
	"atlas/internal/merge"
	"atlas/internal/normalize"
	"atlas/internal/remote"
	"atlas/internal/search"
)

// gazetteerMaxAge is how long the gazetteer store goes before the
// orchestrator attempts a best-effort re-init.
const gazetteerMaxAge = 24 * time.Hour

const fuzzySuggestDistance = 2

// Request carries the parsed query parameters of one /atlas/ call.
type Request struct {
	Query      string
	Version    int
	RemoteMode atlastype.RemoteMode
	Limit      int
	NoTrace    bool
}

// Orchestrator wires the gazetteer store, the local DB store, and the two
// remote adapters into the single Search entry point.
type Orchestrator struct {
	Gazetteer *gazetteer.Store
	DB        *db.Store
	Remotes   *remote.Registry

	lastGazetteerReload time.Time
}

// New builds an Orchestrator. Adapters are looked up from registry by name
// ("geonames", "getty").
func New(g *gazetteer.Store, store *db.Store, registry *remote.Registry) *Orchestrator {
	// The caller is expected to have already done the first, fatal-on-error
	// Reload before serving; start the 24h clock from here so step 3 doesn't
	// immediately re-init on the very first search.
	return &Orchestrator{Gazetteer: g, DB: store, Remotes: registry, lastGazetteerReload: time.Now()}
}

// Search runs the full 11-step pipeline.
func (o *Orchestrator) Search(ctx context.Context, req Request) *atlastype.SearchResult {
	start := time.Now()
	gz := o.Gazetteer.Current()

	// Step 1: parse.
	mode := atlastype.ParseStrict
	if req.Version < 3 {
		mode = atlastype.ParseLoose
	}
	parsed := search.ParseSearchString(req.Query, mode, gz)

	result := &atlastype.SearchResult{
		OriginalSearch:   req.Query,
		NormalizedSearch: parsed.NormalizedSearch,
	}

	// Step 2: decide whether remotes should be consulted.
	recent := false
	if o.DB != nil {
		var err error
		recent, err = o.DB.HasSearchBeenDoneRecently(ctx, parsed.NormalizedSearch, req.RemoteMode == atlastype.RemoteExtend)
		if err != nil {
			alog.Warnf("search log lookup failed: %v", err)
		}
	}
	forceRemoteModes := map[atlastype.RemoteMode]bool{
		atlastype.RemoteForced:   true,
		atlastype.RemoteOnly:     true,
		atlastype.RemoteGeoNames: true,
		atlastype.RemoteGetty:    true,
	}
	consultRemote := forceRemoteModes[req.RemoteMode] ||
		(req.RemoteMode != atlastype.RemoteSkip && !recent)

	// Step 3: best-effort gazetteer re-init.
	o.maybeReloadGazetteer()
	gz = o.Gazetteer.Current()

	// Step 4: local search, unless restricted to a single remote source.
	skipLocal := req.RemoteMode == atlastype.RemoteOnly ||
		req.RemoteMode == atlastype.RemoteGeoNames ||
		req.RemoteMode == atlastype.RemoteGetty

	var localLocs atlastype.LocationMap
	var dbErr error
	if !skipLocal && o.DB != nil {
		extended := req.RemoteMode == atlastype.RemoteExtend || req.RemoteMode == atlastype.RemoteForced
		localLocs, dbErr = o.DB.Search(ctx, parsed, extended, maxInt(req.Limit, 1), gz)
		if dbErr != nil {
			result.Error = dbErr.Error()
		}
	}

	// Step 5: detect "db matched only by sound".
	dbMatchedOnlyBySound := false
	if len(localLocs) > 0 {
		dbMatchedOnlyBySound = true
		for _, l := range localLocs {
			if !l.MatchedBySound {
				dbMatchedOnlyBySound = false
				break
			}
		}
	}

	// Step 6: remote adapters.
	var remoteResults map[string]remote.AdapterResult
	var remoteSources []atlastype.LocationMap
	haveRemoteResult := false

	if consultRemote && o.Remotes != nil {
		names := remoteAdapterNames(req.RemoteMode, parsed.PostalCode != "")
		remoteResults = o.Remotes.SearchAll(ctx, names, remote.Request{
			TargetCity:  parsed.TargetCity,
			TargetState: parsed.TargetState,
			PostalCode:  parsed.PostalCode,
			NoTrace:     req.NoTrace,
		})
		for _, name := range names {
			locs := remoteResults[name].Locations
			if len(locs) > 0 {
				haveRemoteResult = true
				remoteSources = append(remoteSources, locs)
			}
		}
	}

	if haveRemoteResult && dbMatchedOnlyBySound {
		localLocs = nil
	}

	// Step 7: merge, dedup, truncate.
	sources := remoteSources
	if len(localLocs) > 0 {
		sources = append([]atlastype.LocationMap{localLocs}, sources...)
	}
	merged := merge.Merge(sources, merge.Options{Gazetteer: gz, Limit: req.Limit})
	result.Matches = merged.Locations
	result.LimitReached = merged.LimitReached
	enrichDisplayFields(result.Matches, gz)

	// Step 8: info/warning lines.
	for _, name := range sortedMetricNames(remoteResults) {
		m := remoteResults[name].Metrics
		result.AddInfo(fmt.Sprintf("%s: %d matches in %s", name, m.Count, m.Elapsed))
		if m.Err != nil {
			result.AddWarning(atlastype.SupplementaryDataUnavailable)
		}
	}
	for _, c := range merged.Conflicts {
		result.AddWarning(c)
	}
	if gz.IsCelestial(normalize.Simplify(parsed.TargetCity, false)) {
		cityText := strings.TrimSpace(strings.SplitN(parsed.ActualSearch, ",", 2)[0])
		result.AddWarning("\"" + cityText + "\" looks like a celestial object name, not a place.")
	}
	result.AddWarning(suggestionWarning(parsed.ActualSearch, result.Matches, gz))

	// Step 9: writeback.
	if o.DB != nil && dbErr == nil && !req.NoTrace {
		if err := o.DB.WriteBack(ctx, result.Matches); err != nil {
			alog.Warnf("writeback failed: %v", err)
		}
	}

	// Step 10: log.
	result.TimeMs = time.Since(start).Milliseconds()
	if o.DB != nil {
		if err := o.DB.LogSearchResults(ctx, parsed.NormalizedSearch,
			req.RemoteMode == atlastype.RemoteExtend || req.RemoteMode == atlastype.RemoteForced,
			1, len(result.Matches)); err != nil {
			alog.Warnf("search log write failed: %v", err)
		}
	}

	return result
}

// enrichDisplayFields fills longCountry and flagCode, the two display-layer
// fields local/remote search never populate themselves.
func enrichDisplayFields(matches []*atlastype.Location, gz *gazetteer.Gazetteer) {
	if gz == nil {
		return
	}
	for _, m := range matches {
		c, ok := gz.CountryByCode3(m.Country)
		if !ok {
			continue
		}
		m.LongCountry = c.Name
		code := strings.ToLower(c.Code2)
		if code != "" && gz.HasFlag(code) {
			m.FlagCode = code
		}
	}
}

func (o *Orchestrator) maybeReloadGazetteer() {
	if o.Gazetteer == nil {
		return
	}
	if !o.lastGazetteerReload.IsZero() && time.Since(o.lastGazetteerReload) < gazetteerMaxAge {
		return
	}
	if err := o.Gazetteer.Reload(); err != nil {
		alog.Warnf("gazetteer re-init failed, keeping previous dictionaries: %v", err)
		return
	}
	o.lastGazetteerReload = time.Now()
}

func remoteAdapterNames(mode atlastype.RemoteMode, isPostal bool) []string {
	switch mode {
	case atlastype.RemoteGeoNames:
		return []string{"geonames"}
	case atlastype.RemoteGetty:
		return []string{"getty"}
	default:
		if isPostal {
			return []string{"geonames"}
		}
		return []string{"geonames", "getty"}
	}
}

func sortedMetricNames(m map[string]remote.AdapterResult) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Two adapters at most; a fixed preferred order reads better than a sort.
	preferred := []string{"geonames", "getty"}
	ordered := make([]string, 0, len(out))
	seen := map[string]bool{}
	for _, p := range preferred {
		if _, ok := m[p]; ok {
			ordered = append(ordered, p)
			seen[p] = true
		}
	}
	for _, k := range out {
		if !seen[k] {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var (
	periodForCommaRe    = regexp.MustCompile(`\.\s`)
	abbrevWithPeriodsRe = regexp.MustCompile(`\b([A-Za-z]\.){2,}`)
	strayPunctRe        = regexp.MustCompile(`[!?;:]`)
)

// suggestionWarning implements the "did you mean" family of heuristics:
// punctuation that usually signals a malformed query, a fuzzy-match nudge
// toward the first result whose city is within fuzzySuggestDistance edits
// of the searched city without being the same name, and (when there are no
// surviving results at all and the query has no comma) a glued city/state
// split a strict parse would have missed, e.g. "NashuaNH" -> "Nashua, NH".
func suggestionWarning(original string, matches []*atlastype.Location, gz *gazetteer.Gazetteer) string {
	switch {
	case periodForCommaRe.MatchString(original):
		return "tip: use a comma, not a period, to separate city and state."
	case abbrevWithPeriodsRe.MatchString(original):
		return "tip: state/country abbreviations don't need periods."
	case strayPunctRe.MatchString(original):
		return "tip: remove stray punctuation from the search."
	case strings.Count(original, ",") > 2:
		return "tip: too much information in one search; try just city and state."
	}

	if len(matches) == 0 {
		if strings.Contains(original, ",") {
			return ""
		}
		if city, state, ok := search.SplitGluedCityState(original, gz); ok {
			return "did you mean \"" + city + ", " + state + "\"?"
		}
		return ""
	}
	city := strings.SplitN(original, ",", 2)[0]
	for _, m := range matches {
		if merge.FuzzyCloseMatchForCity(city, m.City, fuzzySuggestDistance) && !strings.EqualFold(city, m.City) {
			return "did you mean \"" + m.DisplayName() + "\"?"
		}
	}
	return ""
}
