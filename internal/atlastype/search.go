package atlastype

import "sort"

// ParseMode selects how strict the query parser is about splitting a
// trailing state/country token off the city.
type ParseMode int

const (
	// ParseStrict never pulls a trailing token off the city.
	ParseStrict ParseMode = iota
	// ParseLoose attempts to recover a trailing two/three-letter
	// state/country token (legacy clients, version < 3).
	ParseLoose
)

// ParsedSearchString is the normalized form of a free-form query.
type ParsedSearchString struct {
	PostalCode  string
	TargetCity  string
	TargetState string

	// ActualSearch is the original raw query, lightly trimmed.
	ActualSearch string
	// NormalizedSearch is the cache/log key.
	NormalizedSearch string
}

// RemoteMode selects which remote sources (if any) the orchestrator may
// consult.
type RemoteMode string

const (
	RemoteSkip     RemoteMode = "skip"
	RemoteNormal   RemoteMode = "normal"
	RemoteExtend   RemoteMode = "extend"
	RemoteForced   RemoteMode = "forced"
	RemoteOnly     RemoteMode = "only"
	RemoteGeoNames RemoteMode = "geonames"
	RemoteGetty    RemoteMode = "getty"
)

// SearchResult is the response payload for one search request.
type SearchResult struct {
	OriginalSearch   string
	NormalizedSearch string
	TimeMs           int64
	LimitReached     bool
	Matches          []*Location

	Error    string
	Warnings []string
	Infos    []string
}

// SortMatches orders Matches by descending rank, then ascending display
// name.
func (r *SearchResult) SortMatches() {
	sort.SliceStable(r.Matches, func(i, j int) bool {
		a, b := r.Matches[i], r.Matches[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		return a.DisplayName() < b.DisplayName()
	})
}

// AddWarning appends a warning line.
func (r *SearchResult) AddWarning(w string) {
	if w == "" {
		return
	}
	r.Warnings = append(r.Warnings, w)
}

// AddInfo appends an info/metrics line.
func (r *SearchResult) AddInfo(i string) {
	if i == "" {
		return
	}
	r.Infos = append(r.Infos, i)
}
