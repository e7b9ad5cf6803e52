package merge

import (
	"sort"
	"strings"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
)

const sameSiteDistanceKm = 10.0

// Options configures a Merge call.
type Options struct {
	Gazetteer *gazetteer.Gazetteer
	// Limit caps the result: the flattened, key-ordered list is cut to
	// Limit+1 entries before sorting, and the sorted list is then cut to
	// Limit with Result.LimitReached set when more than Limit survived.
	// Zero or less means no limit.
	Limit int
}

// Result is the outcome of a Merge/dedup pass.
type Result struct {
	Locations    []*atlastype.Location
	LimitReached bool
	// Conflicts carries one line per same-site state/county conflict
	// detected during dedup.
	Conflicts []string
}

// Merge unions every source LocationMap, buckets the combined set by
// MakeLocationKey (collapsing keys that differ only by a trailing "(n)"),
// pairwise-reconciles each bucket, flattens in key-sorted order, truncates
// to Limit+1, sorts by the SearchResult order (rank desc, displayName
// asc), and finally truncates to Limit, setting LimitReached if anything
// was cut.
//
// Merge is idempotent: running it again over its own output (wrapped in a
// single-source LocationMap) reconciles nothing further, since every
// surviving pair in a bucket already satisfies one of the non-collapsible
// conditions.
func Merge(sources []atlastype.LocationMap, opt Options) Result {
	buckets := map[string][]*atlastype.Location{}
	for _, src := range sources {
		for _, loc := range src.Locations() {
			key := CanonicalKey(MakeLocationKey(loc))
			buckets[key] = append(buckets[key], loc)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conflicts []string
	var flattened []*atlastype.Location

	for _, k := range keys {
		bucket := buckets[k]
		alive := make([]bool, len(bucket))
		for i := range alive {
			alive[i] = true
		}

		for i := 0; i < len(bucket); i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < len(bucket); j++ {
				if !alive[j] {
					continue
				}
				outcome := reconcile(bucket[i], bucket[j], opt.Gazetteer)
				if outcome.conflict != "" {
					conflicts = append(conflicts, outcome.conflict)
				}
				if outcome.keepBoth {
					continue
				}
				if outcome.survivorIsFirst {
					alive[j] = false
				} else {
					// The survivor takes i's slot so the outer loop keeps
					// comparing from the survivor.
					bucket[i], bucket[j] = bucket[j], bucket[i]
					alive[j] = false
				}
			}
		}

		for i, ok := range alive {
			if ok {
				flattened = append(flattened, bucket[i])
			}
		}
	}

	res := Result{Locations: flattened, Conflicts: conflicts}

	limit := opt.Limit
	if limit > 0 && len(res.Locations) > limit+1 {
		res.Locations = res.Locations[:limit+1]
	}

	sr := &atlastype.SearchResult{Matches: res.Locations}
	sr.SortMatches()
	res.Locations = sr.Matches

	if limit > 0 && len(res.Locations) > limit {
		res.Locations = res.Locations[:limit]
		res.LimitReached = true
	}

	return res
}

type reconcileOutcome struct {
	survivorIsFirst bool
	keepBoth        bool
	conflict        string
}

// reconcile implements the pairwise dedup rules for a single pair. a is
// always treated as "first" for outcome.survivorIsFirst.
func reconcile(a, b *atlastype.Location, g *gazetteer.Gazetteer) reconcileOutcome {
	// Zone ambiguity fix-up is a side effect, independent of which
	// location ultimately survives.
	fixZoneAmbiguity(a, b)

	// Same remote identity.
	if a.GeonameID != 0 && b.GeonameID != 0 && a.GeonameID == b.GeonameID {
		survivorIsA := applySameIdentity(a, b)
		return reconcileOutcome{survivorIsFirst: survivorIsA}
	}

	dist := a.DistanceKm(b)

	// Peak vs. mountain at the same site.
	if dist < sameSiteDistanceKm {
		if a.PlaceType == "T.PK" && b.PlaceType == "T.MT" {
			return reconcileOutcome{survivorIsFirst: true}
		}
		if b.PlaceType == "T.PK" && a.PlaceType == "T.MT" {
			return reconcileOutcome{survivorIsFirst: false}
		}
	}

	// Place-type fusion; different, non-fusible types both survive.
	if !sameFusedType(a.PlaceType, b.PlaceType) {
		return reconcileOutcome{keepBoth: true}
	}
	upgradeGenericPPL(a, b)

	// Different states.
	if !strings.EqualFold(a.State, b.State) && (a.State != "" || b.State != "") {
		outcome := reconcileDiffering(a, b, a.State != "", b.State != "",
			func(l *atlastype.Location) { l.ShowState = true })
		if dist < sameSiteDistanceKm {
			outcome.conflict = "conflicting state for " + a.City + ": " + a.State + " vs " + b.State
		}
		return outcome
	}

	// Different counties (symmetric to the state rule).
	if !strings.EqualFold(a.County, b.County) && (a.County != "" || b.County != "") {
		outcome := reconcileDiffering(a, b, a.County != "", b.County != "",
			func(l *atlastype.Location) { l.ShowCounty = true })
		return outcome
	}

	// Generic tiebreak.
	return reconcileOutcome{survivorIsFirst: genericTiebreak(a, b)}
}

// sameFusedType treats A.ADM* and P.PPL* at the same site as the same type.
func sameFusedType(pt1, pt2 string) bool {
	if pt1 == pt2 {
		return true
	}
	fam := func(pt string) string {
		switch {
		case strings.HasPrefix(pt, "A.ADM"):
			return "site"
		case strings.HasPrefix(pt, "P.PPL"):
			return "site"
		default:
			return pt
		}
	}
	return fam(pt1) == fam(pt2) && fam(pt1) == "site"
}

// upgradeGenericPPL lets a generic P.PPL upgrade to the more specific P.PPLx
// its bucket-mate carries.
func upgradeGenericPPL(a, b *atlastype.Location) {
	if a.PlaceType == "P.PPL" && strings.HasPrefix(b.PlaceType, "P.PPL") && b.PlaceType != "P.PPL" {
		a.PlaceType = b.PlaceType
	}
	if b.PlaceType == "P.PPL" && strings.HasPrefix(a.PlaceType, "P.PPL") && a.PlaceType != "P.PPL" {
		b.PlaceType = a.PlaceType
	}
}

// fixZoneAmbiguity: if the two sites are within 10km and one zone is
// ambiguous while the other is not, copy the confident zone onto the
// ambiguous one.
func fixZoneAmbiguity(a, b *atlastype.Location) {
	if a.DistanceKm(b) >= sameSiteDistanceKm {
		return
	}
	if a.ZoneIsAmbiguous() && !b.ZoneIsAmbiguous() && b.Zone != "" {
		a.Zone = b.Zone
	} else if b.ZoneIsAmbiguous() && !a.ZoneIsAmbiguous() && a.Zone != "" {
		b.Zone = a.Zone
	}
}

// applySameIdentity handles two locations sharing a GeonameID, returning
// true if a is the surviving (lower-source) location.
func applySameIdentity(a, b *atlastype.Location) (survivorIsA bool) {
	lo, hi := a, b
	if b.Source < a.Source {
		lo, hi = b, a
	}
	if hi.Rank > lo.Rank {
		lo.Rank = hi.Rank
	}
	if lo.Zip == "" && hi.Zip != "" {
		lo.Zip = hi.Zip
	}
	closeMatch := lo.IsCloseMatch(hi)
	lo.UseAsUpdate = !closeMatch
	// The survivor keeps the lower source as its identity but its Source
	// field is overwritten with the newer value, so a later pass sees the
	// freshened source.
	lo.Source = hi.Source
	return lo == a
}

// reconcileDiffering implements the shared shape of the state/county rules:
// keep the only-populated side; if both are populated, keep the
// higher-ranked side, or both (with the show-flag set) on a tie.
func reconcileDiffering(a, b *atlastype.Location, aPopulated, bPopulated bool, setShow func(*atlastype.Location)) reconcileOutcome {
	if aPopulated && bPopulated {
		if a.Rank == b.Rank {
			setShow(a)
			setShow(b)
			return reconcileOutcome{keepBoth: true}
		}
		return reconcileOutcome{survivorIsFirst: a.Rank > b.Rank}
	}
	if aPopulated {
		return reconcileOutcome{survivorIsFirst: true}
	}
	if bPopulated {
		return reconcileOutcome{survivorIsFirst: false}
	}
	return reconcileOutcome{survivorIsFirst: genericTiebreak(a, b)}
}

// genericTiebreak is the final fallback rule.
func genericTiebreak(a, b *atlastype.Location) (survivorIsA bool) {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	if (a.Zip != "") != (b.Zip != "") {
		return a.Zip != ""
	}
	aLocal, bLocal := !a.IsRemote(), !b.IsRemote()
	if aLocal != bLocal {
		if aLocal {
			if b.Rank > a.Rank {
				a.Rank = b.Rank
			}
			return true
		}
		if a.Rank > b.Rank {
			b.Rank = a.Rank
		}
		return false
	}
	return true
}
