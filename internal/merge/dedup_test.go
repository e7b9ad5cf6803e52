package merge

import (
	"testing"

	"atlas/internal/atlastype"
)

func TestMergeDedupsSameGeonameID(t *testing.T) {
	a := &atlastype.Location{City: "Springfield", State: "IL", Country: "USA", GeonameID: 42, Source: atlastype.SourceGeoNamesGeneral, Rank: 1}
	b := &atlastype.Location{City: "Springfield", State: "IL", Country: "USA", GeonameID: 42, Source: 0, Rank: 2, Zip: "62701"}

	res := Merge([]atlastype.LocationMap{{"a": a, "b": b}}, Options{})
	if len(res.Locations) != 1 {
		t.Fatalf("expected 1 surviving location, got %d", len(res.Locations))
	}
	survivor := res.Locations[0]
	if survivor.Rank != 2 {
		t.Errorf("survivor.Rank = %d, want 2 (higher rank copied across)", survivor.Rank)
	}
	if survivor.Zip != "62701" {
		t.Errorf("survivor.Zip = %q, want inherited zip", survivor.Zip)
	}
}

func TestMergeKeepsBothOnDifferentPlaceType(t *testing.T) {
	a := &atlastype.Location{City: "Hudson", State: "NY", Country: "USA", PlaceType: "T.MT", Latitude: 42.0, Longitude: -74.0}
	b := &atlastype.Location{City: "Hudson", State: "NY", Country: "USA", PlaceType: "H.STM", Latitude: 42.0, Longitude: -74.0}

	res := Merge([]atlastype.LocationMap{{"a": a, "b": b}}, Options{})
	if len(res.Locations) != 2 {
		t.Fatalf("expected both locations to survive, got %d", len(res.Locations))
	}
}

func TestMergePeakVsMountainSameSite(t *testing.T) {
	peak := &atlastype.Location{City: "Rainier", State: "WA", Country: "USA", PlaceType: "T.PK", Latitude: 46.85, Longitude: -121.76}
	mountain := &atlastype.Location{City: "Rainier", State: "WA", Country: "USA", PlaceType: "T.MT", Latitude: 46.85, Longitude: -121.76}

	res := Merge([]atlastype.LocationMap{{"peak": peak, "mt": mountain}}, Options{})
	if len(res.Locations) != 1 {
		t.Fatalf("expected peak to win over mountain at same site, got %d results", len(res.Locations))
	}
	if res.Locations[0].PlaceType != "T.PK" {
		t.Errorf("survivor.PlaceType = %q, want T.PK", res.Locations[0].PlaceType)
	}
}

func TestMergeDifferingStatesSameRankBucketSeparately(t *testing.T) {
	a := &atlastype.Location{City: "Kansas City", State: "MO", Country: "USA", Rank: 5, Latitude: 39.1, Longitude: -94.6}
	b := &atlastype.Location{City: "Kansas City", State: "KS", Country: "USA", Rank: 5, Latitude: 39.1, Longitude: -94.6}

	// Different buckets by MakeLocationKey (state differs) so force them
	// into the same bucket by supplying them as a single pre-bucketed
	// source isn't representative; instead exercise reconcile via equal
	// keys is impossible here. This test documents that differing-state
	// locations bucket separately and both survive untouched.
	res := Merge([]atlastype.LocationMap{{"a": a, "b": b}}, Options{})
	if len(res.Locations) != 2 {
		t.Fatalf("expected both MO and KS entries to survive as separate buckets, got %d", len(res.Locations))
	}
}

func TestMergeLimitReached(t *testing.T) {
	sources := atlastype.LocationMap{}
	for i := 0; i < 5; i++ {
		city := string(rune('A' + i))
		sources[city] = &atlastype.Location{City: city, State: "NY", Country: "USA", Rank: i}
	}
	res := Merge([]atlastype.LocationMap{sources}, Options{Limit: 2})
	if !res.LimitReached {
		t.Error("expected LimitReached to be true")
	}
	if len(res.Locations) != 2 {
		t.Errorf("len(res.Locations) = %d, want 2", len(res.Locations))
	}
}

func TestMergeSortsByRankDescThenName(t *testing.T) {
	sources := atlastype.LocationMap{
		"a": {City: "Zion", State: "IL", Country: "USA", Rank: 1},
		"b": {City: "Albany", State: "NY", Country: "USA", Rank: 3},
		"c": {City: "Boston", State: "MA", Country: "USA", Rank: 3},
	}
	res := Merge([]atlastype.LocationMap{sources}, Options{})
	if len(res.Locations) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(res.Locations))
	}
	if res.Locations[0].City != "Albany" || res.Locations[1].City != "Boston" || res.Locations[2].City != "Zion" {
		t.Errorf("unexpected sort order: %v", []string{res.Locations[0].City, res.Locations[1].City, res.Locations[2].City})
	}
}
