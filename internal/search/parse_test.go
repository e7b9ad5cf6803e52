package search

import (
	"testing"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
)

func TestParseSearchStringCityOnly(t *testing.T) {
	p := ParseSearchString("Springfield", atlastype.ParseStrict, nil)
	if p.TargetCity != "SPRINGFIELD" {
		t.Errorf("TargetCity = %q, want SPRINGFIELD", p.TargetCity)
	}
	if p.TargetState != "" {
		t.Errorf("TargetState = %q, want empty", p.TargetState)
	}
}

func TestParseSearchStringCityState(t *testing.T) {
	p := ParseSearchString("Springfield, IL", atlastype.ParseStrict, nil)
	if p.TargetCity != "SPRINGFIELD" || p.TargetState != "IL" {
		t.Errorf("got city=%q state=%q, want SPRINGFIELD, IL", p.TargetCity, p.TargetState)
	}
}

func TestParseSearchStringCityStateCountry(t *testing.T) {
	p := ParseSearchString("Springfield, IL, USA", atlastype.ParseStrict, nil)
	if p.TargetState != "USA" {
		t.Errorf("TargetState = %q, want the trailing country token (USA)", p.TargetState)
	}
}

func TestParseSearchStringPostalCode(t *testing.T) {
	p := ParseSearchString("62701", atlastype.ParseStrict, nil)
	if p.PostalCode != "62701" {
		t.Errorf("PostalCode = %q, want 62701", p.PostalCode)
	}
	if p.TargetCity != "" {
		t.Errorf("TargetCity = %q, want empty when query is all postal code", p.TargetCity)
	}
}

func TestParseSearchStringPostalCodeWithCity(t *testing.T) {
	p := ParseSearchString("Springfield 62701", atlastype.ParseStrict, nil)
	if p.PostalCode != "62701" {
		t.Errorf("PostalCode = %q, want 62701", p.PostalCode)
	}
	if p.TargetCity == "" {
		t.Error("expected TargetCity to retain the non-postal token")
	}
}

func TestParseSearchStringLoosePullsTrailingState(t *testing.T) {
	g := testGazetteerWithCA(t)
	p := ParseSearchString("Los Angeles CA", atlastype.ParseLoose, g)
	if p.TargetState != "CA" {
		t.Errorf("TargetState = %q, want CA pulled from the trailing token", p.TargetState)
	}
}

func TestParseSearchStringStrictDoesNotPullTrailingState(t *testing.T) {
	g := testGazetteerWithCA(t)
	p := ParseSearchString("Los Angeles CA", atlastype.ParseStrict, g)
	if p.TargetState == "CA" {
		t.Error("strict mode should not split a trailing state token off the city")
	}
}

func TestNormalizedSearch(t *testing.T) {
	cases := []struct {
		p    atlastype.ParsedSearchString
		want string
	}{
		{atlastype.ParsedSearchString{TargetCity: "SPRINGFIELD"}, "SPRINGFIELD"},
		{atlastype.ParsedSearchString{TargetCity: "SPRINGFIELD", TargetState: "IL"}, "SPRINGFIELD, IL"},
		{atlastype.ParsedSearchString{PostalCode: "62701"}, "62701"},
		{atlastype.ParsedSearchString{PostalCode: "62701", TargetCity: "SPRINGFIELD"}, "SPRINGFIELD, 62701"},
	}
	for _, c := range cases {
		if got := NormalizedSearch(c.p); got != c.want {
			t.Errorf("NormalizedSearch(%+v) = %q, want %q", c.p, got, c.want)
		}
	}
}

func testGazetteerWithCA(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	s := gazetteer.NewStore(t.TempDir())
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return s.Current()
}
