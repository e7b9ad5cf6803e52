package remote

import "testing"

func TestClassifyGettyPage(t *testing.T) {
	cases := []struct {
		body string
		want GettyPageOutcome
	}{
		{"Your search has produced no results", GettyPageNoResults},
		{"Too many records matched your search", GettyPageTooMany},
		{"Invalid search syntax used", GettyPageInvalidSyntax},
		{"500 Internal Error: server error", GettyPageServerError},
		{"<html>some normal results page</html>", GettyPageOK},
	}
	for _, c := range cases {
		if got := ClassifyGettyPage(c.body); got != c.want {
			t.Errorf("ClassifyGettyPage(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

func TestParseGettyItemBlocks(t *testing.T) {
	body := `
	TGN: 7013964 <a href="/record.jsp?id=7013964">Springfield</a> (Sangamon, Illinois, United States, North and Central America, World)
	TGN: 7013965 <a href="/record.jsp?id=7013965">Springfield</a> also known as (Greene, Missouri, United States, North and Central America, World)
	`
	matches := ParseGettyItemBlocks(body)
	if len(matches) != 2 {
		t.Fatalf("expected 2 preliminary matches, got %d", len(matches))
	}
	if matches[0].ID != "7013964" {
		t.Errorf("matches[0].ID = %q, want 7013964", matches[0].ID)
	}
	if matches[0].PlaceName != "Springfield" {
		t.Errorf("matches[0].PlaceName = %q, want Springfield", matches[0].PlaceName)
	}
	if matches[0].IsAlternate {
		t.Error("matches[0] should not be flagged alternate")
	}
	if !matches[1].IsAlternate {
		t.Error("matches[1] should be flagged alternate (also known as)")
	}
}

func TestParseGettyHierarchy(t *testing.T) {
	h := ParseGettyHierarchy("World, North and Central America, United States, Illinois, Sangamon")
	if h.Continent != "North and Central America" {
		t.Errorf("Continent = %q", h.Continent)
	}
	if h.Country != "United States" {
		t.Errorf("Country = %q", h.Country)
	}
	if h.State != "Illinois" {
		t.Errorf("State = %q", h.State)
	}
	if h.County != "Sangamon" {
		t.Errorf("County = %q", h.County)
	}
}

func TestGettyPlaceType(t *testing.T) {
	cases := []struct{ keyword, want string }{
		{"inhabited place", "P.PPL"},
		{"peak", "T.PK"},
		{"county", "A.ADM2"},
		{"island", "T.ISL"},
		{"province", "A.ADM1"},
		{"nation", "A.ADM0"},
	}
	for _, c := range cases {
		if got := GettyPlaceType(c.keyword); got != c.want {
			t.Errorf("GettyPlaceType(%q) = %q, want %q", c.keyword, got, c.want)
		}
	}
}

func TestParseGettySecondaryLatLong(t *testing.T) {
	body := "Some preamble. Lat: 39.78 Long: -89.65 trailer."
	lat, lon, ok := ParseGettySecondaryLatLong(body)
	if !ok {
		t.Fatal("expected a lat/long match")
	}
	if lat != 39.78 || lon != -89.65 {
		t.Errorf("got lat=%v lon=%v, want 39.78, -89.65", lat, lon)
	}
}

func TestParseGettySecondaryPlaceType(t *testing.T) {
	kw, ok := ParseGettySecondaryPlaceType("Types: inhabited place")
	if !ok || kw != "inhabited place" {
		t.Errorf("got %q, %v, want %q, true", kw, ok, "inhabited place")
	}
}
