package remote

import "testing"

func TestProcessPlaceNamesRejectsApartments(t *testing.T) {
	pn := ProcessPlaceNames("Sunset Apartments", "", "", "", false, nil)
	if !pn.Rejected {
		t.Error("expected an apartment-complex name to be rejected")
	}
}

func TestProcessPlaceNamesRejectsNumericSuffix(t *testing.T) {
	pn := ProcessPlaceNames("Ward 3", "", "", "", false, nil)
	if !pn.Rejected {
		t.Error("expected a numeric-suffixed name to be rejected")
	}
}

func TestProcessPlaceNamesRearrangesComma(t *testing.T) {
	pn := ProcessPlaceNames("Washington, Lake", "", "", "", false, nil)
	if pn.Rejected {
		t.Fatal("did not expect rejection")
	}
	if pn.City != "Lake Washington" {
		t.Errorf("City = %q, want %q", pn.City, "Lake Washington")
	}
	if pn.Variant != "Washington, Lake" {
		t.Errorf("Variant = %q, want original raw form", pn.Variant)
	}
}

func TestProcessPlaceNamesDecodesEntities(t *testing.T) {
	pn := ProcessPlaceNames("M&amp;uuml;nchen", "", "", "", true, nil)
	if pn.Rejected {
		t.Fatal("did not expect rejection")
	}
	if pn.City == "M&amp;uuml;nchen" {
		t.Error("expected HTML entities to be decoded when decodeEntities is true")
	}
}

func TestCleanAdminSuffixStripsPrefixesAndSuffixes(t *testing.T) {
	cases := []struct{ in, want string }{
		{"County of Sangamon", "Sangamon"},
		{"Provincia de Madrid", "Madrid"},
		{"Normandy Region", "Normandy"},
		{"Hokkaido Prefecture", "Hokkaido"},
	}
	for _, c := range cases {
		if got := cleanAdminSuffix(c.in); got != c.want {
			t.Errorf("cleanAdminSuffix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStandardizeShortCountyNameIrregulars(t *testing.T) {
	if got := StandardizeShortCountyName("dekalb"); got != "DeKalb" {
		t.Errorf("got %q, want DeKalb", got)
	}
	if got := StandardizeShortCountyName("DESOTO"); got != "DeSoto" {
		t.Errorf("got %q, want DeSoto", got)
	}
}

func TestStandardizeShortCountyNameMcPrefix(t *testing.T) {
	if got := StandardizeShortCountyName("mchenry"); got != "McHenry" {
		t.Errorf("got %q, want McHenry", got)
	}
}

func TestStandardizeShortCountyNameTitleCase(t *testing.T) {
	if got := StandardizeShortCountyName("sangamon"); got != "Sangamon" {
		t.Errorf("got %q, want Sangamon", got)
	}
}

func TestAdjustUSCountyNameLouisianaParish(t *testing.T) {
	if got := AdjustUSCountyName("Orleans", "LA"); got != "Orleans Parish" {
		t.Errorf("got %q, want Orleans Parish", got)
	}
}

func TestAdjustUSCountyNameAlaskaCensusArea(t *testing.T) {
	if got := AdjustUSCountyName("Bethel", "AK"); got != "Bethel Census Area" {
		t.Errorf("got %q, want Bethel Census Area", got)
	}
}

func TestAdjustUSCountyNameAlaskaBorough(t *testing.T) {
	if got := AdjustUSCountyName("Denali", "AK"); got != "Denali Borough" {
		t.Errorf("got %q, want Denali Borough", got)
	}
}

func TestAdjustUSCountyNameDefaultCounty(t *testing.T) {
	if got := AdjustUSCountyName("Sangamon", "IL"); got != "Sangamon County" {
		t.Errorf("got %q, want Sangamon County", got)
	}
}

func TestAdjustUSCountyNameEmptyStaysEmpty(t *testing.T) {
	if got := AdjustUSCountyName("", "IL"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
