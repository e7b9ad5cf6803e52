package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"atlas/internal/normalize"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile(%s): %v", name, err)
	}
}

func TestBuildFromDirMissingFilesAreOptional(t *testing.T) {
	dir := t.TempDir()
	g, err := buildFromDir(dir)
	if err != nil {
		t.Fatalf("buildFromDir with no data files: %v", err)
	}
	if !g.IsUSCounty(normalize.Simplify("Washington, DC", false)) {
		t.Error("expected Washington, DC to be seeded as a US county even without us_counties.txt")
	}
}

func TestCountryCodesParsing(t *testing.T) {
	dir := t.TempDir()
	// Fixed-column layout: name[0,47) code2[48,50) oldCode2[51,53)
	// code3[56,59) flag[59] altforms[76:].
	line := "France                                          FR US   FRAX                Republique Francaise    "
	writeFile(t, dir, "country_codes.txt", line+"\n")

	g, err := buildFromDir(dir)
	if err != nil {
		t.Fatalf("buildFromDir: %v", err)
	}
	c, ok := g.CountryByCode3("FRA")
	if !ok {
		t.Fatal("expected FRA to be registered")
	}
	if c.Code2 != "FR" {
		t.Errorf("c.Code2 = %q, want FR", c.Code2)
	}
}

func TestCelestialLoading(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "celestial.txt", "Mars\nVenus\n")
	g, err := buildFromDir(dir)
	if err != nil {
		t.Fatalf("buildFromDir: %v", err)
	}
	if !g.IsCelestial(normalize.Simplify("Mars", false)) {
		t.Error("expected Mars to be flagged celestial")
	}
	if g.IsCelestial(normalize.Simplify("Springfield", false)) {
		t.Error("did not expect Springfield to be flagged celestial")
	}
}

func TestStateAbbrevRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g, err := buildFromDir(dir)
	if err != nil {
		t.Fatalf("buildFromDir: %v", err)
	}
	long, ok := g.StateLongName("CA")
	if !ok || long != "California" {
		t.Errorf("StateLongName(CA) = %q, %v, want California, true", long, ok)
	}
	abbr, ok := g.StateAbbrev(normalize.Simplify("California", false))
	if !ok || abbr != "CA" {
		t.Errorf("StateAbbrev(California) = %q, %v, want CA, true", abbr, ok)
	}
}

func TestStoreCurrentPanicsBeforeReload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Current to panic before first Reload")
		}
	}()
	s := NewStore(t.TempDir())
	s.Current()
}

func TestStoreReloadThenCurrent(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Current() == nil {
		t.Fatal("expected a non-nil Gazetteer after Reload")
	}
}
