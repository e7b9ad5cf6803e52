// Package gazetteer holds the static, read-mostly dictionaries: country
// code tables, state tables, the US-county set, the celestial-object reject
// set, and the flag-image inventory. It is built once at startup (Reload)
// and may be rebuilt and atomically swapped by a background re-init.
package gazetteer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"atlas/internal/normalize"
)

// Country holds one row of country_codes.txt.
type Country struct {
	Name     string
	Code2    string
	OldCode2 string
	Code3    string
	Flag     byte
	AltForms []string
}

// Gazetteer is the immutable, read-only-after-build set of dictionaries.
type Gazetteer struct {
	byName    map[string]Country // simplified name -> Country
	byCode2   map[string]Country
	byOldCode2 map[string]Country
	byCode3   map[string]Country
	byAltForm map[string]Country

	stateLongToAbbrev map[string]string // "CALIFORNIA" -> "CA", keyed simplified
	stateAbbrevToLong map[string]string

	usCounties map[string]bool // "LOS ANGELES, CA" simplified
	celestial  map[string]bool
	flagCodes  map[string]bool
}

// Store holds the currently-live Gazetteer behind an atomic pointer so a
// re-init can swap in a freshly built one without taking a lock on the read
// path.
type Store struct {
	ptr atomic.Pointer[Gazetteer]
	dir string
}

// NewStore creates an uninitialized Store. Call Reload before Current is
// used.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Current returns the live Gazetteer. Callers must not use a Store before
// its first successful Reload; doing so is a programming error.
func (s *Store) Current() *Gazetteer {
	g := s.ptr.Load()
	if g == nil {
		panic("gazetteer: Current called before first Reload")
	}
	return g
}

// Reload rebuilds the dictionaries from disk and swaps them in. The first
// call's failure is fatal to the caller; subsequent failures should be
// logged and suppressed by the caller, leaving the previous Gazetteer live.
func (s *Store) Reload() error {
	g, err := buildFromDir(s.dir)
	if err != nil {
		return err
	}
	s.ptr.Store(g)
	return nil
}

func buildFromDir(dir string) (*Gazetteer, error) {
	g := &Gazetteer{
		byName:            map[string]Country{},
		byCode2:           map[string]Country{},
		byOldCode2:        map[string]Country{},
		byCode3:           map[string]Country{},
		byAltForm:         map[string]Country{},
		stateLongToAbbrev: map[string]string{},
		stateAbbrevToLong: map[string]string{},
		usCounties:        map[string]bool{},
		celestial:         map[string]bool{},
		flagCodes:         map[string]bool{},
	}

	if err := loadCountryCodes(filepath.Join(dir, "country_codes.txt"), g); err != nil {
		return nil, fmt.Errorf("gazetteer: country_codes.txt: %w", err)
	}
	if err := loadUSCounties(filepath.Join(dir, "us_counties.txt"), g); err != nil {
		return nil, fmt.Errorf("gazetteer: us_counties.txt: %w", err)
	}
	if err := loadCelestial(filepath.Join(dir, "celestial.txt"), g); err != nil {
		return nil, fmt.Errorf("gazetteer: celestial.txt: %w", err)
	}
	loadFlagInventory(filepath.Join(dir, "flags"), g)

	for abbr, long := range usStateLongNames {
		g.stateAbbrevToLong[abbr] = long
		g.stateLongToAbbrev[normalize.Simplify(long, false)] = abbr
	}

	return g, nil
}

// loadCountryCodes parses the fixed-column format: name [0,47), code2
// [48,50), oldCode2 [51,53), code3 [56,59), flag char at 59, optional
// ';'-separated alt forms starting at column 76.
func loadCountryCodes(path string, g *Gazetteer) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil // optional in tests / minimal deployments
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c := parseCountryLine(line)
		if c.Code3 == "" {
			continue
		}
		key := normalize.Simplify(c.Name, false)
		g.byName[key] = c
		if c.Code2 != "" {
			g.byCode2[c.Code2] = c
		}
		if c.OldCode2 != "" {
			g.byOldCode2[c.OldCode2] = c
		}
		g.byCode3[c.Code3] = c
		for _, alt := range c.AltForms {
			g.byAltForm[normalize.Simplify(alt, false)] = c
		}
	}
	return sc.Err()
}

func col(line string, from, to int) string {
	if from > len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

func parseCountryLine(line string) Country {
	c := Country{
		Name:     col(line, 0, 47),
		Code2:    col(line, 48, 50),
		OldCode2: col(line, 51, 53),
		Code3:    col(line, 56, 59),
	}
	if len(line) > 59 {
		c.Flag = line[59]
	}
	if len(line) > 76 {
		rest := strings.TrimSpace(line[76:])
		if rest != "" {
			c.AltForms = strings.Split(rest, ";")
			for i := range c.AltForms {
				c.AltForms[i] = strings.TrimSpace(c.AltForms[i])
			}
		}
	}
	return c
}

func loadUSCounties(path string, g *Gazetteer) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		g.usCounties[normalize.Simplify("Washington, DC", false)] = true
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		g.usCounties[normalize.Simplify(line, false)] = true
	}
	// The federal district has no county government but is treated as one.
	g.usCounties[normalize.Simplify("Washington, DC", false)] = true
	return sc.Err()
}

func loadCelestial(path string, g *Gazetteer) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		g.celestial[normalize.Simplify(name, false)] = true
	}
	return sc.Err()
}

// loadFlagInventory scans a local images folder for flag codes. A missing
// directory just means no flags are available; it is not an error.
func loadFlagInventory(dir string, g *Gazetteer) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		code := strings.ToLower(strings.TrimSuffix(name, ext))
		if code != "" {
			g.flagCodes[code] = true
		}
	}
}

// --- read accessors ---

// CountryByName looks up a country by its simplified display name.
func (g *Gazetteer) CountryByName(simplifiedName string) (Country, bool) {
	c, ok := g.byName[simplifiedName]
	return c, ok
}

// CountryByCode2 looks up a country by its ISO-3166 alpha-2 code.
func (g *Gazetteer) CountryByCode2(code2 string) (Country, bool) {
	c, ok := g.byCode2[strings.ToUpper(code2)]
	return c, ok
}

// CountryByOldCode2 looks up a country by a superseded alpha-2 code.
func (g *Gazetteer) CountryByOldCode2(code2 string) (Country, bool) {
	c, ok := g.byOldCode2[strings.ToUpper(code2)]
	return c, ok
}

// CountryByCode3 looks up a country by its three-letter code.
func (g *Gazetteer) CountryByCode3(code3 string) (Country, bool) {
	c, ok := g.byCode3[strings.ToUpper(code3)]
	return c, ok
}

// CountryByAltForm resolves an alternate spelling to its canonical Country.
func (g *Gazetteer) CountryByAltForm(simplifiedAlt string) (Country, bool) {
	c, ok := g.byAltForm[simplifiedAlt]
	return c, ok
}

// StateAbbrev resolves a simplified long state name to its two-letter
// abbreviation.
func (g *Gazetteer) StateAbbrev(simplifiedLong string) (string, bool) {
	a, ok := g.stateLongToAbbrev[simplifiedLong]
	return a, ok
}

// StateLongName resolves a two-letter state/territory abbreviation to its
// long form.
func (g *Gazetteer) StateLongName(abbrev string) (string, bool) {
	l, ok := g.stateAbbrevToLong[strings.ToUpper(abbrev)]
	return l, ok
}

// IsUSCounty reports whether "County, ST" (simplified) is a known US county.
func (g *Gazetteer) IsUSCounty(simplifiedCountyState string) bool {
	return g.usCounties[simplifiedCountyState]
}

// IsCelestial reports whether a simplified name is a rejected celestial
// object name.
func (g *Gazetteer) IsCelestial(simplifiedName string) bool {
	return g.celestial[simplifiedName]
}

// HasFlag reports whether flagCode matches a known flag image.
func (g *Gazetteer) HasFlag(flagCode string) bool {
	return g.flagCodes[strings.ToLower(flagCode)]
}
