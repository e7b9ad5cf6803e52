package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
)

// Getty deadlines, exposed so a caller can override the unusually long
// hard deadline.
const (
	GettyHardDeadline = 110 * time.Second
	GettySoftBudget    = 40 * time.Second

	gettyMaxPages        = 6
	gettyMaxMatches      = 50
	gettyAltMergeCeiling = 25
)

// GettyConfig lets a caller override its suggested deadlines; the upstream
// service's secondary-lookup loop can run long enough that a fixed
// deadline isn't always the right call.
type GettyConfig struct {
	HardDeadline time.Duration
	SoftBudget   time.Duration
}

// GettyAdapter is the "Getty" HTML-scraped-thesaurus remote gazetteer
// adapter.
type GettyAdapter struct {
	Client    *http.Client
	BaseURL   string
	Gazetteer *gazetteer.Gazetteer
	Config    GettyConfig
}

// NewGettyAdapter builds an adapter with the recommended default deadlines.
func NewGettyAdapter(baseURL string, g *gazetteer.Gazetteer) *GettyAdapter {
	return &GettyAdapter{
		Client:    &http.Client{Timeout: GettyHardDeadline},
		BaseURL:   baseURL,
		Gazetteer: g,
		Config:    GettyConfig{HardDeadline: GettyHardDeadline, SoftBudget: GettySoftBudget},
	}
}

func (a *GettyAdapter) Name() string { return "getty" }

// Search implements the two-phase Getty TGN scrape.
func (a *GettyAdapter) Search(ctx context.Context, req Request) (atlastype.LocationMap, error) {
	hard := a.Config.HardDeadline
	if hard == 0 {
		hard = GettyHardDeadline
	}
	return withDeadline(ctx, hard, a.Name(), func(dctx context.Context) (atlastype.LocationMap, error) {
		return a.search(dctx, req)
	})
}

func (a *GettyAdapter) search(ctx context.Context, req Request) (atlastype.LocationMap, error) {
	prelims, err := a.fetchPreliminary(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(prelims) == 0 {
		return atlastype.LocationMap{}, nil
	}

	primary := atlastype.LocationMap{}
	alternate := atlastype.LocationMap{}

	soft := a.Config.SoftBudget
	if soft == 0 {
		soft = GettySoftBudget
	}
	budgetDeadline := time.Now().Add(soft)

	for i, p := range prelims {
		if time.Now().After(budgetDeadline) {
			// Soft budget exhausted; return whatever secondary lookups
			// have already completed plus the remaining preliminary
			// matches, without coordinates.
			for _, rest := range prelims[i:] {
				target := primary
				if rest.IsAlternate {
					target = alternate
				}
				target[rest.ID] = prelimToLocation(rest, a.Gazetteer)
			}
			break
		}
		if ctx.Err() != nil {
			break
		}

		loc, ok := a.fetchSecondary(ctx, p)
		if !ok {
			continue
		}

		target := primary
		if p.IsAlternate {
			target = alternate
		}
		target[p.ID] = loc
	}

	if len(primary) == 0 {
		// Nothing made it through the secondary fetch; fall back to
		// coordinate-less primary entries so callers at least see names.
		for _, p := range prelims {
			primary[p.ID] = prelimToLocation(p, a.Gazetteer)
		}
	}

	if len(primary) < gettyAltMergeCeiling {
		for k, v := range alternate {
			if _, exists := primary[k]; !exists {
				primary[k] = v
			}
		}
	}

	return primary, nil
}

func (a *GettyAdapter) fetchPreliminary(ctx context.Context, req Request) ([]GettyPreliminaryMatch, error) {
	var all []GettyPreliminaryMatch

	query := req.TargetCity
	if req.TargetState != "" {
		query = query + ", " + req.TargetState
	}

	for page := 1; page <= gettyMaxPages; page++ {
		body, err := a.fetchPage(ctx, query, page)
		if err != nil {
			return nil, err
		}

		switch ClassifyGettyPage(body) {
		case GettyPageNoResults, GettyPageTooMany:
			return all, nil
		case GettyPageInvalidSyntax:
			return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: fmt.Errorf("invalid search syntax")}
		case GettyPageServerError:
			return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: fmt.Errorf("Getty server error")}
		}

		matches := ParseGettyItemBlocks(body)
		all = append(all, matches...)

		if len(all) >= gettyMaxMatches {
			break
		}
		if len(matches) < 12*page {
			break
		}
		if !HasMoreResults(body) {
			break
		}
	}

	return all, nil
}

func (a *GettyAdapter) fetchPage(ctx context.Context, query string, page int) (string, error) {
	q := url.Values{}
	q.Set("find", query)
	q.Set("page", strconv.Itoa(page))
	u := strings.TrimRight(a.BaseURL, "/") + "/search.jsp?" + q.Encode()

	return a.fetch(ctx, u)
}

func (a *GettyAdapter) fetchSecondary(ctx context.Context, p GettyPreliminaryMatch) (*atlastype.Location, bool) {
	u := strings.TrimRight(a.BaseURL, "/") + "/record.jsp?id=" + url.QueryEscape(p.ID)
	body, err := a.fetch(ctx, u)
	if err != nil {
		return nil, false
	}

	lat, lon, ok := ParseGettySecondaryLatLong(body)
	if !ok {
		return nil, false
	}

	loc := prelimToLocation(p, a.Gazetteer)
	loc.Latitude = lat
	loc.Longitude = lon

	if kw, ok := ParseGettySecondaryPlaceType(body); ok {
		loc.PlaceType = GettyPlaceType(kw)
	}

	return loc, true
}

func prelimToLocation(p GettyPreliminaryMatch, g *gazetteer.Gazetteer) *atlastype.Location {
	h := ParseGettyHierarchy(p.Hierarchy)
	processed := ProcessPlaceNames(p.PlaceName, h.County, h.State, h.Country, true, g)

	loc := &atlastype.Location{
		City:                   processed.City,
		Variant:                processed.Variant,
		County:                 processed.County,
		State:                  processed.State,
		Country:                processed.Country,
		PlaceType:              "P.PPL",
		Source:                 atlastype.SourceGetty,
		MatchedByAlternateName: p.IsAlternate,
	}
	loc.Rank = atlastype.ClampRank(0)
	return loc
}

func (a *GettyAdapter) fetch(ctx context.Context, u string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return "", &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &atlastype.RemoteProtocolError{Source: a.Name(), Err: fmt.Errorf("status %s", resp.Status)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}
	return string(b), nil
}
