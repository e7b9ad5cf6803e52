package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"atlas/internal/atlastype"
	"atlas/internal/gazetteer"
	"atlas/internal/merge"
)

// GeoNamesDeadline is the hard deadline for one GeoNames call.
const GeoNamesDeadline = 20 * time.Second

// geoNamesFeatureCodes is the allow-list of feature codes: populated
// places, capitals, lakes, atolls, islands, mountains, peaks, capes,
// military bases, observatories.
var geoNamesFeatureCodes = []string{
	"PPL", "PPLA", "PPLA2", "PPLA3", "PPLA4", "PPLC", "PPLG", "PPLX",
	"LK", "ATOL", "ISL", "ISLS", "MT", "PK", "CAPE", "RESF", "OBS",
}

var mtPrefixRe = regexp.MustCompile(`(?i)^mt\b`)

// GeoNamesAdapter is the "GeoNames" remote gazetteer adapter.
type GeoNamesAdapter struct {
	Client    *http.Client
	BaseURL   string
	Username  string
	Gazetteer *gazetteer.Gazetteer
	Deadline  time.Duration
}

// NewGeoNamesAdapter builds an adapter with the standard defaults.
func NewGeoNamesAdapter(baseURL, username string, g *gazetteer.Gazetteer) *GeoNamesAdapter {
	return &GeoNamesAdapter{
		Client:    &http.Client{Timeout: GeoNamesDeadline},
		BaseURL:   baseURL,
		Username:  username,
		Gazetteer: g,
		Deadline:  GeoNamesDeadline,
	}
}

func (a *GeoNamesAdapter) Name() string { return "geonames" }

type geoNamesResponse struct {
	Geonames []geoNamesItem `json:"geonames"`
}

type geoNamesItem struct {
	Name        string `json:"name"`
	ToponymName string `json:"toponymName"`
	Lat         string `json:"lat"`
	Lng         string `json:"lng"`
	CountryCode string `json:"countryCode"`
	AdminName1  string `json:"adminName1"`
	AdminName2  string `json:"adminName2"`
	FCode       string `json:"fcode"`
	Population  int64  `json:"population"`
	GeonameID   int64  `json:"geonameId"`
	Elevation   float64 `json:"elevation"`
	TimeZone    struct {
		TimeZoneID string `json:"timeZoneId"`
	} `json:"timezone"`
	PostalCode string `json:"postalcode"`
	AdminCode1 string `json:"adminCode1"`
}

// Search queries the GeoNames search/postal-code JSON endpoints.
func (a *GeoNamesAdapter) Search(ctx context.Context, req Request) (atlastype.LocationMap, error) {
	return withDeadline(ctx, a.Deadline, a.Name(), func(dctx context.Context) (atlastype.LocationMap, error) {
		return a.search(dctx, req)
	})
}

func (a *GeoNamesAdapter) search(ctx context.Context, req Request) (atlastype.LocationMap, error) {
	endpoint := "/searchJSON"
	q := url.Values{}
	q.Set("username", a.Username)
	for _, fc := range geoNamesFeatureCodes {
		q.Add("featureCode", fc)
	}

	if req.PostalCode != "" {
		endpoint = "/postalCodeSearchJSON"
		q.Set("postalcode", req.PostalCode)
		if req.TargetCity != "" {
			q.Set("placename", req.TargetCity)
		}
	} else {
		city := req.TargetCity
		city = mtPrefixRe.ReplaceAllString(city, "Mount")
		q.Set("name_startsWith", city)
	}
	q.Set("maxRows", "100")

	u := strings.TrimRight(a.BaseURL, "/") + endpoint + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: fmt.Errorf("status %s", resp.Status)}
	}

	var body geoNamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &atlastype.RemoteProtocolError{Source: a.Name(), Err: err}
	}

	out := atlastype.LocationMap{}
	for _, item := range body.Geonames {
		loc, ok := a.toLocation(item, req)
		if !ok {
			continue
		}
		key := strconv.FormatInt(loc.GeonameID, 10)
		out[key] = loc
	}
	return out, nil
}

func (a *GeoNamesAdapter) toLocation(item geoNamesItem, req Request) (*atlastype.Location, bool) {
	country := item.CountryCode
	if country == "AN" {
		country = "ATA"
	} else if a.Gazetteer != nil {
		if c, ok := a.Gazetteer.CountryByCode2(country); ok {
			country = c.Code3
		}
	}

	decodeEntities := false
	processed := ProcessPlaceNames(item.Name, item.AdminName2, item.AdminName1, country, decodeEntities, a.Gazetteer)
	if processed.Rejected {
		return nil, false
	}

	if strings.EqualFold(processed.Country, "USA") {
		processed.County = AdjustUSCountyName(processed.County, processed.State)
	}

	if !merge.CloseMatchForCity(req.TargetCity, processed.City) {
		return nil, false
	}
	if req.TargetState != "" && !merge.CloseMatchForState(req.TargetState, processed.State, processed.Country, a.Gazetteer) {
		return nil, false
	}

	lat, _ := strconv.ParseFloat(item.Lat, 64)
	lng, _ := strconv.ParseFloat(item.Lng, 64)

	rank := geoNamesRank(item.FCode, item.Population)

	loc := &atlastype.Location{
		City:         processed.City,
		Variant:      processed.Variant,
		County:       processed.County,
		State:        processed.State,
		Country:      processed.Country,
		Latitude:     lat,
		Longitude:    lng,
		Elevation:    item.Elevation,
		HasElevation: item.Elevation != 0,
		Zone:         item.TimeZone.TimeZoneID,
		Zip:          item.PostalCode,
		PlaceType:    geoNamesPlaceType(item.FCode),
		GeonameID:    item.GeonameID,
		Source:       atlastype.SourceGeoNamesGeneral,
	}
	if req.PostalCode != "" {
		loc.Source = atlastype.SourceGeoNamesPostal
		loc.Rank = atlastype.ZipRank
	} else {
		loc.Rank = atlastype.ClampRank(rank)
	}
	return loc, true
}

// geoNamesRank computes rank 0..4 from place-type prefix and population:
// bonus +1 for capital PPLC, +1 for pop >= 1, +1 more for pop >= 1,000,000.
func geoNamesRank(fcode string, population int64) int {
	rank := 0
	switch {
	case strings.HasPrefix(fcode, "PPLA"):
		rank = 2
	case strings.HasPrefix(fcode, "PPL"):
		rank = 1
	default:
		rank = 0
	}
	if fcode == "PPLC" {
		rank++
	}
	if population >= 1 {
		rank++
	}
	if population >= 1_000_000 {
		rank++
	}
	return rank
}

func geoNamesPlaceType(fcode string) string {
	switch {
	case fcode == "PK":
		return "T.PK"
	case fcode == "MT":
		return "T.MT"
	case fcode == "CAPE":
		return "T.CAPE"
	case fcode == "ISL" || fcode == "ISLS" || fcode == "ATOL":
		return "T.ISL"
	case fcode == "OBS":
		return "S.OBS"
	case fcode == "RESF":
		return "S.MIL"
	case strings.HasPrefix(fcode, "PPL"):
		return "P." + fcode
	default:
		return "P.PPL"
	}
}
