package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"atlas/internal/atlastype"
)

func TestGeoNamesAdapterSearchParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"geonames":[
			{"name":"Springfield","lat":"39.78","lng":"-89.65","countryCode":"US",
			 "adminName1":"Illinois","adminName2":"Sangamon","fcode":"PPLA","population":116000,
			 "geonameId":4250542,"timezone":{"timeZoneId":"America/Chicago"}}
		]}`))
	}))
	defer srv.Close()

	a := NewGeoNamesAdapter(srv.URL, "demo", nil)
	locs, err := a.Search(context.Background(), Request{TargetCity: "Springfield"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locs))
	}
	loc := locs["4250542"]
	if loc == nil {
		t.Fatal("expected location keyed by geonameId")
	}
	if loc.City != "Springfield" {
		t.Errorf("City = %q, want Springfield", loc.City)
	}
	if loc.Source != atlastype.SourceGeoNamesGeneral {
		t.Errorf("Source = %d, want %d", loc.Source, atlastype.SourceGeoNamesGeneral)
	}
}

func TestGeoNamesAdapterName(t *testing.T) {
	a := NewGeoNamesAdapter("http://example.invalid", "demo", nil)
	if a.Name() != "geonames" {
		t.Errorf("Name() = %q, want geonames", a.Name())
	}
}

func TestGeoNamesAdapterNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewGeoNamesAdapter(srv.URL, "demo", nil)
	_, err := a.Search(context.Background(), Request{TargetCity: "Springfield"})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if _, ok := err.(*atlastype.RemoteProtocolError); !ok {
		t.Errorf("expected *atlastype.RemoteProtocolError, got %T", err)
	}
}

func TestGeoNamesRank(t *testing.T) {
	cases := []struct {
		fcode string
		pop   int64
		want  int
	}{
		{"PPL", 0, 1},
		{"PPLA", 0, 2},
		{"PPLC", 0, 2},
		{"PPLC", 1_500_000, 4},
	}
	for _, c := range cases {
		if got := geoNamesRank(c.fcode, c.pop); got != c.want {
			t.Errorf("geoNamesRank(%q, %d) = %d, want %d", c.fcode, c.pop, got, c.want)
		}
	}
}

func TestGeoNamesPlaceType(t *testing.T) {
	cases := []struct{ fcode, want string }{
		{"PK", "T.PK"},
		{"MT", "T.MT"},
		{"CAPE", "T.CAPE"},
		{"ISL", "T.ISL"},
		{"OBS", "S.OBS"},
		{"RESF", "S.MIL"},
		{"PPLA", "P.PPLA"},
		{"XYZ", "P.PPL"},
	}
	for _, c := range cases {
		if got := geoNamesPlaceType(c.fcode); got != c.want {
			t.Errorf("geoNamesPlaceType(%q) = %q, want %q", c.fcode, got, c.want)
		}
	}
}
