// Package atlashttp is a thin adapter over the orchestrator; it implements
// exactly the query parameters, clamping, and content-type switch the
// external interface describes, grounded on internal/handlers/artists.go's
// plain net/http handler-function style (no router middleware, explicit
// query parsing, explicit content-type header).
package atlashttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"atlas/internal/alog"
	"atlas/internal/atlas"
	"atlas/internal/atlastype"
)

const (
	defaultQuery   = "Nashua, NH"
	defaultVersion = 9
	defaultLimit   = 75
	minLimit       = 1
	maxLimit       = 500
)

// Handler serves the core atlas search endpoint.
type Handler struct {
	Orchestrator *atlas.Orchestrator
}

// NewHandler builds a Handler around an orchestrator.
func NewHandler(o *atlas.Orchestrator) *Handler {
	return &Handler{Orchestrator: o}
}

// ServeHTTP implements the documented /atlas/ surface; any other subpath
// under the mux's registration is a 404, matching internal/handlers/404.go's
// plain NotFound helper.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/atlas/" && r.URL.Path != "/atlas" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		query = defaultQuery
	}

	version := defaultVersion
	if v := q.Get("version"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			version = n
		}
	}

	remoteMode := atlastype.RemoteMode(q.Get("remote"))
	if remoteMode == "" {
		remoteMode = atlastype.RemoteSkip
	}

	limit := defaultLimit
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	if limit < minLimit {
		limit = minLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	noTrace := q.Get("notrace") == "true" || q.Get("notrace") == "1"
	plainText := q.Get("pt") == "true" || q.Get("pt") == "1"
	callback := q.Get("callback")

	req := atlas.Request{
		Query:      query,
		Version:    version,
		RemoteMode: remoteMode,
		Limit:      limit,
		NoTrace:    noTrace,
	}

	result := h.Orchestrator.Search(r.Context(), req)
	payload := toPayload(result)

	switch {
	case plainText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writePlainText(w, payload)
	case callback != "":
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		body, err := json.Marshal(payload)
		if err != nil {
			alog.Errorf("jsonp encode: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "%s(%s);", callback, body)
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			alog.Errorf("json encode: %v", err)
		}
	}
}

// matchPayload mirrors the documented SearchResult JSON shape's match entry.
type matchPayload struct {
	City        string  `json:"city"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	LongCountry string  `json:"longCountry"`
	FlagCode    string  `json:"flagCode"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Elevation   float64 `json:"elevation,omitempty"`
	Zone        string  `json:"zone"`
	Zip         string  `json:"zip"`
	Rank        int     `json:"rank"`
	PlaceType   string  `json:"placeType"`
	Source      int     `json:"source"`
	DisplayName string  `json:"displayName"`
}

type resultPayload struct {
	OriginalSearch   string         `json:"originalSearch"`
	NormalizedSearch string         `json:"normalizedSearch"`
	Time             int64          `json:"time"`
	Count            int            `json:"count"`
	LimitReached     bool           `json:"limitReached"`
	Matches          []matchPayload `json:"matches"`
	Error            string         `json:"error,omitempty"`
	Warning          []string       `json:"warning,omitempty"`
	Info             []string       `json:"info,omitempty"`
}

func toPayload(r *atlastype.SearchResult) resultPayload {
	matches := make([]matchPayload, 0, len(r.Matches))
	for _, m := range r.Matches {
		matches = append(matches, matchPayload{
			City:        m.City,
			State:       m.State,
			Country:     m.Country,
			LongCountry: m.LongCountry,
			FlagCode:    m.FlagCode,
			Latitude:    m.Latitude,
			Longitude:   m.Longitude,
			Elevation:   m.Elevation,
			Zone:        m.Zone,
			Zip:         m.Zip,
			Rank:        m.Rank,
			PlaceType:   m.PlaceType,
			Source:      m.Source,
			DisplayName: m.DisplayName(),
		})
	}
	return resultPayload{
		OriginalSearch:   r.OriginalSearch,
		NormalizedSearch: r.NormalizedSearch,
		Time:             r.TimeMs,
		Count:            len(matches),
		LimitReached:     r.LimitReached,
		Matches:          matches,
		Error:            r.Error,
		Warning:          r.Warnings,
		Info:             r.Infos,
	}
}

func writePlainText(w http.ResponseWriter, p resultPayload) {
	fmt.Fprintf(w, "search: %s\nnormalized: %s\ntime: %dms\ncount: %d\nlimitReached: %t\n",
		p.OriginalSearch, p.NormalizedSearch, p.Time, p.Count, p.LimitReached)
	for _, m := range p.Matches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.5f\t%.5f\trank=%d\ttype=%s\n",
			m.DisplayName, m.State, m.Country, m.Latitude, m.Longitude, m.Rank, m.PlaceType)
	}
	if p.Error != "" {
		fmt.Fprintf(w, "error: %s\n", p.Error)
	}
	for _, w2 := range p.Warning {
		fmt.Fprintf(w, "warning: %s\n", w2)
	}
	for _, i := range p.Info {
		fmt.Fprintf(w, "info: %s\n", i)
	}
}
