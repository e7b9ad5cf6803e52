package atlashttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atlas/internal/atlas"
	"atlas/internal/gazetteer"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	g := gazetteer.NewStore(t.TempDir())
	if err := g.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return NewHandler(atlas.New(g, nil, nil))
}

func TestServeHTTPUnknownPathIs404(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServeHTTPDefaultJSON(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield,IL", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	var payload resultPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload.OriginalSearch != "Springfield,IL" {
		t.Errorf("originalSearch = %q", payload.OriginalSearch)
	}
}

func TestServeHTTPPlainText(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield&pt=true", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "search: Springfield") {
		t.Errorf("body missing search line: %q", w.Body.String())
	}
}

func TestServeHTTPJSONP(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield&callback=myFunc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "myFunc(") || !strings.HasSuffix(body, ");") {
		t.Errorf("expected a JSONP-wrapped body, got %q", body)
	}
}

func TestServeHTTPLimitClamping(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield&limit=0", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield&limit=99999", nil)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w2.Code)
	}
}

func TestServeHTTPDefaultQueryWhenMissing(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/atlas/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var payload resultPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload.OriginalSearch != defaultQuery {
		t.Errorf("originalSearch = %q, want default %q", payload.OriginalSearch, defaultQuery)
	}
}

func TestToPayloadCountEqualsMatchesLength(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/atlas/?q=Springfield,IL&notrace=true", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var payload resultPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload.Count != len(payload.Matches) {
		t.Errorf("count = %d, want %d", payload.Count, len(payload.Matches))
	}
}
