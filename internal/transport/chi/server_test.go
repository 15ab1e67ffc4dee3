package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	discoveruc "github.com/kailas-cloud/animedex/internal/usecase/discover"
	healthuc "github.com/kailas-cloud/animedex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

// --- Fixtures ---

func threeItems() []anime.Item {
	return []anime.Item{
		{ID: 1, Title: "Alpha", Type: "TV", Score: 8.5, Members: 500,
			Synopsis: "Space pirates hunt buried treasure among distant stars."},
		{ID: 2, Title: "Beta", Type: "Movie", Score: 7.0, Members: 900,
			Synopsis: "A quiet romance blossoms in a seaside town."},
		{ID: 3, Title: "Gamma", Type: "TV", Score: 9.0, Members: 100,
			Synopsis: "Pirates sail through space searching for treasure."},
	}
}

type staticSource struct {
	items []anime.Item
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Load(context.Context) ([]anime.Item, error) { return s.items, nil }

type testEnv struct {
	holder  *corpus.Holder
	server  *Server
	handler http.Handler
}

func newTestEnv(t *testing.T, items []anime.Item, cfg RouterConfig) *testEnv {
	t.Helper()
	h := corpus.NewHolder()
	if items != nil {
		snap, err := corpus.Build(context.Background(), items, corpus.BuildOptions{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		h.Swap(snap)
	}
	disc, err := discoveruc.New(h)
	if err != nil {
		t.Fatalf("discover.New: %v", err)
	}
	ing := ingestuc.New(&staticSource{items: threeItems()[:2]}, h, corpus.BuildOptions{}, nil)
	srv := NewServer(disc, healthuc.New(h, nil), ing, zap.NewNop())
	return &testEnv{holder: h, server: srv, handler: NewRouter(srv, cfg)}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeDiscover(t *testing.T, rr *httptest.ResponseRecorder) DiscoverResponse {
	t.Helper()
	var resp DiscoverResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func resultIDs(results []AnimeResult) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.AnimeID
	}
	return out
}

// --- Tests ---

func TestRoot(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	rr := env.do("GET", "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["message"] != "Anime discovery API" {
		t.Errorf("body = %v", body)
	}
}

func TestDiscover_BrowseFallsBackToMembers(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})

	for _, path := range []string{"/discover/", "/discover"} {
		for _, body := range []string{"{}", ""} {
			rr := env.do("POST", path, body, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("%s %q: status = %d, body %s", path, body, rr.Code, rr.Body.String())
			}
			resp := decodeDiscover(t, rr)
			if got := resultIDs(resp.Results); len(got) != 3 || got[0] != 2 || got[1] != 1 || got[2] != 3 {
				t.Errorf("%s %q: ids = %v, want [2 1 3]", path, body, got)
			}
			for _, r := range resp.Results {
				if r.Relevance != nil {
					t.Errorf("browse result %d has relevance %v", r.AnimeID, *r.Relevance)
				}
			}
			if resp.Query != nil || resp.SeedAnimeID != nil {
				t.Errorf("echo = %v, %v, want nulls", resp.Query, resp.SeedAnimeID)
			}
		}
	}
}

func TestDiscover_RelevanceIsNullInBrowseJSON(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	rr := env.do("POST", "/discover/", `{"limit":1}`, nil)
	if !strings.Contains(rr.Body.String(), `"relevance":null`) {
		t.Errorf("body %s must carry relevance null", rr.Body.String())
	}
}

func TestDiscover_Query(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	rr := env.do("POST", "/discover/", `{"query":"space pirates treasure"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeDiscover(t, rr)
	if resp.Query == nil || *resp.Query != "space pirates treasure" {
		t.Errorf("query echo = %v", resp.Query)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("results = %v", resultIDs(resp.Results))
	}
	last := resp.Results[2]
	if last.AnimeID != 2 || last.Relevance == nil || *last.Relevance != 0 {
		t.Errorf("unrelated title must rank last with relevance 0, got %+v", last)
	}
	for _, r := range resp.Results[:2] {
		if r.Relevance == nil || *r.Relevance <= 0 || *r.Relevance > 1 {
			t.Errorf("result %d relevance = %v", r.AnimeID, r.Relevance)
		}
	}
}

func TestDiscover_Seed(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	rr := env.do("POST", "/discover/", `{"seed_anime_id":1,"limit":1}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeDiscover(t, rr)
	if got := resultIDs(resp.Results); len(got) != 1 || got[0] != 3 {
		t.Errorf("ids = %v, want [3]", got)
	}
	if resp.SeedAnimeID == nil || *resp.SeedAnimeID != 1 {
		t.Errorf("seed echo = %v", resp.SeedAnimeID)
	}
}

func TestDiscover_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unsatisfiable min_score", `{"min_score":9.5}`},
		{"blank query", `{"query":"   "}`},
		{"unknown type", `{"type":"OVA"}`},
	}

	env := newTestEnv(t, threeItems(), RouterConfig{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do("POST", "/discover/", tc.body, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), `"results":[]`) {
				t.Errorf("body = %s, want empty results array", rr.Body.String())
			}
		})
	}
}

func TestDiscover_LimitIsClamped(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"limit":0}`, 1},
		{`{"limit":-5}`, 1},
		{`{"limit":2}`, 2},
		{`{"limit":500}`, 3},
	}

	env := newTestEnv(t, threeItems(), RouterConfig{})
	for _, tc := range tests {
		rr := env.do("POST", "/discover/", tc.body, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.body, rr.Code)
		}
		if got := len(decodeDiscover(t, rr).Results); got != tc.want {
			t.Errorf("%s: %d results, want %d", tc.body, got, tc.want)
		}
	}
}

func TestDiscover_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"missing seed", `{"seed_anime_id":42}`, http.StatusNotFound, "seed anime 42 not found"},
		{"zero seed", `{"seed_anime_id":0}`, http.StatusBadRequest, "seed_anime_id: must be >= 1"},
		{"score above range", `{"min_score":11}`, http.StatusBadRequest, "min_score: must be <= 10"},
		{"negative members", `{"min_members":-1}`, http.StatusBadRequest, "min_members: must be >= 0"},
		{"unknown sort", `{"sort_by":"hype"}`, http.StatusBadRequest,
			"sort_by: must be one of: relevance, score, rank, popularity, members"},
		{"inverted range", `{"min_episodes":10,"max_episodes":2}`, http.StatusBadRequest,
			"episodes: min (10) must not exceed max (2)"},
	}

	env := newTestEnv(t, threeItems(), RouterConfig{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do("POST", "/discover/", tc.body, nil)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if got := rr.Body.String(); got != tc.wantBody {
				t.Errorf("body = %q, want %q", got, tc.wantBody)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
		})
	}
}

func TestDiscover_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	rr := env.do("POST", "/discover/", `{"query": nope}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "invalid request body") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestDiscover_CorpusNotReady(t *testing.T) {
	env := newTestEnv(t, nil, RouterConfig{})
	rr := env.do("POST", "/discover/", `{}`, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Body.String(); got != domain.ErrCorpusNotReady.Error() {
		t.Errorf("body = %q", got)
	}
}

func TestGetAnime(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})

	rr := env.do("GET", "/anime/3", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var item anime.Item
	if err := json.NewDecoder(rr.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID != 3 || item.Title != "Gamma" {
		t.Errorf("item = %+v", item)
	}

	rr = env.do("GET", "/anime/99", "", nil)
	if rr.Code != http.StatusNotFound || rr.Body.String() != "anime 99 not found" {
		t.Errorf("missing: %d %q", rr.Code, rr.Body.String())
	}

	for _, bad := range []string{"/anime/abc", "/anime/0"} {
		if rr := env.do("GET", bad, "", nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, rr.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	ready := newTestEnv(t, threeItems(), RouterConfig{})
	rr := ready.do("GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("ready: status = %d", rr.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Items != 3 || body.Checks["corpus"] != "ok" {
		t.Errorf("ready body = %+v", body)
	}

	empty := newTestEnv(t, nil, RouterConfig{})
	rr = empty.do("GET", "/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready: status = %d, want 503", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})
	env.do("GET", "/", "", nil)
	rr := env.do("GET", "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "animedex_http_requests_total") {
		t.Error("HTTP request counter missing from /metrics")
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{APIKeys: []string{"secret"}})

	if rr := env.do("POST", "/admin/reload", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("without token: status = %d, want 401", rr.Code)
	}

	rr := env.do("POST", "/admin/reload", "", map[string]string{"Authorization": "Bearer secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body ReloadResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "static" || body.Items != 2 || body.Generation == 0 {
		t.Errorf("report = %+v", body)
	}

	if rr := env.do("GET", "/anime/3", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("reloaded corpus must drop id 3, got %d", rr.Code)
	}
}

func TestReload_NotMountedWithoutKeys(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{APIKeys: []string{""}})
	rr := env.do("POST", "/admin/reload", "", nil)
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want route to be absent", rr.Code)
	}
}

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"ingest in progress", domain.ErrIngestInProgress, http.StatusConflict, "ingestion already in progress"},
		{"wrapped not found", errors.Join(errors.New("ctx"), domain.NewNotFound("anime", 7)),
			http.StatusNotFound, "anime 7 not found"},
		{"unknown", errors.New("redis: connection refused"), http.StatusInternalServerError, "internal error"},
	}

	srv := NewServer(nil, nil, nil, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.handleDomainError(rr, tc.err)
			if rr.Code != tc.wantStatus || rr.Body.String() != tc.wantBody {
				t.Errorf("got %d %q, want %d %q", rr.Code, rr.Body.String(), tc.wantStatus, tc.wantBody)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{AllowedOrigins: []string{"http://localhost:5173"}})
	rr := env.do("OPTIONS", "/discover/", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "POST",
	})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	rr = env.do("OPTIONS", "/discover/", "", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	if rr := env.do("POST", "/discover/", `{}`, nil); rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}
	if rr := env.do("POST", "/discover/", `{}`, nil); rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", rr.Code)
	}
	if rr := env.do("GET", "/health", "", nil); rr.Code != http.StatusOK {
		t.Errorf("health must not be rate limited: %d", rr.Code)
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError || rr.Body.String() != "internal error" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic was not logged")
	}
}

func TestWideEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := NewServer(nil, nil, nil, zap.New(core))
	handler := NewRouter(srv, RouterConfig{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not propagated")
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request lines, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/" || fields["status"] != int64(http.StatusOK) {
		t.Errorf("fields = %v", fields)
	}
	if fields["request_id"] == "" {
		t.Error("request_id missing from log line")
	}
}

func TestDiscover_TrailingData(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})

	for _, body := range []string{`{"query":"pirates"} garbage`, `{} {}`} {
		rr := env.do("POST", "/discover/", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", body, rr.Code)
			continue
		}
		if !strings.HasPrefix(rr.Body.String(), "invalid request body") {
			t.Errorf("%q: body = %q", body, rr.Body.String())
		}
	}

	if rr := env.do("POST", "/discover/", "{\"query\":\"pirates\"}\n", nil); rr.Code != http.StatusOK {
		t.Errorf("trailing newline: status = %d, want 200", rr.Code)
	}
}

func TestDiscover_QueryLengthInBytes(t *testing.T) {
	env := newTestEnv(t, threeItems(), RouterConfig{})

	// 2100 runes, 4200 bytes.
	rr := env.do("POST", "/discover/", `{"query":"`+strings.Repeat("é", 2100)+`"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if got := rr.Body.String(); got != "query: too long (max 4096 bytes)" {
		t.Errorf("body = %q", got)
	}

	padded := "   " + strings.Repeat("a", 4096) + "   "
	if rr := env.do("POST", "/discover/", `{"query":"`+padded+`"}`, nil); rr.Code != http.StatusOK {
		t.Errorf("padded query at the limit: status = %d, want 200", rr.Code)
	}
}

func TestDiscover_LogsRequest(t *testing.T) {
	h := corpus.NewHolder()
	snap, err := corpus.Build(context.Background(), threeItems(), corpus.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h.Swap(snap)
	disc, err := discoveruc.New(h)
	if err != nil {
		t.Fatalf("discover.New: %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)
	srv := NewServer(disc, healthuc.New(h, nil), nil, zap.New(core))
	handler := NewRouter(srv, RouterConfig{})

	body := `{"seed_anime_id":1,"type":"TV","min_score":7,"limit":5}`
	req := httptest.NewRequest("POST", "/discover/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	entries := logs.FilterMessage("Discovery request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d discovery log lines, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["mode"] != "seed" || fields["seed_anime_id"] != int64(1) || fields["limit"] != int64(5) {
		t.Errorf("fields = %v", fields)
	}
	if fields["type"] != "TV" || fields["min_score"] != float64(7) {
		t.Errorf("filter fields = %v", fields)
	}
	if _, ok := fields["max_score"]; ok {
		t.Error("unset bound must not be logged")
	}
	if fields["request_id"] == nil {
		t.Error("request logger must carry the request id")
	}
}
