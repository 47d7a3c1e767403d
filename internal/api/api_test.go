package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/resolve"
	"github.com/shapedtime/tvscraper/internal/service"
)

func newTestServer() *Server {
	store := library.NewStore()
	return NewServer(service.New(store, nil, resolve.NewEngine(store)))
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func create(t *testing.T, s *Server, path, body string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CreatedResponse](t, rec).ID
}

func TestShowLifecycle(t *testing.T) {
	require := require.New(t)
	s := newTestServer()

	show := create(t, s, "/api/shows", `{"title":"Lost"}`)
	season := create(t, s, "/api/shows/"+show+"/seasons", `{"n":"1","status":"watched"}`)
	episode := create(t, s, "/api/seasons/"+season+"/episodes", `{"n":"4"}`)

	rec := do(t, s, http.MethodGet, "/api/seasons/"+season, "")
	require.Equal(http.StatusOK, rec.Code)
	got := decode[map[string]string](t, rec)
	require.Equal(show, got["tvshow"])

	rec = do(t, s, http.MethodPut, "/api/shows/"+show, `{"title":"LOST"}`)
	require.Equal(http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/shows/"+show+"/seasons/1/episodes/4", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal(episode, decode[map[string]string](t, rec)["id"])

	rec = do(t, s, http.MethodDelete, "/api/shows/"+show, "")
	require.Equal(http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/episodes/"+episode, "")
	require.Equal(http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer()
	show := create(t, s, "/api/shows", `{"title":"x"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown attribute", http.MethodPut, "/api/shows/" + show, `{"year":"2004"}`, http.StatusBadRequest},
		{"non-string value", http.MethodPut, "/api/shows/" + show, `{"title":5}`, http.StatusBadRequest},
		{"missing show", http.MethodGet, "/api/shows/nope", "", http.StatusNotFound},
		{"missing parent", http.MethodPost, "/api/shows/nope/seasons", `{"n":"1"}`, http.StatusNotFound},
		{"remove missing", http.MethodDelete, "/api/files/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestListShowsFuzzy(t *testing.T) {
	require := require.New(t)
	s := newTestServer()

	create(t, s, "/api/shows", `{"title":"Breaking Bad"}`)
	create(t, s, "/api/shows", `{"title":"Better Call Saul"}`)
	create(t, s, "/api/shows", `{"title":"The Wire"}`)

	rec := do(t, s, http.MethodGet, "/api/shows", "")
	require.Len(decode[[]map[string]string](t, rec), 3)

	rec = do(t, s, http.MethodGet, "/api/shows?q=bbad", "")
	require.Equal(http.StatusOK, rec.Code)
	shows := decode[[]map[string]string](t, rec)
	require.Len(shows, 1)
	require.Equal("Breaking Bad", shows[0]["title"])
}

func TestBestFileEndpoints(t *testing.T) {
	require := require.New(t)
	s := newTestServer()

	show := create(t, s, "/api/shows", `{"title":"x"}`)
	season := create(t, s, "/api/shows/"+show+"/seasons", `{"n":"1"}`)
	episode := create(t, s, "/api/seasons/"+season+"/episodes", `{"n":"1"}`)
	scraper := create(t, s, "/api/seasons/"+season+"/scrapers", `{"preference":"1"}`)

	rec := do(t, s, http.MethodGet, "/api/episodes/"+episode+"/best-file", "")
	require.Equal(http.StatusNotFound, rec.Code)

	file := create(t, s, "/api/shows/"+show+"/files", `{"season":"`+season+`","episode":"`+episode+`","scraper":"`+scraper+`","pubDate":"10","uri":"ed2k://|file|x.avi|1|0123456789abcdef0123456789abcdef|/"}`)

	rec = do(t, s, http.MethodGet, "/api/episodes/"+episode+"/best-file", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal(file, decode[map[string]string](t, rec)["id"])

	rec = do(t, s, http.MethodGet, "/api/seasons/"+season+"/best-files", "")
	require.Equal(http.StatusOK, rec.Code)
	files := decode[[]map[string]string](t, rec)
	require.Len(files, 1)
	require.Equal(file, files[0]["id"])
}

func TestPromoteScrapedSeason(t *testing.T) {
	require := require.New(t)
	s := newTestServer()

	show := create(t, s, "/api/shows", `{"title":"x"}`)
	scraper := create(t, s, "/api/shows/"+show+"/scrapers", `{"source":"rss"}`)
	scraped := create(t, s, "/api/scrapers/"+scraper+"/scraped-seasons", `{"n":"2","uri":"http://s2","tbn":"1"}`)

	rec := do(t, s, http.MethodGet, "/api/scraped-seasons", "")
	require.Len(decode[[]map[string]string](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/scraped-seasons?scraper="+scraper+"&uri=http://s2", "")
	found := decode[[]map[string]string](t, rec)
	require.Len(found, 1)
	require.Equal(scraped, found[0]["id"])

	newScraper := create(t, s, "/api/scraped-seasons/"+scraped+"/promote", "")

	rec = do(t, s, http.MethodGet, "/api/scrapers/"+newScraper, "")
	require.Equal(http.StatusOK, rec.Code)
	got := decode[map[string]string](t, rec)
	require.Equal("http://s2", got["uri"])
	require.NotEmpty(got["season"])

	rec = do(t, s, http.MethodGet, "/api/watched-seasons", "")
	require.Len(decode[[]map[string]string](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/active-scrapers", "")
	require.Len(decode[[]map[string]string](t, rec), 2)
}

func TestStatus(t *testing.T) {
	s := newTestServer()
	create(t, s, "/api/shows", `{"title":"x"}`)

	rec := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[StatusResponse](t, rec)
	require.Equal(t, "ok", status.Status)
	require.Equal(t, 1, status.Nodes["tvshow"])
	require.Equal(t, 0, status.Nodes["file"])
}
