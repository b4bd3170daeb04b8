// Package cmstest provides an in-memory content service for tests. It
// speaks the subset of the Prismic v2 REST API that cms.Client uses.
package cmstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/spacetraveling/internal/cms"
)

const (
	apiPath         = "/api/v2"
	searchPath      = "/api/v2/documents/search"
	defaultPageSize = 20
	masterRef       = "master-ref-1"
)

var (
	typePredicate = regexp.MustCompile(`^\[\[at\(document\.type,"([^"]*)"\)\]\]$`)
	uidPredicate  = regexp.MustCompile(`^\[\[at\(my\.([^.]+)\.uid,"([^"]*)"\)\]\]$`)
)

// Server is a fake CMS backed by a fixed document list.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	docs      []cms.Document
	token     string
	failures  int
	failCode  int
	refHits   int
	searches  []url.Values
	rawResult map[string]string
}

// New starts a server holding docs and closes it when the test ends.
func New(t testing.TB, docs ...cms.Document) *Server {
	t.Helper()
	s := &Server{docs: docs, rawResult: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc(apiPath, s.handleAPI)
	mux.HandleFunc(searchPath, s.handleSearch)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the API root to configure a cms.Client with.
func (s *Server) Endpoint() string {
	return s.URL + apiPath
}

// RequireToken makes every request without access_token=token fail with 401.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// FailNext answers the next n requests with status code.
func (s *Server) FailNext(n, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures, s.failCode = n, code
}

// SetDocuments replaces the stored documents.
func (s *Server) SetDocuments(docs ...cms.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
}

// SetRawResult serves body verbatim as the single search result for uid
// lookups of that uid. It is used to feed malformed JSON to the client.
func (s *Server) SetRawResult(uid, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawResult[uid] = body
}

// RefRequests counts requests to the API root.
func (s *Server) RefRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refHits
}

// Searches returns the query of every search request received.
func (s *Server) Searches() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.searches))
	copy(out, s.searches)
	return out
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		http.Error(w, "injected failure", s.failCode)
		return true
	}
	if s.token != "" && r.URL.Query().Get("access_token") != s.token {
		http.Error(w, `{"error":"invalid access token"}`, http.StatusUnauthorized)
		return true
	}
	return false
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if s.reject(w, r) {
		return
	}
	s.mu.Lock()
	s.refHits++
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"refs": []map[string]any{
			{"id": "master", "ref": masterRef, "label": "Master", "isMasterRef": true},
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.reject(w, r) {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	s.searches = append(s.searches, q)
	docs := make([]cms.Document, len(s.docs))
	copy(docs, s.docs)
	raw := s.rawResult
	s.mu.Unlock()

	if q.Get("ref") != masterRef {
		http.Error(w, `{"error":"unknown ref"}`, http.StatusBadRequest)
		return
	}

	var matched []cms.Document
	switch pred := q.Get("q"); {
	case typePredicate.MatchString(pred):
		kind := typePredicate.FindStringSubmatch(pred)[1]
		for _, d := range docs {
			if d.Type == kind {
				matched = append(matched, d)
			}
		}
	case uidPredicate.MatchString(pred):
		m := uidPredicate.FindStringSubmatch(pred)
		if body, ok := raw[m[2]]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"page":1,"results_per_page":1,"results_size":1,"total_results_size":1,"total_pages":1,"next_page":null,"prev_page":null,"results":[` + body + `]}`))
			return
		}
		for _, d := range docs {
			if d.Type == m[1] && d.UID == m[2] {
				matched = append(matched, d)
			}
		}
	default:
		http.Error(w, `{"error":"unsupported predicate"}`, http.StatusBadRequest)
		return
	}

	if strings.Contains(q.Get("orderings"), "document.first_publication_date desc") {
		sortNewestFirst(matched)
	}

	pageSize := intParam(q, "pageSize", defaultPageSize)
	page := intParam(q, "page", 1)
	totalPages := (len(matched) + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	results := matched[start:end]
	if results == nil {
		results = []cms.Document{}
	}

	writeJSON(w, map[string]any{
		"page":               page,
		"results_per_page":   pageSize,
		"results_size":       len(results),
		"total_results_size": len(matched),
		"total_pages":        totalPages,
		"next_page":          s.pageURL(r, page+1, page < totalPages),
		"prev_page":          s.pageURL(r, page-1, page > 1),
		"results":            results,
	})
}

// pageURL returns the request URL with page replaced, or nil when absent.
func (s *Server) pageURL(r *http.Request, page int, ok bool) any {
	if !ok {
		return nil
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	return s.URL + searchPath + "?" + q.Encode()
}

func sortNewestFirst(docs []cms.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		ti, oki := docs[i].PublishedAt()
		tj, okj := docs[j].PublishedAt()
		if oki != okj {
			return oki
		}
		return ti.After(tj)
	})
}

func intParam(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Post builds a minimal valid post document.
func Post(uid, title, published string) cms.Document {
	return cms.Document{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 "posts",
		FirstPublicationDate: published,
		LastPublicationDate:  published,
		Data: cms.DocumentData{
			Title:    title,
			Subtitle: "About " + title,
			Author:   "Joseph Oliveira",
		},
	}
}
