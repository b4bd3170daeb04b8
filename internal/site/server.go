package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/output"
)

// APIPostsPath serves listing pages after the first one.
const APIPostsPath = "/api/posts"

// ServerOptions configures a Server.
type ServerOptions struct {
	CacheSize  int
	Revalidate time.Duration
	Logger     *slog.Logger
}

// Server serves rendered pages. Rendered responses are cached for the
// revalidation period; concurrent misses for one key share one render.
type Server struct {
	site   *Site
	tmpl   *Templates
	cache  *expirable.LRU[string, cachedResponse]
	group  singleflight.Group
	logger *slog.Logger
}

type cachedResponse struct {
	contentType string
	body        []byte
}

// NewServer creates a server for site rendered with tmpl.
func NewServer(site *Site, tmpl *Templates, opts ServerOptions) *Server {
	size := opts.CacheSize
	if size < 1 {
		size = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		site:   site,
		tmpl:   tmpl,
		cache:  expirable.NewLRU[string, cachedResponse](size, nil, opts.Revalidate),
		logger: logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleHome)
	r.Get("/post/{slug}", s.handlePost)
	r.Get(APIPostsPath, s.handleListing)
	r.Get(FeedPath, s.handleFeed)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Invalidate drops every cached response.
func (s *Server) Invalidate() {
	s.cache.Purge()
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "home", func(ctx context.Context) (cachedResponse, error) {
		props, err := s.site.HomeProps(ctx)
		if err != nil {
			return cachedResponse{}, err
		}
		props.NextPage = s.localCursor(props.NextPage)
		return s.renderHTML(HomeTemplate, props)
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.serve(w, r, "post:"+slug, func(ctx context.Context) (cachedResponse, error) {
		props, err := s.site.PostProps(ctx, slug)
		if err != nil {
			return cachedResponse{}, err
		}
		return s.renderHTML(PostTemplate, props)
	})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	if cursor == "" {
		http.Error(w, "cursor is required", http.StatusBadRequest)
		return
	}
	s.serve(w, r, "listing:"+cursor, func(ctx context.Context) (cachedResponse, error) {
		l, err := s.site.ListingPage(ctx, cursor)
		if err != nil {
			return cachedResponse{}, err
		}
		l.NextPage = s.localCursor(l.NextPage)
		body, err := json.Marshal(output.ToPage(l))
		if err != nil {
			return cachedResponse{}, err
		}
		return cachedResponse{contentType: "application/json", body: body}, nil
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "feed", func(ctx context.Context) (cachedResponse, error) {
		body, err := s.site.Feed(ctx)
		if err != nil {
			return cachedResponse{}, err
		}
		return cachedResponse{contentType: "application/rss+xml; charset=utf-8", body: body}, nil
	})
}

// localCursor points a CMS cursor at this server's listing endpoint.
func (s *Server) localCursor(cursor string) string {
	if cursor == "" {
		return ""
	}
	return s.site.info.BaseURL + APIPostsPath + "?cursor=" + url.QueryEscape(cursor)
}

func (s *Server) renderHTML(name string, data any) (cachedResponse, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Render(&buf, name, data); err != nil {
		return cachedResponse{}, err
	}
	return cachedResponse{contentType: "text/html; charset=utf-8", body: buf.Bytes()}, nil
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, key string, render func(context.Context) (cachedResponse, error)) {
	resp, err := s.cached(r.Context(), key, render)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", resp.contentType)
	_, _ = w.Write(resp.body)
}

func (s *Server) cached(ctx context.Context, key string, render func(context.Context) (cachedResponse, error)) (cachedResponse, error) {
	if resp, ok := s.cache.Get(key); ok {
		return resp, nil
	}
	v, err, shared := s.group.Do(key, func() (any, error) {
		if resp, ok := s.cache.Get(key); ok {
			return resp, nil
		}
		// Detached so one caller going away does not fail the others.
		resp, err := render(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, resp)
		return resp, nil
	})
	if err != nil {
		return cachedResponse{}, err
	}
	if shared {
		s.logger.Debug("render shared", "key", key)
	}
	return v.(cachedResponse), nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cms.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, cms.ErrForeignCursor):
		http.Error(w, "invalid cursor", http.StatusBadRequest)
	default:
		s.logger.Error("page generation failed", "path", r.URL.Path, "error", err)
		http.Error(w, fmt.Sprintf("%d %s", http.StatusBadGateway, http.StatusText(http.StatusBadGateway)), http.StatusBadGateway)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", chiMiddleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
