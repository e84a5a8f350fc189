package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/page.html
var pageTemplate string

type Server struct {
	cfg     *Config
	api     ImageFetcher
	pages   *PageRegistry
	store   *Store
	limiter *RateLimiter
	tmpl    *template.Template
	log     *log.Logger
}

type pageData struct {
	View  PageView
	Error string
}

// NewServer wires the HTTP surface. store may be nil, which turns basic auth off.
func NewServer(cfg *Config, api ImageFetcher, pages *PageRegistry, store *Store, limiter *RateLimiter) *Server {
	return &Server{
		cfg:     cfg,
		api:     api,
		pages:   pages,
		store:   store,
		limiter: limiter,
		tmpl:    template.Must(template.New("page").Parse(pageTemplate)),
		log:     log.New(os.Stderr, "(server) ", log.LstdFlags),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	})
	mux.HandleFunc("GET /{$}", s.auth(s.limiter.Wrap(s.handleIndex)))
	mux.HandleFunc("GET /pages/{id}", s.auth(s.handlePage))
	mux.HandleFunc("POST /pages/{id}/mount", s.auth(s.limiter.Wrap(s.handleMount)))
	mux.HandleFunc("POST /pages/{id}/next", s.auth(s.limiter.Wrap(s.handleNext)))
	mux.HandleFunc("GET /api/image", s.auth(s.limiter.Wrap(s.handleImage)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// handleIndex is the pre-render hook: the page only exists once a fetch succeeded.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	image, err := s.api.FetchImage(r.Context())
	if err != nil {
		s.log.Println("Pre-render fetch failed:", err)
		s.render(w, r, http.StatusBadGateway, pageData{Error: err.Error()})
		return
	}
	page := s.pages.New(image)
	s.render(w, r, http.StatusOK, pageData{View: page.View()})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, pageData{View: page.View()})
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages.Get(r.PathValue("id"))
	if !ok {
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Code: "not_found", Message: "page not found"})
		return
	}
	view, err := page.Mount(r.Context(), s.api)
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

// handleNext answers JSON to the page script and redirects plain form posts.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages.Get(r.PathValue("id"))
	if !ok {
		if wantsJSON(r) {
			s.writeJSON(w, r, http.StatusNotFound, errorBody{Code: "not_found", Message: "page not found"})
		} else {
			http.NotFound(w, r)
		}
		return
	}
	view, err := page.Next(r.Context(), s.api)
	if !wantsJSON(r) {
		if err != nil {
			s.render(w, r, http.StatusBadGateway, pageData{View: view, Error: err.Error()})
			return
		}
		http.Redirect(w, r, "/pages/"+page.Id(), http.StatusSeeOther)
		return
	}
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	image, err := s.api.FetchImage(r.Context())
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, image)
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.store == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.store.TestUser(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="catpage"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) {
		s.writeJSON(w, r, http.StatusBadGateway, errorBody{Code: shapeErr.Code, Message: shapeErr.Message})
		return
	}
	s.writeJSON(w, r, http.StatusBadGateway, errorBody{Code: ErrCodeTransport, Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	enc := json.NewEncoder(body)
	indent := ""
	if s.cfg.Debug.PrettyJson {
		indent = "  "
	}
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		s.log.Println("Failed to encode response:", err)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	if err := s.tmpl.Execute(body, data); err != nil {
		s.log.Println("Failed to render page:", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
