// Package server exposes the engine and page store over HTTP for the editor.
// The simulation endpoints are plain request/response JSON; /ws streams step
// events to connected canvases.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/patsnet/petri"
	"github.com/patsnet/petri/couch"
	"github.com/patsnet/petri/dto"
	"github.com/patsnet/petri/history"
	"github.com/patsnet/petri/service"
)

// Methods routes a single path by HTTP method.
type Methods map[string]http.Handler

func (m Methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func(r io.ReadCloser) {
		_, _ = io.Copy(io.Discard, r)
		_ = r.Close()
	}(r.Body)

	if h, ok := m[r.Method]; ok {
		if h == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		} else {
			h.ServeHTTP(w, r)
		}
		return
	}
	w.Header().Add("Allow", m.allowedMethods())
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (m Methods) allowedMethods() string {
	var methods []string
	for method := range m {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// Server holds the handler dependencies. Pages and History are optional;
// their endpoints answer 503 until configured.
type Server struct {
	Engine  *service.Engine
	Pages   *couch.Service
	History *history.Store
	Hub     *Hub
	logger  *zap.Logger
}

func New(engine *service.Engine, logger *zap.Logger) *Server {
	return &Server{
		Engine: engine,
		Hub:    NewHub(logger),
		logger: logger,
	}
}

// WithPages enables the page CRUD endpoints.
func (s *Server) WithPages(pages *couch.Service) *Server {
	s.Pages = pages
	return s
}

// WithHistory enables the step log endpoint.
func (s *Server) WithHistory(store *history.Store) *Server {
	s.History = store
	return s
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/process", Methods{
		http.MethodPost: http.HandlerFunc(s.handleProcess),
	})
	mux.Handle("/api/process/resolve", Methods{
		http.MethodPost: http.HandlerFunc(s.handleResolve),
	})
	mux.Handle("/api/validate", Methods{
		http.MethodPost: http.HandlerFunc(s.handleValidate),
	})
	mux.Handle("/api/pages", Methods{
		http.MethodGet:  http.HandlerFunc(s.handleListPages),
		http.MethodPost: http.HandlerFunc(s.handleCreatePage),
	})
	mux.Handle("/api/pages/", Methods{
		http.MethodGet:    http.HandlerFunc(s.handleGetPage),
		http.MethodPut:    http.HandlerFunc(s.handlePutPage),
		http.MethodDelete: http.HandlerFunc(s.handleDeletePage),
	})
	mux.Handle("/api/history/", Methods{
		http.MethodGet: http.HandlerFunc(s.handleHistory),
	})
	mux.Handle("/api/health", Methods{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}),
	})
	mux.Handle("/ws", Methods{
		http.MethodGet: http.HandlerFunc(s.Hub.handleWS),
	})
	return mux
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req dto.PetriNet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.Engine.ProcessStep(r.Context(), &req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.Engine.ResolveConflict(r.Context(), &req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req dto.PetriNet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Engine.Validate(&req); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	if s.Pages == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "page store not configured")
		return
	}
	pages, err := s.Pages.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	if s.Pages == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "page store not configured")
		return
	}
	var net dto.PetriNet
	if err := json.NewDecoder(r.Body).Decode(&net); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := s.Pages.Put(r.Context(), "", &net)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	if s.Pages == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "page store not configured")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	if id == "" {
		writeErrorString(w, http.StatusBadRequest, "missing page id")
		return
	}
	page, err := s.Pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePutPage(w http.ResponseWriter, r *http.Request) {
	if s.Pages == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "page store not configured")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	if id == "" {
		writeErrorString(w, http.StatusBadRequest, "missing page id")
		return
	}
	var net dto.PetriNet
	if err := json.NewDecoder(r.Body).Decode(&net); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := s.Pages.Put(r.Context(), id, &net)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if s.Pages == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "page store not configured")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	if id == "" {
		writeErrorString(w, http.StatusBadRequest, "missing page id")
		return
	}
	page, err := s.Pages.Remove(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeErrorString(w, http.StatusServiceUnavailable, "step log not configured")
		return
	}
	session := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if session == "" {
		writeErrorString(w, http.StatusBadRequest, "missing session")
		return
	}
	steps, err := s.History.Steps(r.Context(), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func writeEngineError(w http.ResponseWriter, err error) {
	if petri.IsStructural(err) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeErrorString(w, code, err.Error())
}

func writeErrorString(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
