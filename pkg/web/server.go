package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"graphview/pkg/centrality"
	"graphview/pkg/logging"
	"graphview/pkg/model"
	"graphview/pkg/prefs"
	"graphview/pkg/pubsub"
	"graphview/pkg/render"
	"graphview/pkg/session"
)

//go:embed static/*
var staticFiles embed.FS

// Server exposes the session over HTTP: JSON queries, pointer and
// selection commands, and SSE subscriptions for the canvas.
type Server struct {
	router    *mux.Router
	session   *session.Session
	publisher pubsub.Publisher
	prefs     *prefs.Store
}

// NewServer creates a web server around an existing session
func NewServer(sess *session.Session, publisher pubsub.Publisher, prefsStore *prefs.Store) *Server {
	if sse, ok := publisher.(*pubsub.SSEPublisher); ok {
		// render: replay only the latest frame command to new canvases
		sse.ConfigureTopic(pubsub.TopicRender, pubsub.TopicConfig{
			BufferSize: 1,
			ReplayAll:  false,
		})
		// status: keep a short history, replay only the current state
		sse.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{
			BufferSize: 10,
			ReplayAll:  false,
		})
		sse.ConfigureTopic(pubsub.TopicSelection, pubsub.TopicConfig{
			BufferSize: 1,
			ReplayAll:  false,
		})
	}

	s := &Server{
		router:    mux.NewRouter(),
		session:   sess,
		publisher: publisher,
		prefs:     prefsStore,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoint, one per topic
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/frame", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/deltas", s.handleDeltas).Methods("POST")
	s.router.HandleFunc("/api/search", s.handleSearch).Methods("GET")
	s.router.HandleFunc("/api/centrality", s.handleCentrality).Methods("POST")
	s.router.HandleFunc("/api/clusters", s.handleClusters).Methods("POST")
	s.router.HandleFunc("/api/select", s.handleSelect).Methods("POST")
	s.router.HandleFunc("/api/selection/clear", s.handleClearSelection).Methods("POST")
	s.router.HandleFunc("/api/pointer/click", s.handlePointerClick).Methods("POST")
	s.router.HandleFunc("/api/pointer/hover", s.handlePointerHover).Methods("POST")
	s.router.HandleFunc("/api/render-config", s.handleGetRenderConfig).Methods("GET")
	s.router.HandleFunc("/api/render-config", s.handlePutRenderConfig).Methods("PUT")
	s.router.HandleFunc("/api/prefs", s.handleGetPrefs).Methods("GET")
	s.router.HandleFunc("/api/prefs", s.handlePutPrefs).Methods("PUT")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	switch topic {
	case pubsub.TopicRender, pubsub.TopicStatus, pubsub.TopicSelection:
	default:
		http.Error(w, fmt.Sprintf("unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "subscriber dropped",
				"topic", topic, "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	nodes, links := s.session.Store().Snapshot()
	writeJSON(w, model.Graph{Nodes: nodes, Links: links})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Frame())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	node, ok := s.session.Store().NodeByID(id)
	if !ok {
		http.Error(w, fmt.Sprintf("node not found: %s", id), http.StatusNotFound)
		return
	}
	writeJSON(w, node)
}

func (s *Server) handleDeltas(w http.ResponseWriter, r *http.Request) {
	var deltas []model.Delta
	if err := json.NewDecoder(r.Body).Decode(&deltas); err != nil {
		http.Error(w, fmt.Sprintf("invalid delta payload: %v", err), http.StatusBadRequest)
		return
	}
	now := time.Now()
	for i := range deltas {
		if deltas[i].ReceivedAt.IsZero() {
			deltas[i].ReceivedAt = now
		}
		s.session.Enqueue(deltas[i])
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]int{"accepted": len(deltas)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter q required", http.StatusBadRequest)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, fmt.Sprintf("invalid limit: %s", raw), http.StatusBadRequest)
			return
		}
		limit = n
	}

	results := s.session.Search(query, limit)

	// select=true turns the result set into the active selection
	if r.URL.Query().Get("select") == "true" {
		ids := make([]string, len(results))
		for i, res := range results {
			ids[i] = res.Node.ID
		}
		s.session.Selection().SelectIDs(ids, s.session.Store().IndexOf)
	}
	writeJSON(w, results)
}

type centralityRequest struct {
	Algorithm string             `json:"algorithm"`
	Options   centrality.Options `json:"options"`
}

func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	var req centralityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	scores, err := s.session.Centrality(r.Context(), req.Algorithm, req.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, scores)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Algorithm string `json:"algorithm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	assignments, err := s.session.Cluster(req.Algorithm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, assignments)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	s.session.Selection().SelectIDs(req.IDs, s.session.Store().IndexOf)
	writeJSON(w, map[string]interface{}{
		"mode": s.session.Selection().Mode(),
		"ids":  s.session.Selection().IDs(),
	})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.session.Selection().Clear()
	w.WriteHeader(http.StatusNoContent)
}

type pointerEvent struct {
	Index    int  `json:"index"`
	Modifier bool `json:"modifier"` // Shift or ctrl held
}

func (s *Server) handlePointerClick(w http.ResponseWriter, r *http.Request) {
	var ev pointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	node, ok := s.session.Router().Click(ev.Index, ev.Modifier, time.Now())
	if !ok {
		// Stale index with no resolvable node: acknowledged but dropped
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, node)
}

func (s *Server) handlePointerHover(w http.ResponseWriter, r *http.Request) {
	var ev pointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	node, ok := s.session.Router().Hover(ev.Index)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, node)
}

func (s *Server) handleGetRenderConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.RenderConfig())
}

func (s *Server) handlePutRenderConfig(w http.ResponseWriter, r *http.Request) {
	var cfg render.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config: %v", err), http.StatusBadRequest)
		return
	}
	if cfg.MinSize <= 0 || cfg.MaxSize < cfg.MinSize {
		def := render.DefaultConfig()
		cfg.MinSize = def.MinSize
		cfg.MaxSize = def.MaxSize
	}
	s.session.SetRenderConfig(cfg)
	writeJSON(w, cfg)
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeJSON(w, prefs.Defaults())
		return
	}
	writeJSON(w, s.prefs.Load())
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, fmt.Sprintf("invalid preferences: %v", err), http.StatusBadRequest)
		return
	}
	if s.prefs != nil {
		if err := s.prefs.Save(p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, p)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("response encode failed", "error", err)
	}
}

// Handler returns the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP on the given port until the context is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("server shutdown failed", "error", err)
		}
	}()

	logging.Info("listening", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
