package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// SnapshotReader is the read-side the server needs from the store.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, target posts.Target) (*posts.Snapshot, error)
	Ping(ctx context.Context) error
}

// Server exposes a small debug surface over the snapshot cache. It is
// read-only and disabled unless configured on.
type Server struct {
	store  SnapshotReader
	logger logger.Logger
	srv    *http.Server
}

// New builds a server listening on addr.
func New(addr string, store SnapshotReader, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Server{
		store:  store,
		logger: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/posts/", s.handlePosts)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.InfoWithFields("debug http server listening", map[string]interface{}{
		"addr": s.srv.Addr,
	})

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorWithFields("health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePosts serves GET /api/posts/{platform}/{handle} from the
// snapshot cache. It never triggers a live fetch.
func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "expected /api/posts/{platform}/{handle}", http.StatusBadRequest)
		return
	}

	platform, err := posts.ParsePlatform(parts[0])
	if err != nil {
		http.Error(w, "unknown platform", http.StatusBadRequest)
		return
	}

	target := posts.NewTarget(platform, parts[1])
	snapshot, err := s.store.GetSnapshot(r.Context(), target)
	if err != nil {
		s.logger.ErrorWithFields("snapshot read failed", map[string]interface{}{
			"platform": string(target.Platform),
			"handle":   target.Handle,
			"error":    err.Error(),
		})
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if snapshot == nil {
		http.Error(w, "no cached snapshot", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
