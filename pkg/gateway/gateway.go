package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/registry"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// read-only view of the lock table
type LockView interface {
	Lookup(lid types.LockID) (registry.Snapshot, bool)
	Stats() registry.Stats
}

// admin HTTP endpoint: prometheus metrics and JSON views of the registry
type Server struct {
	httpServer *http.Server
	view       LockView
	nodeID     string
	log        hclog.Logger
}

type statusResponse struct {
	NodeID string         `json:"node_id"`
	Stats  registry.Stats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(httpAddr string, view LockView, nodeID string, logger hclog.Logger) *Server {
	s := &Server{
		view:   view,
		nodeID: nodeID,
		log:    logging.OrNull(logger).Named("gateway"),
	}

	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/locks/{id}", s.handleLock)
	return mux
}

// serves until Stop is called
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("admin http listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP gateway: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		NodeID: s.nodeID,
		Stats:  s.view.Stats(),
	})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lock id must be an unsigned integer"})
		return
	}

	snap, ok := s.view.Lookup(types.LockID(id))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("lock %d not found", id)})
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}
