package server

import (
	"encoding/json"
	"net/http"

	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/metrics"
	"github.com/muurk/devscan/internal/version"
	"go.uber.org/zap"
)

// Handler returns the bridge HTTP API:
//
//	GET /devices         all live entries
//	GET /devices/{uuid}  entries announced by one device
//	GET /events          websocket event stream
//	GET /metrics         Prometheus metrics
//	GET /healthz         liveness and version
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", s.handleDevices)
	mux.HandleFunc("GET /devices/{uuid}", s.handleDevice)
	mux.Handle("GET /events", s.hub)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Snapshot())
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	views := s.table.Get(r.PathValue("uuid"))
	if len(views) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Devices int    `json:"devices"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.Commit,
		Devices: s.table.Len(),
		Clients: s.hub.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// logRequests logs each request at debug level
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("HTTP request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_agent", r.Header.Get("User-Agent")),
		)
		next.ServeHTTP(w, r)
	})
}
