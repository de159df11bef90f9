package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the JSON body of both probe endpoints.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime,omitempty"`
	Contexts int    `json:"contexts,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// LivenessHandler answers /healthz. Liveness only confirms the process
// responds.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})
}

// ReadinessHandler answers /readyz with server state. It returns 503 once
// shutdown has begun so load balancers drain before the process exits.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := h.serverContext

		if !h.IsReady() || sc.IsShutdown() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}

		resp := HealthResponse{
			Status:   "ok",
			Version:  sc.Version(),
			Uptime:   time.Since(h.startTime).Round(time.Second).String(),
			Contexts: sc.Contexts().Len(),
		}
		if sc.Pool() != nil {
			resp.Clients = sc.Pool().Size()
		}
		if sc.Gate() != nil {
			resp.Mode = sc.Gate().Mode().String()
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, status int, body HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
