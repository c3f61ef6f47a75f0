package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-dashboard/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	ActiveTranscoders int    `json:"activeTranscoders"`
	TranscodingQueue  int    `json:"transcodingQueue"`

	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service status plus transcoder load.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:            "ok",
		ActiveTranscoders: h.registry.ActiveCount(),
		TranscodingQueue:  h.limiter.Waiting(),
		Version:           startup.Version,
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:         runtime.Version(),
		NumGoroutine:      runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always 200 while the server runs).
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the server can accept traffic. There is no
// warm-up phase: readiness tracks liveness.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"status": "ready"})
}
