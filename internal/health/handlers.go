package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zsiec/termreel/pkg/version"
)

// Response is the /health body.
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]*Check `json:"checks,omitempty"`
}

// Handler reports the preflight results next to the metrics endpoint. It
// does not rerun the checks.
type Handler struct {
	manager   *Manager
	startTime time.Time
}

// NewHandler creates a new health check handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager:   manager,
		startTime: time.Now(),
	}
}

// HandleHealth serves the latest check results.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.manager.GetOverallStatus()

	statusCode := http.StatusOK
	if status == StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, Response{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version.GetInfo().Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    h.manager.GetResults(),
	})
}

// HandleLive always reports alive while the process serves requests.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    "alive",
		Timestamp: time.Now(),
	})
}

// Register mounts /health and /live on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/live", h.HandleLive)
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.manager.log.WithError(err).Error("Failed to encode health response")
	}
}
