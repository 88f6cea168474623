package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// DirectoryReady reports the last observed readiness of the backend
	// video directory. Optional; liveness does not depend on it.
	DirectoryReady func() bool
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]any{
		"status": "ok",
	}
	if h.DirectoryReady != nil {
		payload["directory_ready"] = h.DirectoryReady()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
