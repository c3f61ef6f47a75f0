package handlers

import (
	"net/http"

	"media-dashboard/internal/logging"
)

// GetPlaylist scans the video root and returns a freshly shuffled playlist.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scanner.Scan(r.Context())
	if err != nil {
		logging.Error("Error creating playlist: %v", err)
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error: "Failed to create playlist",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entries)
}
