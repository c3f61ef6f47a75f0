package handlers

import (
	"net/http"

	"media-dashboard/internal/widgets"
)

// GetWeather serves the cached weather payload, or 503 if not yet populated.
func (h *Handlers) GetWeather(w http.ResponseWriter, _ *http.Request) {
	serveWidget(w, h.weather, "Weather data not available")
}

// GetDollarRates serves the cached currency-rate array, or 503 if not yet
// populated.
func (h *Handlers) GetDollarRates(w http.ResponseWriter, _ *http.Request) {
	serveWidget(w, h.dollar, "Dollar rates not available")
}

func serveWidget(w http.ResponseWriter, widget *widgets.Widget, unavailable string) {
	data, ok := widget.Get()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errorResponse{Error: unavailable})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err == nil {
		w.Write([]byte("\n"))
	}
}
