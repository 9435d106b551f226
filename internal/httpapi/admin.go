package httpapi

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/geohealth/gateway/internal/cache"
)

func (h *Handler) RegisterAdminRoutes(router *mux.Router) {
	router.HandleFunc("/admin/cache/stats", h.CacheStats).Methods("GET")
	router.HandleFunc("/admin/history/stats", h.HistoryStats).Methods("GET")
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{"size": nil}
	if sizer, ok := h.cache.(cache.Sizer); ok {
		stats["size"] = sizer.Size(r.Context())
	}
	respond(w, stats)
}

func (h *Handler) HistoryStats(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, "Activity history is not configured", http.StatusServiceUnavailable)
		return
	}
	stats, err := h.history.GetStats(r.Context())
	if err != nil {
		log.Printf("❌ History stats failed: %v", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	respond(w, stats)
}
