package room

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Handler serves the derived room view-model to the UI shell.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// GetRoom godoc
// @Summary Current room view-model
// @Produce json
// @Success 200 {object} Snapshot
// @Router /api/room [get]
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting room snapshot")

	if err := json.NewEncoder(w).Encode(h.store.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetTimeline godoc
// @Summary Pixel-resolved room timeline
// @Produce json
// @Success 200 {object} TimelineView
// @Router /api/room/timeline [get]
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting room timeline")

	if err := json.NewEncoder(w).Encode(h.store.Timeline()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
