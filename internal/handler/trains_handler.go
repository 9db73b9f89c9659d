package handler

import (
	"net/http"
	"time"

	"ctarail/internal/domain"
	"ctarail/internal/store"
)

type TrainsHandler struct {
	trains *store.TrainStore
}

func NewTrainsHandler(trains *store.TrainStore) *TrainsHandler {
	return &TrainsHandler{trains: trains}
}

type TrainsResponse struct {
	Trains     []*domain.TrainPosition `json:"trains"`
	Count      int                     `json:"count"`
	ServerTime time.Time               `json:"serverTime"`
}

func (h *TrainsHandler) ListTrains(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if route != "" && !validTrackerRoute(route) {
		respondError(w, http.StatusBadRequest, "invalid route parameter")
		return
	}

	trains := h.trains.List(route)
	respondJSON(w, http.StatusOK, TrainsResponse{
		Trains:     trains,
		Count:      len(trains),
		ServerTime: time.Now(),
	})
}

func validTrackerRoute(route string) bool {
	for _, r := range domain.TrackerRoutes {
		if r == route {
			return true
		}
	}
	return false
}
