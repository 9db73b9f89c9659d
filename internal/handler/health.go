package handler

import (
	"net/http"
	"time"

	"ctarail/internal/schedule"
	"ctarail/internal/store"
)

type HealthHandler struct {
	service *schedule.Service
	trains  *store.TrainStore
}

func NewHealthHandler(service *schedule.Service, trains *store.TrainStore) *HealthHandler {
	return &HealthHandler{service: service, trains: trains}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool      `json:"ready"`
	ScheduleRows int       `json:"scheduleRows"`
	LiveTrains   int       `json:"liveTrains"`
	ServerTime   time.Time `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.service.Ready()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	liveTrains := 0
	if h.trains != nil {
		liveTrains = h.trains.Count()
	}

	respondJSON(w, status, ReadyResponse{
		Ready:        ready,
		ScheduleRows: h.service.RowCount(),
		LiveTrains:   liveTrains,
		ServerTime:   time.Now(),
	})
}
