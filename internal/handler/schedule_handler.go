package handler

import (
	"log/slog"
	"net/http"
	"time"

	"ctarail/internal/schedule"
)

type ScheduleHandler struct {
	service *schedule.Service
	logger  *slog.Logger
}

func NewScheduleHandler(service *schedule.Service, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, logger: logger}
}

type LinesResponse struct {
	Lines []schedule.LineInfo `json:"lines"`
	Count int                 `json:"count"`
}

func (h *ScheduleHandler) ListLines(w http.ResponseWriter, r *http.Request) {
	lines := h.service.Lines()
	respondJSON(w, http.StatusOK, LinesResponse{Lines: lines, Count: len(lines)})
}

type TripsPerHourResponse struct {
	Line     string                 `json:"line"`
	Schedule string                 `json:"schedule"`
	Hours    []schedule.HourlyTrips `json:"hours"`
}

func (h *ScheduleHandler) TripsPerHour(w http.ResponseWriter, r *http.Request) {
	line, class, ok := h.lineAndClass(w, r)
	if !ok {
		return
	}

	result, err := h.service.TripsPerHour(r.Context(), line, class)
	if err != nil {
		h.logger.Error("trips-per-hour query failed", "line", line, "error", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, TripsPerHourResponse{
		Line:     line,
		Schedule: string(class),
		Hours:    result,
	})
}

type HeadwaysResponse struct {
	Line     string                   `json:"line"`
	Schedule string                   `json:"schedule"`
	Hours    []schedule.HourlyHeadway `json:"hours"`
}

func (h *ScheduleHandler) Headways(w http.ResponseWriter, r *http.Request) {
	line, class, ok := h.lineAndClass(w, r)
	if !ok {
		return
	}

	result, err := h.service.Headways(r.Context(), line, class)
	if err != nil {
		h.logger.Error("headways query failed", "line", line, "error", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, HeadwaysResponse{
		Line:     line,
		Schedule: string(class),
		Hours:    result,
	})
}

type RunsResponse struct {
	Runs       []schedule.LineRuns `json:"runs"`
	ServerTime time.Time           `json:"serverTime"`
}

func (h *ScheduleHandler) Runs(w http.ResponseWriter, r *http.Request) {
	line := r.URL.Query().Get("line")

	result, err := h.service.Runs(r.Context(), line)
	if err != nil {
		h.logger.Error("runs query failed", "line", line, "error", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, RunsResponse{Runs: result, ServerTime: time.Now()})
}

func (h *ScheduleHandler) lineAndClass(w http.ResponseWriter, r *http.Request) (string, schedule.ServiceClass, bool) {
	line := r.URL.Query().Get("line")
	if line == "" {
		respondError(w, http.StatusBadRequest, "missing line parameter")
		return "", "", false
	}

	classParam := r.URL.Query().Get("schedule")
	if classParam == "" {
		classParam = string(schedule.Weekday)
	}
	class, err := schedule.ParseServiceClass(classParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid schedule parameter: must be Weekday, Saturday or Sunday")
		return "", "", false
	}
	return line, class, true
}
