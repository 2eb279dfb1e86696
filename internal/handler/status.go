package handler

import (
	"net/http"

	"github.com/templui/promoproof/internal/service"
)

type StatusHandler struct {
	statusService *service.StatusService
}

func NewStatusHandler(statusService *service.StatusService) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
	}
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.statusService.Status(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *StatusHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
