package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
	"tenderwatch/internal/features/tenders/services"
)

// Handlers contains all tender feature HTTP handlers
type Handlers struct {
	logger    *core.Logger
	sources   []models.Source
	scheduler *services.SchedulerService
	reader    *services.ReaderService
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, sources []models.Source, scheduler *services.SchedulerService, reader *services.ReaderService) *Handlers {
	return &Handlers{
		logger:    logger,
		sources:   sources,
		scheduler: scheduler,
		reader:    reader,
	}
}

// ListSources returns the configured source table
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sources": h.sources,
	})
}

// ReadSource serves the current data for one source, cache first
func (h *Handlers) ReadSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "id")

	if !h.knownSource(sourceID) {
		core.HandleError(w, core.NewNotFoundError("unknown source: "+sourceID, nil))
		return
	}

	data := h.reader.Read(r.Context(), sourceID)
	if !data.Success {
		writeJSON(w, http.StatusServiceUnavailable, data)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// RefreshSource forces an out-of-schedule run for one source
func (h *Handlers) RefreshSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "id")

	if !h.knownSource(sourceID) {
		core.HandleError(w, core.NewNotFoundError("unknown source: "+sourceID, nil))
		return
	}

	started := h.scheduler.RunOne(r.Context(), sourceID)
	if !started {
		core.HandleError(w, core.NewConflictError("source is already being fetched: "+sourceID, nil))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"source":  sourceID,
		"started": true,
	})
}

// RefreshAll forces a run for every enabled source and waits for all
// of them to settle
func (h *Handlers) RefreshAll(w http.ResponseWriter, r *http.Request) {
	started := h.scheduler.RunAll(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"started": started,
	})
}

// Status returns the job snapshot for every source
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"jobs":    h.scheduler.StatusAll(),
	})
}

func (h *Handlers) knownSource(sourceID string) bool {
	for i := range h.sources {
		if h.sources[i].ID == sourceID {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
