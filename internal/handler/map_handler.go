package handler

import (
	"net/http"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/service"
)

// MapHandler answers questions about a scenario's map.
type MapHandler struct {
	svc *service.PlanService
}

// NewMapHandler creates a MapHandler.
func NewMapHandler(svc *service.PlanService) *MapHandler {
	return &MapHandler{svc: svc}
}

func decodeScenario(w http.ResponseWriter, r *http.Request) (*model.Scenario, bool) {
	var sc model.Scenario
	if err := decodeJSON(r, &sc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &sc, true
}

// Segments handles POST /api/v1/maps/segments
func (h *MapHandler) Segments(w http.ResponseWriter, r *http.Request) {
	sc, ok := decodeScenario(w, r)
	if !ok {
		return
	}
	segs, err := h.svc.Segments(r.Context(), sc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, segs)
}

// Roads handles POST /api/v1/maps/roads
func (h *MapHandler) Roads(w http.ResponseWriter, r *http.Request) {
	sc, ok := decodeScenario(w, r)
	if !ok {
		return
	}
	roads, err := h.svc.Roads(r.Context(), sc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if roads == nil {
		roads = []model.RoadRun{}
	}
	writeJSON(w, http.StatusOK, roads)
}

// Reach handles POST /api/v1/maps/reach
func (h *MapHandler) Reach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario *model.Scenario `json:"scenario"`
		X        int             `json:"x"`
		Y        int             `json:"y"`
		Budget   float64         `json:"budget"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == nil {
		writeError(w, http.StatusBadRequest, "scenario is required")
		return
	}
	if req.Budget <= 0 {
		writeError(w, http.StatusBadRequest, "budget must be positive")
		return
	}
	cells, err := h.svc.Reach(r.Context(), req.Scenario, req.X, req.Y, req.Budget)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cells)
}
