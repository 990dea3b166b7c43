package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/auth"
	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
	"github.com/freeeve/hexcommand/internal/service"
)

// PlanHandler handles plan run endpoints.
type PlanHandler struct {
	svc *service.PlanService
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// CreatePlan handles POST /api/v1/plans
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario *model.Scenario `json:"scenario"`
		Strategy string          `json:"strategy,omitempty"`
		Friendly []string        `json:"friendly,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == nil {
		writeError(w, http.StatusBadRequest, "scenario is required")
		return
	}

	res, err := h.svc.Plan(r.Context(), service.PlanRequest{
		Scenario: req.Scenario,
		Strategy: req.Strategy,
		Friendly: req.Friendly,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.Debug().Str("clientId", auth.ClientIDFromContext(r.Context())).Str("runId", res.Run.ID).Msg("Plan created")
	writeJSON(w, http.StatusCreated, res)
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// PlanOrders handles GET /api/v1/plans/{id}/orders
func (h *PlanHandler) PlanOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.RunOrders(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListPlans handles GET /api/v1/scenarios/{id}/plans?limit=
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.ListRuns(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.PlanRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// LatestOrders handles GET /api/v1/scenarios/{id}/orders/latest
func (h *PlanHandler) LatestOrders(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.LatestOrders(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, data)
}

// Strategies handles GET /api/v1/strategies
func (h *PlanHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"strategies": planner.StrategyNames(),
		"default":    service.DefaultStrategy,
	})
}
