package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freeeve/hexcommand/internal/auth"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Routes registers every endpoint. Everything under /api/v1/ except the
// WebSocket requires an access token. /readyz runs the given checks.
func Routes(jwtMgr *auth.JWTManager, authH *AuthHandler, plans *PlanHandler, maps *MapHandler, ws *WSHandler, checks ...Check) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /auth/dev", authH.DevToken)
	mux.HandleFunc("POST /auth/refresh", authH.RefreshToken)

	api := http.NewServeMux()
	api.HandleFunc("GET /strategies", plans.Strategies)
	api.HandleFunc("POST /plans", plans.CreatePlan)
	api.HandleFunc("GET /plans/{id}", plans.GetPlan)
	api.HandleFunc("GET /plans/{id}/orders", plans.PlanOrders)
	api.HandleFunc("GET /scenarios/{id}/plans", plans.ListPlans)
	api.HandleFunc("GET /scenarios/{id}/orders/latest", plans.LatestOrders)
	api.HandleFunc("POST /maps/segments", maps.Segments)
	api.HandleFunc("POST /maps/roads", maps.Roads)
	api.HandleFunc("POST /maps/reach", maps.Reach)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", auth.Middleware(jwtMgr)(api)))

	// Auth via query param, since browsers cannot set headers on upgrade.
	mux.HandleFunc("GET /api/v1/ws", ws.ServeWS)
	return mux
}
