package controllers

import (
	"net/http"

	"teamboard/app/backend"
	"teamboard/app/services"
)

// HealthController reports whether the backend answers.
type HealthController struct {
	tables backend.Tables
}

func NewHealthController(t backend.Tables) *HealthController {
	return &HealthController{tables: t}
}

func (hc *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	if err := services.CheckConnection(r.Context(), hc.tables); err != nil {
		sendError(w, http.StatusServiceUnavailable, err.Error(), map[string]string{"status": "unavailable"})
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
