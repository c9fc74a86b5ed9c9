package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raynmakers/vigil/quota"
)

// QuotaReportRequest describes an on-demand quota report. A zero alert
// threshold falls back to the monitor's configured default.
type QuotaReportRequest struct {
	AlertThreshold     float64 `json:"alert_threshold"`
	IncludePredictions bool    `json:"include_predictions"`
}

// GuardStateResponse is a read-only snapshot of one service's spend brake.
type GuardStateResponse struct {
	Service    string `json:"service"`
	DailyLimit int64  `json:"daily_limit"`
	Spent      int64  `json:"spent"`
	Restricted bool   `json:"restricted"`
}

func (a *API) quotaReport(w http.ResponseWriter, r *http.Request) {
	var req QuotaReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}

	report, err := a.eng.Monitor().Monitor(r.Context(), quota.Request{
		AlertThreshold:     req.AlertThreshold,
		IncludePredictions: req.IncludePredictions,
	})
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) guardState(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	guard := a.eng.Guard()

	limit := guard.Limit(service)
	writeJSON(w, http.StatusOK, GuardStateResponse{
		Service:    service,
		DailyLimit: limit,
		Spent:      guard.Spent(service),
		Restricted: limit > 0,
	})
}
