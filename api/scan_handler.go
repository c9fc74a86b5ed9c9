package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/raynmakers/vigil/scan"
)

// ScanRequest describes an on-demand sweep. Zero thresholds fall back to
// the scanner's configured defaults.
type ScanRequest struct {
	StalenessHours         float64 `json:"staleness_hours"`
	CriticalHours          float64 `json:"critical_hours"`
	IncludeStatusBreakdown bool    `json:"include_status_breakdown"`
	EscalateCritical       bool    `json:"escalate_critical"`
}

func (a *API) startScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}
	if req.StalenessHours < 0 || req.CriticalHours < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "thresholds must be non-negative")
		return
	}

	res, err := a.eng.Scanner().Scan(r.Context(), scan.Request{
		Staleness:              time.Duration(req.StalenessHours * float64(time.Hour)),
		Critical:               time.Duration(req.CriticalHours * float64(time.Hour)),
		IncludeStatusBreakdown: req.IncludeStatusBreakdown,
		EscalateCritical:       req.EscalateCritical,
	})
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
