package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// defaultPurgeRetentionDays is how long entries are kept when a purge
// request does not say otherwise.
const defaultPurgeRetentionDays = 30

// PurgeRequest bounds a purge. Entries routed more than RetentionDays ago
// are removed.
type PurgeRequest struct {
	RetentionDays int `json:"retention_days"`
}

// PurgeResponse reports how many entries a purge removed.
type PurgeResponse struct {
	Purged int64 `json:"purged"`
}

// CountResponse reports a dead letter count.
type CountResponse struct {
	Count int64 `json:"count"`
}

func (a *API) routeDeadLetter(w http.ResponseWriter, r *http.Request) {
	var req dlq.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	res, err := a.eng.Router().Route(r.Context(), req)
	if err != nil {
		mapStoreError(w, err)
		return
	}

	// A duplicate route is not a failure: the caller's job is in the dead
	// letter collection either way.
	status := http.StatusCreated
	if res.Status == dlq.RouteStatusAlreadyExists {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (a *API) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := dlq.ListOpts{
		Limit:    queryInt(q.Get("limit"), 50),
		Offset:   queryInt(q.Get("offset"), 0),
		JobType:  job.Type(q.Get("job_type")),
		Severity: dlq.Severity(q.Get("severity")),
	}

	entries, err := a.eng.Router().DLQStore().ListDeadLetters(r.Context(), opts)
	if err != nil {
		mapStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []*dlq.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) getDeadLetter(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseDeadLetterID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_entry_id", err.Error())
		return
	}

	entry, err := a.eng.Router().DLQStore().GetDeadLetter(r.Context(), entryID)
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) replayDeadLetter(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseDeadLetterID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_entry_id", err.Error())
		return
	}

	j, err := a.eng.Router().Replay(r.Context(), entryID)
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (a *API) purgeDeadLetters(w http.ResponseWriter, r *http.Request) {
	req := PurgeRequest{RetentionDays: defaultPurgeRetentionDays}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}
	if req.RetentionDays <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "retention_days must be positive")
		return
	}

	before := time.Now().UTC().Add(-time.Duration(req.RetentionDays) * 24 * time.Hour)
	purged, err := a.eng.Router().DLQStore().PurgeDeadLetters(r.Context(), before)
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Purged: purged})
}

func (a *API) countDeadLetters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := dlq.CountOpts{
		JobType:  job.Type(q.Get("job_type")),
		Severity: dlq.Severity(q.Get("severity")),
	}

	count, err := a.eng.Router().DLQStore().CountDeadLetters(r.Context(), opts)
	if err != nil {
		mapStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

// queryInt parses a query parameter, falling back when absent or invalid.
func queryInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
