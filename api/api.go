// Package api exposes the Vigil recovery and quota subsystems over HTTP.
// Handlers are thin adapters: they decode the request, call the engine's
// components, and render the component result as JSON.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raynmakers/vigil/engine"
)

// API wires the HTTP handlers for the Vigil system.
type API struct {
	eng *engine.Engine
}

// New creates an API from a Vigil Engine.
func New(eng *engine.Engine) *API {
	return &API{eng: eng}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", a.health)
	r.Route("/v1", func(r chi.Router) {
		a.registerDeadLetterRoutes(r)
		a.registerScanRoutes(r)
		a.registerQuotaRoutes(r)
	})
	return r
}

// registerDeadLetterRoutes registers dead letter management routes.
func (a *API) registerDeadLetterRoutes(r chi.Router) {
	r.Post("/deadletters/route", a.routeDeadLetter)
	r.Get("/deadletters", a.listDeadLetters)
	r.Get("/deadletters/count", a.countDeadLetters)
	r.Post("/deadletters/purge", a.purgeDeadLetters)
	r.Get("/deadletters/{entryID}", a.getDeadLetter)
	r.Post("/deadletters/{entryID}/replay", a.replayDeadLetter)
}

// registerScanRoutes registers stuck-record scan routes.
func (a *API) registerScanRoutes(r chi.Router) {
	r.Post("/scans", a.startScan)
}

// registerQuotaRoutes registers quota governance routes.
func (a *API) registerQuotaRoutes(r chi.Router) {
	r.Post("/quota/reports", a.quotaReport)
	r.Get("/quota/guard/{service}", a.guardState)
}

// health reports liveness and store reachability.
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if err := a.eng.Vigil().Store().Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store_unreachable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
