// Package api assembles the versioned HTTP surface of the interaction
// service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"streamflow/pkg/api/handlers"
	"streamflow/pkg/realtime"
	"streamflow/pkg/service"
)

// Handler wires the route handlers to their dependencies and returns the
// router for the versioned API. Auth, telemetry and health endpoints are
// layered on by the caller.
func Handler(sub *service.Submitter, hub *realtime.Hub, ws func(w http.ResponseWriter, r *http.Request, streamID string)) http.Handler {
	handlers.SetDeps(sub, hub, ws)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterInteractions(v1)
	handlers.RegisterPolls(v1)
	handlers.RegisterRealtime(v1)
	return r
}
