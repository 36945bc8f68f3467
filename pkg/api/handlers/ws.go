package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"streamflow/pkg/models"
	"streamflow/pkg/utils"
)

// RegisterRealtime registers the websocket endpoint and the presence
// snapshot endpoint on the /v1 subrouter.
func RegisterRealtime(r *mux.Router) {
	r.HandleFunc("/streams/{streamID}/ws", serveWS).Methods(http.MethodGet)
	r.HandleFunc("/streams/{streamID}/viewers", listViewers).Methods(http.MethodGet)
}

func serveWS(w http.ResponseWriter, r *http.Request) {
	wsServe(w, r, mux.Vars(r)["streamID"])
}

// listViewers reports the in-memory presence set. Counts are cosmetic; they
// reflect open connections on this instance, not authoritative membership.
func listViewers(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	viewers := hub.Viewers(streamID)
	if viewers == nil {
		viewers = []models.PresenceEntry{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		StreamID string                 `json:"stream_id"`
		Count    int                    `json:"count"`
		Viewers  []models.PresenceEntry `json:"viewers"`
	}{StreamID: streamID, Count: len(viewers), Viewers: viewers})
}
