package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"streamflow/pkg/auth"
	"streamflow/pkg/logger"
	"streamflow/pkg/models"
	"streamflow/pkg/pin"
	"streamflow/pkg/service"
	"streamflow/pkg/store"
	"streamflow/pkg/utils"
)

// RegisterInteractions registers chat and interaction-history endpoints on
// the /v1 subrouter.
func RegisterInteractions(r *mux.Router) {
	r.Handle("/streams/{streamID}/chat",
		auth.RequireSignedViewer(http.HandlerFunc(createChat))).Methods(http.MethodPost)
	r.HandleFunc("/streams/{streamID}/interactions", listInteractions).Methods(http.MethodGet)
	r.HandleFunc("/streams/{streamID}/pinned", listPinned).Methods(http.MethodGet)
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Content  string `json:"content"`
	Amount   string `json:"amount"`
}

func createChat(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID, status, msg := auth.ResolveViewerFromRequest(r, req.UserID)
	if status != 0 {
		utils.JSONError(w, status, msg)
		return
	}
	ix, err := submitter.SubmitChat(r.Context(), service.ChatSubmission{
		StreamID: streamID,
		UserID:   userID,
		Username: req.Username,
		Content:  req.Content,
		Amount:   req.Amount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logger.Info("chat_created", "stream", streamID, "id", ix.ID, "tier", ix.Tier)
	_ = utils.JSONWrite(w, http.StatusCreated, ix)
}

func listInteractions(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	limit := 0
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if lim, err := strconv.Atoi(limStr); err == nil && lim > 0 {
			limit = lim
		}
	}
	ixs, err := store.ListInteractions(streamID, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Debug("interactions_list", "stream", streamID, "count", len(ixs))
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		StreamID     string               `json:"stream_id"`
		Interactions []models.Interaction `json:"interactions"`
	}{StreamID: streamID, Interactions: ixs})
}

// listPinned returns the currently pinned interactions in display order,
// highest tier first.
func listPinned(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	ixs, err := store.ListInteractions(streamID, 0)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pinned := pin.Select(ixs, time.Now().UTC())
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		StreamID string               `json:"stream_id"`
		Pinned   []models.Interaction `json:"pinned"`
	}{StreamID: streamID, Pinned: pinned})
}
