package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/gorilla/mux"

	"streamflow/pkg/auth"
	"streamflow/pkg/logger"
	"streamflow/pkg/models"
	"streamflow/pkg/service"
	"streamflow/pkg/store"
	"streamflow/pkg/utils"
)

// RegisterPolls registers poll lifecycle and voting endpoints on the /v1
// subrouter. Poll creation is gated to backend keys by the gateway.
func RegisterPolls(r *mux.Router) {
	r.HandleFunc("/streams/{streamID}/polls", createPoll).Methods(http.MethodPost)
	r.HandleFunc("/streams/{streamID}/polls", listPolls).Methods(http.MethodGet)
	r.HandleFunc("/streams/{streamID}/polls/{pollID}", getPoll).Methods(http.MethodGet)
	r.Handle("/streams/{streamID}/polls/{pollID}/votes",
		auth.RequireSignedViewer(http.HandlerFunc(castVote))).Methods(http.MethodPost)
}

type createPollRequest struct {
	Question        string     `json:"question"`
	Options         []string   `json:"options"`
	MinPaymentCents int64      `json:"min_payment_cents"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	CreatorID       string     `json:"creator_id"`
}

func createPoll(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	opts := make([]models.PollOption, 0, len(req.Options))
	for _, o := range req.Options {
		opts = append(opts, models.PollOption{Text: o})
	}
	p, err := submitter.CreatePoll(r.Context(), models.Poll{
		StreamID:        streamID,
		Question:        req.Question,
		CreatorID:       req.CreatorID,
		Options:         opts,
		MinPaymentCents: req.MinPaymentCents,
		EndsAt:          req.EndsAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, pollView(p))
}

func listPolls(w http.ResponseWriter, r *http.Request) {
	streamID := mux.Vars(r)["streamID"]
	ps, err := store.ListPolls(streamID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]pollResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, pollView(p))
	}
	logger.Debug("polls_list", "stream", streamID, "count", len(out))
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		StreamID string         `json:"stream_id"`
		Polls    []pollResponse `json:"polls"`
	}{StreamID: streamID, Polls: out})
}

func getPoll(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, err := store.GetPoll(vars["streamID"], vars["pollID"])
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "poll not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, pollView(p))
}

type voteRequest struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	OptionIndex int    `json:"option_index"`
	Amount      string `json:"amount"`
}

func castVote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID, status, msg := auth.ResolveViewerFromRequest(r, req.UserID)
	if status != 0 {
		utils.JSONError(w, status, msg)
		return
	}
	ix, err := submitter.SubmitVote(r.Context(), service.VoteSubmission{
		StreamID:    vars["streamID"],
		PollID:      vars["pollID"],
		UserID:      userID,
		Username:    req.Username,
		OptionIndex: req.OptionIndex,
		Amount:      req.Amount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logger.Info("vote_cast", "stream", vars["streamID"], "poll", vars["pollID"], "option", req.OptionIndex)
	_ = utils.JSONWrite(w, http.StatusCreated, ix)
}

// pollResponse is the wire shape of a poll with its derived totals attached.
type pollResponse struct {
	models.Poll
	TotalVotes        int64 `json:"total_votes"`
	TotalRevenueCents int64 `json:"total_revenue_cents"`
	Closed            bool  `json:"closed"`
}

func pollView(p models.Poll) pollResponse {
	return pollResponse{
		Poll:              p,
		TotalVotes:        p.TotalVotes(),
		TotalRevenueCents: p.TotalRevenueCents(),
		Closed:            p.Closed(time.Now().UTC()),
	}
}
