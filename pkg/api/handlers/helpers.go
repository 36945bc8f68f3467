package handlers

import (
	"errors"
	"net/http"

	"streamflow/pkg/realtime"
	"streamflow/pkg/service"
	"streamflow/pkg/utils"
)

// Package-level wiring set once at startup by SetDeps.
var (
	submitter *service.Submitter
	hub       *realtime.Hub
	wsServe   func(w http.ResponseWriter, r *http.Request, streamID string)
)

// SetDeps installs the shared submitter, hub and websocket handler used by
// all route handlers.
func SetDeps(s *service.Submitter, h *realtime.Hub, ws func(w http.ResponseWriter, r *http.Request, streamID string)) {
	submitter = s
	hub = h
	wsServe = ws
}

// writeServiceError maps the submitter error taxonomy onto HTTP statuses.
// Below-minimum is a semantic rejection of a well-formed amount, so it gets
// 422 rather than 400.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBelowMinimum):
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidOption):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPollNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPollClosed):
		utils.JSONError(w, http.StatusConflict, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, "submission failed")
	}
}
