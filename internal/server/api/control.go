// Package api provides HTTP API handlers for the recognition state and the
// control surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/speller"
)

// Controller is the part of speller.Controller exposed over HTTP.
type Controller interface {
	Snapshot() speller.Snapshot
	SetPaused(paused bool)
	SetMuted(muted bool)
	ClearWord()
	ClearSentence()
	SpeakSentence() bool
}

// Control commands accepted by POST /api/control/{command}.
const (
	CommandPause         = "pause"
	CommandResume        = "resume"
	CommandMute          = "mute"
	CommandUnmute        = "unmute"
	CommandClearWord     = "clear-word"
	CommandClearSentence = "clear-sentence"
	CommandSpeakSentence = "speak-sentence"
)

// ControlHandler serves the state and control endpoints.
type ControlHandler struct {
	ctrl   Controller
	logger logrus.FieldLogger
}

// NewControlHandler creates a ControlHandler for ctrl.
func NewControlHandler(ctrl Controller, logger logrus.FieldLogger) *ControlHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ControlHandler{ctrl: ctrl, logger: logger}
}

// Routes mounts the handler on r.
func (h *ControlHandler) Routes(r chi.Router) {
	r.Get("/state", h.state)
	r.Post("/control/{command}", h.control)
}

// controlResponse is returned by every control command.
type controlResponse struct {
	Command string           `json:"command"`
	Spoken  *bool            `json:"spoken,omitempty"`
	State   speller.Snapshot `json:"state"`
}

func (h *ControlHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *ControlHandler) control(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	resp := controlResponse{Command: command}

	switch command {
	case CommandPause:
		h.ctrl.SetPaused(true)
	case CommandResume:
		h.ctrl.SetPaused(false)
	case CommandMute:
		h.ctrl.SetMuted(true)
	case CommandUnmute:
		h.ctrl.SetMuted(false)
	case CommandClearWord:
		h.ctrl.ClearWord()
	case CommandClearSentence:
		h.ctrl.ClearSentence()
	case CommandSpeakSentence:
		spoken := h.ctrl.SpeakSentence()
		resp.Spoken = &spoken
	default:
		writeError(w, http.StatusNotFound, "unknown command: "+command)
		return
	}

	h.logger.WithField("command", command).Info("Control command")
	resp.State = h.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
