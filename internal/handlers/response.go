package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/narrative-engine/internal/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
	// Game is the state after a rejected command, when one is available.
	Game *game.Snapshot `json:"game,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// statusFor maps game errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrUnknownDialogue),
		errors.Is(err, game.ErrUnknownNPC):
		return http.StatusNotFound
	case errors.Is(err, game.ErrDialogueActive),
		errors.Is(err, game.ErrGameLocked):
		return http.StatusConflict
	case errors.Is(err, game.ErrNotAdjacent),
		errors.Is(err, game.ErrOptionRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrLoopStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
