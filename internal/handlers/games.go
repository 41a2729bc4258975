package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/logger"
	"github.com/jwebster45206/narrative-engine/internal/services/journal"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// DefaultJournalEntries is returned by the journal endpoint without ?n=.
const DefaultJournalEntries = 50

// Games creates and finds running games.
type Games interface {
	Create(ctx context.Context, pcID string) (*game.Loop, error)
	Get(ctx context.Context, id uuid.UUID) (*game.Loop, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateGameRequest struct {
	PCID string `json:"pc_id,omitempty"`
}

type StartDialogueRequest struct {
	DialogueID  string `json:"dialogueId"`
	ReturnState string `json:"returnState,omitempty"`
}

type SelectOptionRequest struct {
	Index *int `json:"index"`
}

type JournalEntry struct {
	Text string          `json:"text"`
	Kind world.EntryType `json:"kind"`
	At   time.Time       `json:"at"`
}

type JournalResponse struct {
	Entries []JournalEntry `json:"entries"`
}

// GameHandler serves the player-facing game API. Every command goes
// through the game's loop, so requests for one game are serialized.
type GameHandler struct {
	games    Games
	journals func(gameID uuid.UUID) *journal.Journal
	logger   *slog.Logger
}

// NewGameHandler creates the handler. journals may be nil, in which case
// the journal endpoint reads the game state's own journal.
func NewGameHandler(games Games, journals func(uuid.UUID) *journal.Journal, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, journals: journals, logger: logger}
}

// Register adds the game routes to mux.
//
//	POST   /v1/games                          create a game
//	GET    /v1/games/{id}                     snapshot
//	DELETE /v1/games/{id}                     stop and delete
//	POST   /v1/games/{id}/dialogue/start      {dialogueId, returnState?}
//	POST   /v1/games/{id}/dialogue/select     {index}
//	POST   /v1/games/{id}/dialogue/end
//	POST   /v1/games/{id}/move                {to:{x,y}, biome?, weather?}
//	POST   /v1/games/{id}/npcs/{npc}/talk
//	GET    /v1/games/{id}/journal?n=
func (h *GameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/games", h.handleCreate)
	mux.HandleFunc("GET /v1/games/{id}", h.withGame(h.handleSnapshot))
	mux.HandleFunc("DELETE /v1/games/{id}", h.handleDelete)
	mux.HandleFunc("POST /v1/games/{id}/dialogue/start", h.withGame(h.handleStartDialogue))
	mux.HandleFunc("POST /v1/games/{id}/dialogue/select", h.withGame(h.handleSelectOption))
	mux.HandleFunc("POST /v1/games/{id}/dialogue/end", h.withGame(h.handleEndDialogue))
	mux.HandleFunc("POST /v1/games/{id}/move", h.withGame(h.handleMove))
	mux.HandleFunc("POST /v1/games/{id}/npcs/{npc}/talk", h.withGame(h.handleTalk))
	mux.HandleFunc("GET /v1/games/{id}/journal", h.withGame(h.handleJournal))
}

func (h *GameHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", r.PathValue("id"), "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return uuid.Nil, false
	}
	return id, true
}

// withGame resolves the {id} path value to a running game.
func (h *GameHandler) withGame(next func(http.ResponseWriter, *http.Request, *game.Loop)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.parseID(w, r)
		if !ok {
			return
		}
		loop, err := h.games.Get(r.Context(), id)
		if err != nil {
			logger.WithGameID(h.logger, id.String()).Warn("Game lookup failed", "error", err)
			writeError(w, h.logger, statusFor(err), err.Error())
			return
		}
		next(w, r, loop)
	}
}

// respond writes the snapshot, or the error together with the snapshot
// when the command was rejected by the game.
func (h *GameHandler) respond(w http.ResponseWriter, snap game.Snapshot, err error) {
	if err != nil {
		status := statusFor(err)
		resp := ErrorResponse{Error: err.Error()}
		if snap.GameID != uuid.Nil {
			resp.Game = &snap
		}
		h.logger.Debug("Game command rejected", "status", status, "error", err)
		writeJSON(w, h.logger, status, resp)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}

func (h *GameHandler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !h.decode(w, r, &req) {
		return
	}

	loop, err := h.games.Create(r.Context(), req.PCID)
	if err != nil {
		h.logger.Warn("Failed to create game", "pc_id", req.PCID, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Failed to create game: %v", err))
		return
	}

	snap, err := loop.Snapshot(r.Context())
	if err != nil {
		writeError(w, h.logger, statusFor(err), err.Error())
		return
	}
	h.logger.Info("Game created", "game_id", loop.ID().String(), "pc_id", req.PCID)
	writeJSON(w, h.logger, http.StatusCreated, snap)
}

func (h *GameHandler) handleSnapshot(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	snap, err := loop.Snapshot(r.Context())
	h.respond(w, snap, err)
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.games.Delete(r.Context(), id); err != nil {
		logger.WithGameID(h.logger, id.String()).Error("Failed to delete game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	if h.journals != nil {
		if err := h.journals(id).Clear(r.Context()); err != nil {
			logger.WithGameID(h.logger, id.String()).Warn("Failed to clear journal", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) handleStartDialogue(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	var req StartDialogueRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.DialogueID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "dialogueId is required")
		return
	}
	snap, err := loop.StartDialogue(r.Context(), req.DialogueID, req.ReturnState)
	h.respond(w, snap, err)
}

func (h *GameHandler) handleSelectOption(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	var req SelectOptionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, h.logger, http.StatusBadRequest, "index is required")
		return
	}
	snap, err := loop.SelectOption(r.Context(), *req.Index)
	h.respond(w, snap, err)
}

func (h *GameHandler) handleEndDialogue(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	snap, err := loop.EndDialogue(r.Context())
	h.respond(w, snap, err)
}

func (h *GameHandler) handleMove(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	var req game.Move
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := loop.Move(r.Context(), req)
	h.respond(w, snap, err)
}

func (h *GameHandler) handleTalk(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	snap, err := loop.Talk(r.Context(), r.PathValue("npc"))
	h.respond(w, snap, err)
}

func (h *GameHandler) handleJournal(w http.ResponseWriter, r *http.Request, loop *game.Loop) {
	n := DefaultJournalEntries
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = v
	}

	resp := JournalResponse{Entries: []JournalEntry{}}
	if h.journals != nil {
		entries, err := h.journals(loop.ID()).Recent(r.Context(), n)
		if err != nil {
			logger.WithGameID(h.logger, loop.ID().String()).Error("Failed to read journal", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to read journal")
			return
		}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, JournalEntry{Text: e.Text, Kind: e.Kind, At: e.At})
		}
		writeJSON(w, h.logger, http.StatusOK, resp)
		return
	}

	entries, err := loop.Journal(r.Context(), n)
	if err != nil {
		writeError(w, h.logger, statusFor(err), err.Error())
		return
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, JournalEntry{Text: e.Text, Kind: e.Kind, At: e.At})
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
