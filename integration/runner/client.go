package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
)

// pollInterval is how often a wait step re-reads the game.
const pollInterval = 100 * time.Millisecond

// Call sends one request and decodes the game snapshot from the reply.
// Rejected commands still return their snapshot when the API includes one.
func Call(ctx context.Context, client *http.Client, method, target string, body any) (int, *game.Snapshot, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var snap game.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		return resp.StatusCode, &snap, nil
	}

	var apiErr handlers.ErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return resp.StatusCode, apiErr.Game, nil
}

// CreateGame starts a game for pcID, or the server default when empty.
func CreateGame(ctx context.Context, client *http.Client, baseURL, pcID string) (uuid.UUID, error) {
	status, snap, err := Call(ctx, client, http.MethodPost, baseURL+"/v1/games", handlers.CreateGameRequest{PCID: pcID})
	if err != nil {
		return uuid.Nil, err
	}
	if status != http.StatusCreated || snap == nil {
		return uuid.Nil, fmt.Errorf("create game returned status %d", status)
	}
	return snap.GameID, nil
}

// DeleteGame stops and removes a game. A missing game is not an error.
func DeleteGame(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	status, _, err := Call(ctx, client, http.MethodDelete, gameURL(baseURL, id, ""), nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete game returned status %d", status)
	}
	return nil
}

// PollForExpectations re-reads the game until check passes or ctx ends.
// The last check error is returned on timeout.
func PollForExpectations(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, check func(*game.Snapshot) error) (*game.Snapshot, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last error
	for {
		status, snap, err := Call(ctx, client, http.MethodGet, gameURL(baseURL, id, ""), nil)
		switch {
		case err != nil:
			last = err
		case status != http.StatusOK:
			last = fmt.Errorf("get game returned status %d", status)
		default:
			if last = check(snap); last == nil {
				return snap, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for game state: %w", last)
		case <-ticker.C:
		}
	}
}

func gameURL(baseURL string, id uuid.UUID, suffix string) string {
	return baseURL + "/v1/games/" + id.String() + suffix
}

func talkURL(baseURL string, id uuid.UUID, npc string) string {
	return gameURL(baseURL, id, "/npcs/"+url.PathEscape(npc)+"/talk")
}
