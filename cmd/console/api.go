package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// APIError is a non-2xx answer from the API. Game is set when the server
// rejected a command and sent the current snapshot along.
type APIError struct {
	Status  int
	Message string
	Game    *game.Snapshot
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Message)
}

// APIClient talks to the game API.
type APIClient struct {
	http    *http.Client
	baseURL string
}

func NewAPIClient(client *http.Client, baseURL string) *APIClient {
	return &APIClient{http: client, baseURL: baseURL}
}

func (c *APIClient) testConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// call sends body as JSON and decodes a 2xx answer into out.
func (c *APIClient) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(data)}
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err == nil && errorResp.Error != "" {
			apiErr.Message = errorResp.Error
			apiErr.Game = errorResp.Game
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *APIClient) snapshotCall(ctx context.Context, method, path string, body any) (*game.Snapshot, error) {
	var snap game.Snapshot
	if err := c.call(ctx, method, path, body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func gamePath(id uuid.UUID, suffix string) string {
	return "/v1/games/" + id.String() + suffix
}

func (c *APIClient) CreateGame(ctx context.Context, pcID string) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, "/v1/games", handlers.CreateGameRequest{PCID: pcID})
}

func (c *APIClient) GetGame(ctx context.Context, id uuid.UUID) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodGet, gamePath(id, ""), nil)
}

func (c *APIClient) SelectOption(ctx context.Context, id uuid.UUID, index int) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, gamePath(id, "/dialogue/select"), handlers.SelectOptionRequest{Index: &index})
}

func (c *APIClient) EndDialogue(ctx context.Context, id uuid.UUID) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, gamePath(id, "/dialogue/end"), nil)
}

func (c *APIClient) Move(ctx context.Context, id uuid.UUID, to world.Point) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, gamePath(id, "/move"), game.Move{To: to})
}

func (c *APIClient) Talk(ctx context.Context, id uuid.UUID, npcID string) (*game.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, gamePath(id, "/npcs/"+url.PathEscape(npcID)+"/talk"), nil)
}

func (c *APIClient) Journal(ctx context.Context, id uuid.UUID, n int) ([]handlers.JournalEntry, error) {
	var resp handlers.JournalResponse
	if err := c.call(ctx, http.MethodGet, gamePath(id, "/journal?n="+strconv.Itoa(n)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}
