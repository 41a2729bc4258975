// Package journal persists a game's journal to a Redis list so it
// survives restarts and can be read by clients without touching the
// running game.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/redis/go-redis/v9"
)

// MaxEntries is the number of entries kept per game.
const MaxEntries = 500

const writeTimeout = 2 * time.Second

// Entry is one stored journal line.
type Entry struct {
	ID   uuid.UUID       `json:"id"`
	Text string          `json:"text"`
	Kind world.EntryType `json:"kind"`
	At   time.Time       `json:"at"`
}

// Journal implements world.Journal on top of RPUSH/LRANGE.
type Journal struct {
	client *redis.Client
	gameID uuid.UUID
	logger *slog.Logger
	now    func() time.Time
}

var _ world.Journal = (*Journal)(nil)

func New(client *redis.Client, gameID uuid.UUID, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		client: client,
		gameID: gameID,
		logger: logger.With("game_id", gameID.String()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Key returns the Redis list holding a game's journal.
func Key(gameID uuid.UUID) string {
	return "journal:" + gameID.String()
}

// AddJournalEntry appends an entry. Failures are logged; the game keeps
// running without the persisted copy.
func (j *Journal) AddJournalEntry(text string, kind world.EntryType) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := j.Append(ctx, text, kind); err != nil {
		j.logger.Error("Failed to persist journal entry", "error", err, "kind", kind)
	}
}

// Append stores an entry and trims the list to MaxEntries.
func (j *Journal) Append(ctx context.Context, text string, kind world.EntryType) error {
	data, err := json.Marshal(Entry{ID: uuid.New(), Text: text, Kind: kind, At: j.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	key := Key(j.gameID)
	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -MaxEntries, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first. n <= 0
// returns every stored entry.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}
	raw, err := j.client.LRange(ctx, Key(j.gameID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			j.logger.Warn("Skipping malformed journal entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear deletes the stored journal.
func (j *Journal) Clear(ctx context.Context) error {
	if err := j.client.Del(ctx, Key(j.gameID)).Err(); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}
