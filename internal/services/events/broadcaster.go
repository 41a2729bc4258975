package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeDialogueStarted    EventType = "dialogue.started"
	EventTypeDialogueNode       EventType = "dialogue.node_changed"
	EventTypeDialogueEnded      EventType = "dialogue.ended"
	EventTypeSkillCheckResolved EventType = "skill_check.resolved"
	EventTypeRandomEvent        EventType = "world.random_event"
	EventTypePlayerMoved        EventType = "world.player_moved"
	EventTypeSound              EventType = "audio.play"
)

const publishTimeout = 2 * time.Second

// Event represents a generic event structure
type Event struct {
	Type   EventType              `json:"type"`
	GameID string                 `json:"game_id,omitempty"`
	At     time.Time              `json:"at"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster publishes engine events for one game to Redis Pub/Sub. It
// is the dialogue and encounter observer and the audio collaborator.
type Broadcaster struct {
	redisClient *redis.Client
	gameID      uuid.UUID
	logger      *slog.Logger
	now         func() time.Time
}

var (
	_ narrative.Observer = (*Broadcaster)(nil)
	_ encounter.Observer = (*Broadcaster)(nil)
	_ world.Audio        = (*Broadcaster)(nil)
)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, gameID uuid.UUID, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		redisClient: redisClient,
		gameID:      gameID,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (b *Broadcaster) DialogueStarted(treeID, nodeID string) {
	b.emit(EventTypeDialogueStarted, map[string]interface{}{
		"dialogue_id": treeID,
		"node_id":     nodeID,
	})
}

func (b *Broadcaster) NodeChanged(treeID, nodeID string) {
	b.emit(EventTypeDialogueNode, map[string]interface{}{
		"dialogue_id": treeID,
		"node_id":     nodeID,
	})
}

func (b *Broadcaster) SkillCheckResolved(treeID string, result skillcheck.Result) {
	b.emit(EventTypeSkillCheckResolved, map[string]interface{}{
		"dialogue_id": treeID,
		"result":      result,
	})
}

func (b *Broadcaster) DialogueEnded(treeID, returnState string) {
	b.emit(EventTypeDialogueEnded, map[string]interface{}{
		"dialogue_id":  treeID,
		"return_state": returnState,
	})
}

func (b *Broadcaster) EventTriggered(ev encounter.Event, scope encounter.Scope, biome string) {
	b.emit(EventTypeRandomEvent, map[string]interface{}{
		"event_id": ev.ID,
		"name":     ev.Name,
		"scope":    scope,
		"biome":    biome,
	})
}

// PlayerMoved announces a completed move.
func (b *Broadcaster) PlayerMoved(p world.Point, biome, weather string) {
	b.emit(EventTypePlayerMoved, map[string]interface{}{
		"x":       p.X,
		"y":       p.Y,
		"biome":   biome,
		"weather": weather,
	})
}

// PlaySound forwards an audio cue to clients.
func (b *Broadcaster) PlaySound(name string) {
	b.emit(EventTypeSound, map[string]interface{}{"sound": name})
}

// emit publishes without blocking the caller on errors. Observers have no
// error path back into the engine.
func (b *Broadcaster) emit(eventType EventType, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = b.Publish(ctx, Event{Type: eventType, Data: data})
}

// Publish sends event on the game's channel.
func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	event.GameID = b.gameID.String()
	if event.At.IsZero() {
		event.At = b.now()
	}
	return b.publishToGame(ctx, event)
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, event Event) error {
	channel := Channel(b.gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
