package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeEventStarted   EventType = "event.started"
	EventTypeEventAdvanced  EventType = "event.advanced"
	EventTypeEventEnded     EventType = "event.ended"
	EventTypeActionExecuted EventType = "action.executed"
	EventTypeChatReply      EventType = "chat.reply"
	EventTypeChatFailed     EventType = "chat.failed"
	EventTypeSessionUpdated EventType = "session.updated"
)

// Event is one entry on a session's activity feed.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Time      time.Time      `json:"time"`
	Data      map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes session activity to Redis Pub/Sub for SSE
// distribution. A nil Broadcaster drops everything.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

func channelName(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// PublishEvent reports an event start, transition or end.
func (b *Broadcaster) PublishEvent(ctx context.Context, sessionID uuid.UUID, typ EventType, ae *event.ActiveEvent) error {
	data := map[string]any{}
	if ae != nil {
		data["definition_id"] = ae.DefinitionID
		data["step_id"] = ae.CurrentStepID
		data["target"] = ae.Target
		data["finished"] = ae.Finished
	}
	return b.Publish(ctx, sessionID, typ, data)
}

// PublishActionExecuted reports a conditioning action result.
func (b *Broadcaster) PublishActionExecuted(ctx context.Context, sessionID uuid.UUID, res *conditioning.Result) error {
	if res == nil {
		return nil
	}
	data := map[string]any{
		"action_id":        res.ActionID,
		"success":          res.Success,
		"delta":            res.Delta,
		"new_conditioning": res.NewConditioning,
	}
	if res.ThresholdCrossed != "" {
		data["threshold_crossed"] = string(res.ThresholdCrossed)
	}
	return b.Publish(ctx, sessionID, EventTypeActionExecuted, data)
}

// PublishChatReply reports a delivered reply.
func (b *Broadcaster) PublishChatReply(ctx context.Context, sessionID uuid.UUID, msg *chat.Message, count int) error {
	if msg == nil {
		return nil
	}
	return b.Publish(ctx, sessionID, EventTypeChatReply, map[string]any{
		"sender":        msg.Sender,
		"text":          msg.Text,
		"message_count": count,
	})
}

// PublishChatFailed reports a failed generation.
func (b *Broadcaster) PublishChatFailed(ctx context.Context, sessionID uuid.UUID, errorMsg string) error {
	return b.Publish(ctx, sessionID, EventTypeChatFailed, map[string]any{"error": errorMsg})
}

// Publish sends one event to the session channel.
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, typ EventType, data map[string]any) error {
	if b == nil {
		return nil
	}
	ev := Event{
		Type:      typ,
		SessionID: sessionID.String(),
		Time:      time.Now().UTC(),
		Data:      data,
	}
	channel := channelName(sessionID)

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "type", typ)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", typ)
	return nil
}

// Subscription is a live feed of one session's events.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Events is closed when the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

// Subscribe starts listening to a session channel. The subscription is
// confirmed before it is returned, so nothing published afterwards is missed.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) (*Subscription, error) {
	if b == nil {
		return nil, fmt.Errorf("broadcaster is not configured")
	}
	pubsub := b.redisClient.Subscribe(ctx, channelName(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &Subscription{pubsub: pubsub, events: make(chan Event, 16), done: make(chan struct{})}
	msgs := pubsub.Channel()
	go func() {
		defer close(sub.events)
		for msg := range msgs {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("Dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case sub.events <- ev:
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}
