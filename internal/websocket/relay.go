package websocket

import (
	"TaskChatAPI/internal/adapter"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const conversationChannelPrefix = "chat:conversation:"

type relayEnvelope struct {
	Origin        string          `json:"origin"`
	ExcludeUserID string          `json:"excludeUserId,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// RedisRelay fans room broadcasts out to every instance sharing the Redis.
// Each instance tags what it publishes and skips its own messages, since
// local delivery already happened.
type RedisRelay struct {
	redisAdapter *adapter.RedisAdapter
	hub          *Hub
	instanceID   string
}

func NewRedisRelay(redisAdapter *adapter.RedisAdapter, hub *Hub) *RedisRelay {
	return &RedisRelay{
		redisAdapter: redisAdapter,
		hub:          hub,
		instanceID:   uuid.NewString(),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, conversationID string, data []byte, excludeUserID string) error {
	payload, err := json.Marshal(relayEnvelope{
		Origin:        r.instanceID,
		ExcludeUserID: excludeUserID,
		Data:          data,
	})
	if err != nil {
		return err
	}
	return r.redisAdapter.Publish(ctx, conversationChannelPrefix+conversationID, payload)
}

// Start subscribes and returns once Redis confirmed the subscription. Inbound
// messages are delivered until ctx is done.
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.redisAdapter.PSubscribe(ctx, conversationChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	slog.Info("Redis relay subscribed", "instanceID", r.instanceID)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}

func (r *RedisRelay) handle(channel, payload string) {
	var envelope relayEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		slog.Warn("Ignoring malformed relay message", "error", err, "channel", channel)
		return
	}
	if envelope.Origin == r.instanceID {
		return
	}

	conversationID := strings.TrimPrefix(channel, conversationChannelPrefix)
	r.hub.DeliverLocal(conversationID, envelope.Data, envelope.ExcludeUserID)
}
