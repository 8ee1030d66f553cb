package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	mirrorChannel        = "galynx:ws:events"
	mirrorPublishRetry   = 400 * time.Millisecond
	mirrorReconnectDelay = time.Second
)

// mirrorFrame wraps an event with the replica that originated it so a
// replica can skip its own publications when they come back around.
type mirrorFrame struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Mirror replicates bus events across instances through a redis pub/sub
// channel. Each replica publishes what it originates and re-injects what
// the others publish.
type Mirror struct {
	client     *redis.Client
	bus        *Bus
	instanceID string
	logger     *zap.Logger
}

func NewMirror(client *redis.Client, bus *Bus, instanceID string, logger *zap.Logger) *Mirror {
	m := &Mirror{
		client:     client,
		bus:        bus,
		instanceID: instanceID,
		logger:     logger,
	}
	bus.SetForwarder(m.publish)
	return m
}

func (m *Mirror) publish(event Event) {
	payload, err := json.Marshal(mirrorFrame{Origin: m.instanceID, Event: event})
	if err != nil {
		m.logger.Error("marshal mirror frame", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.client.Publish(ctx, mirrorChannel, payload).Err(); err == nil {
		return
	}
	// One retry after a short pause covers transient redis hiccups;
	// beyond that the event is local-only.
	time.Sleep(mirrorPublishRetry)
	if err := m.client.Publish(ctx, mirrorChannel, payload).Err(); err != nil {
		m.logger.Warn("mirror publish failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// Run consumes the mirror channel until ctx is cancelled, reconnecting
// after a pause when the subscription breaks.
func (m *Mirror) Run(ctx context.Context) {
	for {
		if err := m.consume(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn("mirror subscription lost, reconnecting", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(mirrorReconnectDelay):
		}
	}
}

func (m *Mirror) consume(ctx context.Context) error {
	sub := m.client.Subscribe(ctx, mirrorChannel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var frame mirrorFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			m.logger.Warn("malformed mirror frame", zap.Error(err))
			continue
		}
		if frame.Origin == m.instanceID {
			continue
		}
		m.bus.PublishLocal(frame.Event)
	}
}
