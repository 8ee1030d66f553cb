// Package events fans realtime events out to WebSocket sessions. Topics
// are per workspace; delivery is best-effort with bounded queues so one
// slow consumer cannot stall the rest.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lalith-99/galynx/internal/identity"
)

// Event type names, shared by the bus and the realtime wire protocol.
const (
	TypeWelcome         = "WELCOME"
	TypeMessageCreated  = "MESSAGE_CREATED"
	TypeMessageUpdated  = "MESSAGE_UPDATED"
	TypeMessageDeleted  = "MESSAGE_DELETED"
	TypeThreadUpdated   = "THREAD_UPDATED"
	TypeChannelCreated  = "CHANNEL_CREATED"
	TypeChannelDeleted  = "CHANNEL_DELETED"
	TypeReactionUpdated = "REACTION_UPDATED"
	TypeAck             = "ACK"
	TypeError           = "ERROR"
	TypeLag             = "LAG"
)

// Event is the outbound envelope every subscriber receives. Broadcast
// events carry no correlation id; ACK and ERROR frames echo the command's
// client_msg_id in it.
type Event struct {
	Type          string     `json:"event_type"`
	WorkspaceID   uuid.UUID  `json:"workspace_id"`
	ChannelID     *uuid.UUID `json:"channel_id,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	ServerTS      int64      `json:"server_ts"`
	Payload       any        `json:"payload"`
}

const subscriberQueueSize = 256

// Subscription is one consumer's bounded queue. Read from C until it is
// closed by Unsubscribe.
type Subscription struct {
	C           chan Event
	workspaceID uuid.UUID
	dropped     int
}

// Bus routes events to workspace subscribers. An optional forwarder (the
// redis mirror) sees every locally originated event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]map[*Subscription]struct{}
	forward func(Event)
	dropped atomic.Int64
}

// Dropped returns the total events dropped across all subscribers since
// the bus was created.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

// SetForwarder registers a hook invoked for every event published on this
// replica. Must be called before the bus is in use.
func (b *Bus) SetForwarder(forward func(Event)) {
	b.forward = forward
}

func (b *Bus) Subscribe(workspaceID uuid.UUID) *Subscription {
	sub := &Subscription{
		C:           make(chan Event, subscriberQueueSize),
		workspaceID: workspaceID,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[workspaceID] == nil {
		b.subs[workspaceID] = make(map[*Subscription]struct{})
	}
	b.subs[workspaceID][sub] = struct{}{}
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[sub.workspaceID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.workspaceID)
	}
	close(sub.C)
}

// Publish delivers to local subscribers and forwards to the mirror.
func (b *Bus) Publish(event Event) {
	b.PublishLocal(event)
	if b.forward != nil {
		b.forward(event)
	}
}

// PublishLocal delivers to this replica's subscribers only. The mirror
// uses it to re-inject events from other replicas without echo loops.
// Delivery never blocks: a full queue drops the event, and once space
// frees the subscriber gets a single LAG event carrying the drop count.
func (b *Bus) PublishLocal(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[event.WorkspaceID] {
		if sub.dropped > 0 {
			lag := Event{
				Type:        TypeLag,
				WorkspaceID: event.WorkspaceID,
				Payload:     map[string]any{"dropped": sub.dropped},
				ServerTS:    identity.NowMS(),
			}
			select {
			case sub.C <- lag:
				sub.dropped = 0
			default:
				sub.dropped++
				b.dropped.Add(1)
				continue
			}
		}
		select {
		case sub.C <- event:
		default:
			sub.dropped++
			b.dropped.Add(1)
		}
	}
}
