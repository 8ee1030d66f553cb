package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/identity"
)

func TestBusRoutesByWorkspace(t *testing.T) {
	bus := NewBus()
	wsA := identity.NewID()
	wsB := identity.NewID()

	subA := bus.Subscribe(wsA)
	subB := bus.Subscribe(wsB)
	defer bus.Unsubscribe(subA)
	defer bus.Unsubscribe(subB)

	bus.Publish(Event{Type: TypeMessageCreated, WorkspaceID: wsA, ServerTS: identity.NowMS()})

	select {
	case got := <-subA.C:
		assert.Equal(t, TypeMessageCreated, got.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber A got nothing")
	}
	select {
	case got := <-subB.C:
		t.Fatalf("subscriber B should stay silent, got %s", got.Type)
	default:
	}
}

func TestBusLagOnOverflow(t *testing.T) {
	bus := NewBus()
	workspaceID := identity.NewID()
	sub := bus.Subscribe(workspaceID)
	defer bus.Unsubscribe(sub)

	// Fill the queue, then push three more that must be dropped.
	for i := 0; i < subscriberQueueSize+3; i++ {
		bus.Publish(Event{Type: TypeMessageCreated, WorkspaceID: workspaceID, ServerTS: identity.NowMS()})
	}

	// Drain one slot; the next publish delivers a LAG with the drop count.
	<-sub.C
	bus.Publish(Event{Type: TypeMessageUpdated, WorkspaceID: workspaceID, ServerTS: identity.NowMS()})

	var sawLag bool
	for i := 0; i < subscriberQueueSize+1; i++ {
		event := <-sub.C
		if event.Type == TypeLag {
			sawLag = true
			payload := event.Payload.(map[string]any)
			assert.Equal(t, 3, payload["dropped"])
			break
		}
	}
	assert.True(t, sawLag, "expected a LAG event after overflow")
}

func TestBusUnsubscribeClosesQueue(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(identity.NewID())
	bus.Unsubscribe(sub)
	_, open := <-sub.C
	assert.False(t, open)

	// Double unsubscribe is harmless.
	bus.Unsubscribe(sub)
}

func TestMirrorSkipsOwnEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	bus := NewBus()
	mirror := NewMirror(client, bus, "replica-1", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mirror.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	workspaceID := identity.NewID()
	sub := bus.Subscribe(workspaceID)
	defer bus.Unsubscribe(sub)

	// A frame from another replica is re-injected locally.
	frame, err := json.Marshal(mirrorFrame{
		Origin: "replica-2",
		Event:  Event{Type: TypeMessageCreated, WorkspaceID: workspaceID, ServerTS: identity.NowMS()},
	})
	require.NoError(t, err)
	mr.Publish(mirrorChannel, string(frame))

	select {
	case got := <-sub.C:
		assert.Equal(t, TypeMessageCreated, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("mirrored event never arrived")
	}

	// A frame from this replica is ignored.
	frame, err = json.Marshal(mirrorFrame{
		Origin: "replica-1",
		Event:  Event{Type: TypeMessageDeleted, WorkspaceID: workspaceID, ServerTS: identity.NowMS()},
	})
	require.NoError(t, err)
	mr.Publish(mirrorChannel, string(frame))

	select {
	case got := <-sub.C:
		t.Fatalf("own event should be skipped, got %s", got.Type)
	case <-time.After(200 * time.Millisecond):
	}
}
