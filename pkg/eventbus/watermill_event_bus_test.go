package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/channels/gochannel"
	"github.com/flowcanvas/flowcanvas/pkg/events"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	var (
		mu       sync.Mutex
		received []*events.StageLogAppended
	)

	err = bus.Handle(events.StageLogAppendedEvent, func(_ context.Context, event interface{}) error {
		logEvent, ok := event.(*events.StageLogAppended)
		require.True(t, ok)

		mu.Lock()
		received = append(received, logEvent)
		mu.Unlock()

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.StageLogAppended{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.StageLogAppendedEvent,
			Timestamp: time.Now().UTC(),
		},
		DeploymentID: "dep-1",
		StageID:      "stage-1",
		Line:         "Compiling sources",
		Progress:     50,
	}

	require.NoError(t, bus.Publish(ctx, "dep-1", event))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Compiling sources", received[0].Line)
	assert.Equal(t, 50, received[0].Progress)
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for this type; publish must not block or error.
	event := events.DeploymentStarted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.DeploymentStartedEvent,
			Timestamp: time.Now().UTC(),
		},
		DeploymentID: "dep-1",
		StageCount:   8,
	}

	assert.NoError(t, bus.Publish(ctx, "dep-1", event))
}
