package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/easyforty/funnel-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	mu          sync.Mutex
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdown = true

	return m.shutdownErr
}

func TestConsumerGroup(t *testing.T) {
	t.Run("starts and shuts down all consumers", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())

		first := &mockRunnable{}
		second := &mockRunnable{}
		group.Add(first)
		group.Add(second)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, first.started)
		assert.True(t, second.started)

		require.NoError(t, group.Shutdown())
		assert.True(t, first.shutdown)
		assert.True(t, second.shutdown)
	})

	t.Run("stops already started consumers when one fails", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())

		first := &mockRunnable{}
		failing := &mockRunnable{startErr: errors.New("start error")}
		group.Add(first)
		group.Add(failing)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.True(t, first.shutdown, "started consumers are rolled back")
	})

	t.Run("reports the first shutdown error", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())

		failing := &mockRunnable{shutdownErr: errors.New("shutdown error")}
		ok := &mockRunnable{}
		group.Add(failing)
		group.Add(ok)

		require.NoError(t, group.Start(context.Background()))

		err := group.Shutdown()

		assert.Error(t, err)
		assert.True(t, ok.shutdown, "remaining consumers still shut down")
	})
}
