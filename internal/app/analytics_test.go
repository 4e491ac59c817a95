package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/mocks"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

func TestAnalyticsDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	var (
		mu       sync.Mutex
		received []string
	)

	down := mocks.NewMockEventPublisher(t)
	down.EXPECT().Publish(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, e ports.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.ClientID())

		return nil
	}).Times(5)

	d := NewAnalyticsDispatcher(AnalyticsDispatcherConfig{
		Downstream: down,
		QueueSize:  10,
		Workers:    2,
		Logger:     discardLogger(),
	})

	for i := range 5 {
		require.NoError(t, d.Publish(context.Background(), NewRollEvent(string(rune('a'+i)), okOutcome())))
	}

	d.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, received)
}

func TestAnalyticsDispatcher_QueueFull(t *testing.T) {
	d := NewAnalyticsDispatcher(AnalyticsDispatcherConfig{
		Downstream: mocks.NewMockEventPublisher(t),
		QueueSize:  1,
		Logger:     discardLogger(),
	})

	require.NoError(t, d.Publish(context.Background(), NewRollEvent("a", okOutcome())))

	err := d.Publish(context.Background(), NewRollEvent("b", okOutcome()))
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, int64(1), d.Dropped())
}

func TestAnalyticsDispatcher_DeliveryErrorsAreSwallowed(t *testing.T) {
	down := mocks.NewMockEventPublisher(t)
	down.EXPECT().Publish(mock.Anything, mock.Anything).Return(errBoom).Twice()

	d := NewAnalyticsDispatcher(AnalyticsDispatcherConfig{Downstream: down, Logger: discardLogger()})
	d.Start(context.Background())

	require.NoError(t, d.Publish(context.Background(), NewRollEvent("a", okOutcome())))
	require.NoError(t, d.Publish(context.Background(), NewRollEvent("b", okOutcome())))

	require.NoError(t, d.Close(context.Background()))
}

func TestAnalyticsDispatcher_PublishAfterClose(t *testing.T) {
	d := NewAnalyticsDispatcher(AnalyticsDispatcherConfig{
		Downstream: mocks.NewMockEventPublisher(t),
		Logger:     discardLogger(),
	})

	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	err := d.Publish(context.Background(), NewRollEvent("a", okOutcome()))
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestNewAnalyticsDispatcher_PanicsWithoutDownstream(t *testing.T) {
	assert.Panics(t, func() {
		NewAnalyticsDispatcher(AnalyticsDispatcherConfig{})
	})
}
