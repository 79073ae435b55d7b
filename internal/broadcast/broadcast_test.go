package broadcast

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type fakeRecipient struct {
	mu          sync.Mutex
	sendErr     error
	received    []string
	interrupted bool
	closed      bool
}

func (f *fakeRecipient) Send(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, message)
	return nil
}

func (f *fakeRecipient) Interrupt() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupted = true
}

func (f *fakeRecipient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newBroadcaster(t *testing.T) (*Broadcaster, *registry.Registry[Recipient], *monitor.Metrics) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New[Recipient]()
	metrics := monitor.NewMetrics("test", prometheus.NewRegistry())

	return New(logger, reg, metrics), reg, metrics
}

func TestBroadcaster_Broadcast(t *testing.T) {
	t.Run("Delivers the delimited message to every recipient", func(t *testing.T) {
		// Given: two registered recipients
		b, reg, _ := newBroadcaster(t)
		zero, one := &fakeRecipient{}, &fakeRecipient{}
		require.NoError(t, reg.Register(entity.PlayerZero, zero))
		require.NoError(t, reg.Register(entity.PlayerOne, one))

		// When: broadcasting
		b.Broadcast("hello")

		// Then: both got the delimiter line followed by the message
		want := []string{protocol.Delimiter + "\nhello"}
		assert.Equal(t, want, zero.received)
		assert.Equal(t, want, one.received)
	})

	t.Run("A failing recipient does not stop delivery and is removed", func(t *testing.T) {
		// Given: player 0 has a broken connection
		b, reg, metrics := newBroadcaster(t)
		broken, healthy := &fakeRecipient{sendErr: errBrokenPipe}, &fakeRecipient{}
		require.NoError(t, reg.Register(entity.PlayerZero, broken))
		require.NoError(t, reg.Register(entity.PlayerOne, healthy))

		// When: broadcasting
		b.Broadcast("update")

		// Then: player 1 still got the message, player 0 was dropped and closed
		assert.Len(t, healthy.received, 1)
		assert.True(t, broken.closed)
		assert.False(t, healthy.closed)
		assert.Equal(t, 1, reg.Len())
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.BroadcastFailures), 0)
	})

	t.Run("Nothing happens with an empty registry", func(t *testing.T) {
		b, _, _ := newBroadcaster(t)

		assert.NotPanics(t, func() { b.Broadcast("nobody") })
	})
}

func TestBroadcaster_BroadcastFinal(t *testing.T) {
	// Given: two registered recipients
	b, reg, _ := newBroadcaster(t)
	zero, one := &fakeRecipient{}, &fakeRecipient{}
	require.NoError(t, reg.Register(entity.PlayerZero, zero))
	require.NoError(t, reg.Register(entity.PlayerOne, one))

	// When: broadcasting the last message
	b.BroadcastFinal("game over")

	// Then: both received it and were interrupted
	assert.Len(t, zero.received, 1)
	assert.Len(t, one.received, 1)
	assert.True(t, zero.interrupted)
	assert.True(t, one.interrupted)
}
