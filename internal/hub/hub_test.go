package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctarail/internal/domain"
)

func newTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	return h, cancel
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", want)
}

func TestHubBroadcast(t *testing.T) {
	h, cancel := newTestHub(t)
	defer cancel()

	a := NewClient("a", 4)
	b := NewClient("b", 4)
	h.Register(a)
	h.Register(b)
	waitForClients(t, h, 2)

	h.BroadcastPositions([]*domain.TrainPosition{
		{Key: "red:417", Route: "red", RunNumber: "417"},
	})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var msg SnapshotMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, "snapshot", msg.Type)
			require.Len(t, msg.Trains, 1)
			assert.Equal(t, "417", msg.Trains[0].RunNumber)
		case <-time.After(time.Second):
			t.Fatalf("client %s never received the snapshot", c.ID)
		}
	}
}

func TestHubBroadcastEmptySnapshotDropped(t *testing.T) {
	h, cancel := newTestHub(t)
	defer cancel()

	c := NewClient("a", 4)
	h.Register(c)
	waitForClients(t, h, 1)

	h.BroadcastPositions(nil)

	select {
	case <-c.Send:
		t.Fatal("empty snapshot should not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, cancel := newTestHub(t)
	defer cancel()

	c := NewClient("a", 4)
	h.Register(c)
	waitForClients(t, h, 1)

	h.Unregister(c)
	waitForClients(t, h, 0)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubShutdownClosesClients(t *testing.T) {
	h, cancel := newTestHub(t)

	c := NewClient("a", 4)
	h.Register(c)
	waitForClients(t, h, 1)

	cancel()

	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel never closed on shutdown")
	}
}
