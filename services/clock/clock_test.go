package clock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/types"
)

func TestGate_DefaultThreshold(t *testing.T) {
	stale := &Gate{Now: func() time.Time { return time.Unix(60, 0) }}
	if stale.Synced() {
		t.Fatal("epoch-era clock reported synced")
	}
	fresh := &Gate{Now: func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }}
	if !fresh.Synced() {
		t.Fatal("current clock reported unsynced")
	}
}

func TestService_PublishesOnceSynced(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(60, 0)
	gate := &Gate{Now: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}}

	b := bus.NewBus(8)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(gate, b.NewConnection("clock"), log)
	svc.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { _ = svc.Run(ctx); close(done) }()

	sub := b.NewConnection("test").Subscribe(TopicState)
	if st := nextState(t, sub); st.Synced {
		t.Fatal("initial state should be unsynced")
	}

	mu.Lock()
	now = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	mu.Unlock()

	if st := nextState(t, sub); !st.Synced {
		t.Fatal("expected synced state after clock jump")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("service did not exit after sync")
	}
}

func nextState(t *testing.T, sub *bus.Subscription) types.ClockState {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		st, ok := msg.Payload.(types.ClockState)
		if !ok {
			t.Fatalf("unexpected payload %#v", msg.Payload)
		}
		return st
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for clock/state")
		return types.ClockState{}
	}
}
