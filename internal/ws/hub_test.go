package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YarinDev/recipe-app-api/internal/domain"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []domain.RecipeEvent
	fail   bool
	closed bool
}

func (s *recordingSubscriber) Send(event domain.RecipeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("boom")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func TestHubPublishesOnlyToOwner(t *testing.T) {
	hub := NewHub()
	owner := &recordingSubscriber{}
	other := &recordingSubscriber{}
	hub.Register("user-1", owner)
	hub.Register("user-2", other)

	hub.Publish("user-1", domain.RecipeEvent{Type: domain.EventRecipeCreated, RecipeID: "r1"})

	if len(owner.events) != 1 || owner.events[0].RecipeID != "r1" {
		t.Fatalf("owner events = %+v", owner.events)
	}
	if len(other.events) != 0 {
		t.Fatalf("other user received %+v", other.events)
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub()
	bad := &recordingSubscriber{fail: true}
	hub.Register("user-1", bad)
	hub.Publish("user-1", domain.RecipeEvent{Type: domain.EventRecipeDeleted, RecipeID: "r1"})

	if !bad.closed {
		t.Fatal("expected failing subscriber closed")
	}
	if n := hub.Subscribers("user-1"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	sub := &recordingSubscriber{}
	hub.Register("user-1", sub)
	hub.Unregister("user-1", sub)
	hub.Publish("user-1", domain.RecipeEvent{Type: domain.EventRecipeUpdated})
	if len(sub.events) != 0 {
		t.Fatalf("unexpected events %+v", sub.events)
	}
}

// frameBuffer is a flushable writer that is safe to read while Serve writes.
type frameBuffer struct {
	mu      sync.Mutex
	buf     strings.Builder
	flushes int
}

func (b *frameBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *frameBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushes++
}

func (b *frameBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSSEClientWritesNamedEvents(t *testing.T) {
	out := &frameBuffer{}
	client := NewSSEClient(out, out, discardLogger())
	event := domain.RecipeEvent{Type: domain.EventRecipeCreated, RecipeID: "r1", Title: "Soup", OccurredAt: time.Unix(0, 0).UTC()}
	if err := client.Send(event); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- client.Serve(ctx, time.Hour) }()

	waitUntil(t, func() bool { return strings.Contains(out.String(), "event: recipe.created\nid: r1\ndata: {") })
	if !strings.HasPrefix(out.String(), ": ping\n\n") {
		t.Fatalf("expected initial heartbeat in %q", out.String())
	}
	cancel()
	if err := <-served; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	client.Close()
	if err := client.Send(event); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}

func TestSSEClientSendNeverBlocksOnStalledReader(t *testing.T) {
	client := NewSSEClient(httptest.NewRecorder(), httptest.NewRecorder(), discardLogger())
	event := domain.RecipeEvent{Type: domain.EventRecipeUpdated, RecipeID: "r1"}
	for i := 0; i < sendBuffer; i++ {
		if err := client.Send(event); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := client.Send(event); !errors.Is(err, ErrSlowClient) {
		t.Fatalf("expected ErrSlowClient once the buffer is full, got %v", err)
	}
}

func TestHubPublishDropsStalledStream(t *testing.T) {
	hub := NewHub()
	stalled := NewSSEClient(httptest.NewRecorder(), httptest.NewRecorder(), discardLogger())
	hub.Register("user-1", stalled)

	published := make(chan struct{})
	go func() {
		for i := 0; i <= sendBuffer; i++ {
			hub.Publish("user-1", domain.RecipeEvent{Type: domain.EventRecipeUpdated, RecipeID: "r1"})
		}
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stream nobody reads")
	}
	if n := hub.Subscribers("user-1"); n != 0 {
		t.Fatalf("expected stalled stream dropped, got %d subscribers", n)
	}
	if err := stalled.Serve(context.Background(), 0); err != nil {
		t.Fatalf("Serve after drop should return nil, got %v", err)
	}
}
