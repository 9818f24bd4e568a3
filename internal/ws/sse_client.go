package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/YarinDev/recipe-app-api/internal/domain"
)

// SSEClient streams recipe events as Server-Sent Events. Send only queues
// frames; Serve writes them on the goroutine that owns the ResponseWriter.
type SSEClient struct {
	writer  io.Writer
	flusher http.Flusher
	log     *slog.Logger
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

// NewSSEClient builds an SSE client instance.
func NewSSEClient(writer io.Writer, flusher http.Flusher, logger *slog.Logger) *SSEClient {
	return &SSEClient{
		writer:  writer,
		flusher: flusher,
		log:     logger,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// Send queues one named event frame without blocking.
func (c *SSEClient) Send(event domain.RecipeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return io.EOF
	default:
	}
	frame := []byte(fmt.Sprintf("event: %s\nid: %s\ndata: %s\n\n", event.Type, event.RecipeID, payload))
	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("sse client dropped", "error", ErrSlowClient)
		return ErrSlowClient
	}
}

// Close stops Serve and rejects further sends.
func (c *SSEClient) Close() {
	c.once.Do(func() { close(c.done) })
}

// Serve writes queued frames, plus a comment heartbeat every interval, until
// ctx ends, the client is closed or a write fails.
func (c *SSEClient) Serve(ctx context.Context, heartbeat time.Duration) error {
	if err := c.write([]byte(": ping\n\n")); err != nil {
		return err
	}
	var tick <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				return err
			}
		case <-tick:
			if err := c.write([]byte(": ping\n\n")); err != nil {
				return err
			}
		}
	}
}

func (c *SSEClient) write(frame []byte) error {
	if _, err := c.writer.Write(frame); err != nil {
		c.log.Warn("sse write failed", "error", err)
		c.Close()
		return err
	}
	c.flusher.Flush()
	return nil
}
