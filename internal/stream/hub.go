package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"coinwatch/internal/models"
)

const writeTimeout = 5 * time.Second

// Hub fans freshly collected samples out to connected dashboard clients.
// Broadcast never blocks the collector: a subscriber that cannot keep up
// has frames dropped.
type Hub struct {
	Logger *zap.Logger

	buffer int

	mu   sync.Mutex
	subs map[chan models.PriceSample]struct{}
}

func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		Logger: logger,
		buffer: buffer,
		subs:   make(map[chan models.PriceSample]struct{}),
	}
}

func (h *Hub) subscribe() chan models.PriceSample {
	ch := make(chan models.PriceSample, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan models.PriceSample) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// SubscriberCount reports the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast delivers a sample to every subscriber without blocking.
func (h *Hub) Broadcast(sample models.PriceSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- sample:
		default:
		}
	}
}

// Serve pumps samples to one websocket connection until the client closes
// or ctx is canceled. Incoming frames are discarded via CloseRead.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) error {
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample := <-ch:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, sample)
			cancel()
			if err != nil {
				if h.Logger != nil {
					h.Logger.Debug("stream write failed", zap.Error(err))
				}
				return err
			}
		}
	}
}
