package lottery

import (
	"context"
	"sync"
	"time"
)

// Update types pushed to stream listeners.
const (
	UpdateEntry    = "entry"
	UpdateSnapshot = "snapshot"
	UpdatePayout   = "payout"
	UpdateConfig   = "config"
)

// Update represents a round state change pushed to stream listeners.
type Update struct {
	Type              string    `json:"type"`
	Wallet            string    `json:"wallet,omitempty"`
	Outcome           Outcome   `json:"outcome,omitempty"`
	TotalParticipants uint32    `json:"total_participants"`
	TotalTickets      uint32    `json:"total_tickets"`
	JackpotAmount     uint64    `json:"jackpot_amount"`
	CarryOverAmount   uint64    `json:"carry_over_amount"`
	Timestamp         time.Time `json:"timestamp"`
}

// Broadcaster fans round updates out to every registered listener, so
// concurrent SSE and WebSocket clients each see the full stream.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[chan Update]struct{}
	buffer    int
}

// NewBroadcaster creates a broadcaster. Each listener gets its own channel
// with the given buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{
		listeners: make(map[chan Update]struct{}),
		buffer:    buffer,
	}
}

// Send publishes an update to every listener (non-blocking, slow listeners
// drop updates rather than stalling the engine).
func (b *Broadcaster) Send(update Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners {
		select {
		case ch <- update:
		default:
		}
	}
}

// Listen registers a new listener and returns its channel plus a cancel
// function. Cancelling, or cancelling ctx, unregisters the listener and
// closes the channel.
func (b *Broadcaster) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	ch := make(chan Update, b.buffer)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()

	listenerCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-listenerCtx.Done()
		b.mu.Lock()
		// Removal happens under the same lock as Send, so no send can race
		// with the close.
		if _, ok := b.listeners[ch]; ok {
			delete(b.listeners, ch)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch, cancel
}
