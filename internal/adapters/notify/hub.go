// Package notify fans store changes out to live dashboards.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/domain"
)

const subscriberBuffer = 16

// Hub is the single-process feed. A slow subscriber loses changes rather than
// blocking writers; every change only means "reload".
type Hub struct {
	mu   sync.Mutex
	subs map[chan domain.Change]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan domain.Change]struct{}{}}
}

func (h *Hub) Publish(_ context.Context, c domain.Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
			log.Debug().Str("kind", string(c.Kind)).Msg("notify: slow subscriber, change dropped")
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan domain.Change, error) {
	ch := make(chan domain.Change, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch, nil
}

// Subscribers is the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
