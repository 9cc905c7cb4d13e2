// Package notify delivers "new order" events to connected admin sessions.
// Delivery is at-most-once: nothing is acknowledged or replayed, and a slow
// subscriber loses events instead of blocking the publisher.
package notify

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/schedule"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const EventOrderCreated = "order.created"

const defaultBuffer = 16

type Event struct {
	Type         string          `json:"type"`
	OrderID      int64           `json:"order_id"`
	OrderToken   string          `json:"order_token"`
	UserLabel    string          `json:"user_email"`
	Total        decimal.Decimal `json:"total_amount"`
	ScheduledFor *schedule.Date  `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Subscriber interface {
	Subscribe(buffer int) *Subscription
}

// Subscription receives events on C until Cancel is called, which closes C.
type Subscription struct {
	C      <-chan Event
	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Broker fans events out to in-process subscribers.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		},
	}
}

// Publish never blocks and never fails.
func (b *Broker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Msgf("Subscribers too slow for %s event of order %d", ev.Type, ev.OrderID)
	}
	return nil
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
