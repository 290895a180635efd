package reporting

import (
	"context"
	"sync"
	"sync/atomic"

	"runlevelctl/internal/orchestrator"

	"github.com/google/uuid"
)

// DefaultBufferSize is the channel capacity used when Subscribe is given none.
const DefaultBufferSize = 64

// EventFilter decides whether a subscriber receives an event.
type EventFilter func(Event) bool

// Subscription is one consumer of a Broadcaster.
type Subscription struct {
	ID     string
	Events <-chan Event

	ch     chan Event
	filter EventFilter
}

// BroadcasterMetrics counts what a Broadcaster did with published events.
type BroadcasterMetrics struct {
	Subscribers     int
	EventsPublished int64
	EventsDelivered int64
	EventsDropped   int64
}

// Broadcaster is an orchestrator.Listener that fans events out to channel
// subscribers. A subscriber whose channel is full misses the event; publishing
// never blocks the driver.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

var _ orchestrator.Listener = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*Subscription)}
}

// Subscribe registers a subscriber. A nil filter receives everything. It returns
// nil once the Broadcaster is closed.
func (b *Broadcaster) Subscribe(filter EventFilter, bufferSize int) *Subscription {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	ch := make(chan Event, bufferSize)
	sub := &Subscription{
		ID:     uuid.NewString(),
		Events: ch,
		ch:     ch,
		filter: filter,
	}
	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.ID]; ok {
		delete(b.subs, sub.ID)
		close(sub.ch)
	}
}

// Publish delivers e to every matching subscriber that has room for it.
func (b *Broadcaster) Publish(e Event) {
	// Channels are only closed under the write lock, so sending under the read
	// lock cannot hit a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.published.Add(1)

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		select {
		case sub.ch <- e:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
		}
	}
}

// Metrics returns a snapshot of the delivery counters.
func (b *Broadcaster) Metrics() BroadcasterMetrics {
	b.mu.RLock()
	subscribers := len(b.subs)
	b.mu.RUnlock()
	return BroadcasterMetrics{
		Subscribers:     subscribers,
		EventsPublished: b.published.Load(),
		EventsDelivered: b.delivered.Load(),
		EventsDropped:   b.dropped.Load(),
	}
}

// Close closes every subscription. Later publishes are ignored.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// OnProgress implements orchestrator.Listener.
func (b *Broadcaster) OnProgress(ctx context.Context, state orchestrator.State) {
	b.Publish(NewEvent(ctx, EventTypeProgress, state, state.CurrentRunLevel()))
}

// OnCancelled implements orchestrator.Listener.
func (b *Broadcaster) OnCancelled(ctx context.Context, state orchestrator.State, target int) {
	b.Publish(NewEvent(ctx, EventTypeCancelled, state, target))
}

// OnError implements orchestrator.Listener.
func (b *Broadcaster) OnError(ctx context.Context, state orchestrator.State, level int, err error) {
	b.Publish(NewEvent(ctx, EventTypeError, state, level).WithError(err))
}

// FilterByType matches events of the given types.
func FilterByType(eventTypes ...EventType) EventFilter {
	typeMap := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		typeMap[t] = true
	}
	return func(e Event) bool {
		return typeMap[e.Type]
	}
}

// FilterByTransition matches events raised on behalf of one transition.
func FilterByTransition(id string) EventFilter {
	return func(e Event) bool {
		return e.TransitionID == id
	}
}
