package events

import (
	"sync"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// Bus fans inbound agent events out to per-kind subscribers.
//
// Each subscriber receives every event of its kind, in publish order. A
// subscription only sees events published after it was created; the bus is
// a broadcast, not a replay log. The bus is created together with the agent
// connection and closed when the connection goes away.
type Bus struct {
	mu     sync.Mutex
	subs   map[protocol.EventKind]map[*Subscription]struct{}
	closed bool
}

// NewBus creates an empty bus with no subscribers.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[protocol.EventKind]map[*Subscription]struct{}),
	}
}

// Subscribe registers interest in one event kind. The returned subscription
// delivers events on Events() until Cancel is called or the bus is closed.
//
// Subscribing on a closed bus returns an already-cancelled subscription
// whose Events() channel is closed, so teardown races stay harmless.
func (b *Bus) Subscribe(kind protocol.EventKind) *Subscription {
	s := newSubscription(b, kind)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.Cancel()
		return s
	}
	set, ok := b.subs[kind]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[kind] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	return s
}

// Publish delivers an event to every current subscriber of its kind.
// Publish never blocks: each subscription queues internally and preserves
// FIFO order for its consumer.
func (b *Bus) Publish(ev *protocol.Event) {
	if ev == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	targets := make([]*Subscription, 0, len(b.subs[ev.Kind]))
	for s := range b.subs[ev.Kind] {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	if len(targets) == 0 {
		logging.LogEventDropped(string(ev.Kind), ev.CorrelationKey, "no subscribers")
		return
	}
	for _, s := range targets {
		s.enqueue(ev)
	}
}

// Close cancels every subscription and rejects further publishes and
// subscribes. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*Subscription
	for _, set := range b.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	b.subs = make(map[protocol.EventKind]map[*Subscription]struct{})
	b.mu.Unlock()

	for _, s := range all {
		s.cancelLocal()
	}
}

// remove detaches a subscription from the bus. Called from Cancel.
func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	if set, ok := b.subs[s.kind]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.kind)
		}
	}
	b.mu.Unlock()
}
