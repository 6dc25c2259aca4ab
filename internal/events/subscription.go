package events

import (
	"sync"

	"github.com/muurk/visorctl/internal/protocol"
)

// Subscription is one subscriber's view of a single event kind.
//
// Events are buffered internally in arrival order and handed to the
// consumer through Events(). The channel is closed when the subscription is
// cancelled, so a plain range loop terminates cleanly on teardown.
type Subscription struct {
	bus  *Bus
	kind protocol.EventKind

	mu    sync.Mutex
	queue []*protocol.Event

	notify chan struct{}
	done   chan struct{}
	out    chan *protocol.Event
	once   sync.Once
}

func newSubscription(bus *Bus, kind protocol.EventKind) *Subscription {
	s := &Subscription{
		bus:    bus,
		kind:   kind,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan *protocol.Event),
	}
	go s.dispatch()
	return s
}

// Kind returns the event kind this subscription delivers.
func (s *Subscription) Kind() protocol.EventKind {
	return s.kind
}

// Events returns the channel the subscription delivers on. The channel is
// closed when the subscription is cancelled.
func (s *Subscription) Events() <-chan *protocol.Event {
	return s.out
}

// Cancel detaches the subscription from the bus and closes its Events()
// channel. Cancel is idempotent and safe to call from any goroutine,
// including during teardown while events are still being delivered.
func (s *Subscription) Cancel() {
	s.bus.remove(s)
	s.cancelLocal()
}

// cancelLocal stops delivery without touching the bus registry. The bus
// uses it from Close, where the registry is already being cleared.
func (s *Subscription) cancelLocal() {
	s.once.Do(func() {
		close(s.done)
	})
}

// enqueue appends an event to the FIFO queue and wakes the dispatcher.
// Never blocks the publisher.
func (s *Subscription) enqueue(ev *protocol.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// dispatch drains the queue into the out channel, preserving order. Runs
// until the subscription is cancelled.
func (s *Subscription) dispatch() {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}
