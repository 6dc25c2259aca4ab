// Package events provides the typed broadcast bus for inbound agent events.
//
// The bridge's read loop publishes every decoded event onto one Bus; each
// interested component subscribes to the kinds it cares about. Delivery is
// per-kind FIFO to each subscriber. There is no cross-kind ordering
// guarantee, which is why all command correlation happens on the
// (kind, correlationKey) pair rather than on arrival order.
//
// # Lifecycle
//
// The bus lives exactly as long as the agent connection: the bridge creates
// it on connect and closes it on teardown or fatal failure. Subscriptions
// see only events published after Subscribe; there is no replay. Cancel and
// Close are idempotent, so components can tear down in any order.
//
// # Usage
//
//	sub := bus.Subscribe(protocol.EvCommandCompleted)
//	defer sub.Cancel()
//	for ev := range sub.Events() {
//	    ...
//	}
//
// Publishing never blocks: each subscription keeps its own FIFO queue, so a
// slow consumer delays only itself.
package events
