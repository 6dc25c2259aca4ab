// Package control runs the command/event correlation core of visorctl.
//
// Commands flow out through the agent boundary fire-and-forget; completion
// and progress events flow back asynchronously over the event bus. This
// package matches those events to the operations that caused them and
// guards against duplicate concurrent state changes.
//
// # Correlation
//
// Every in-flight logical operation is identified by its
// (command kind, correlation key) pair. Completions are matched on that
// pair only, never on arrival order: the bus guarantees FIFO per event
// kind but nothing across kinds. Completions that match no waiting
// controller or pending operation are logged and dropped with no state
// change.
//
// # Toggles
//
// Toggle is a two-state machine (Idle/Updating) per boolean feature. A
// request while Updating is rejected, so at most one command per pair is
// ever in flight. Completions confirm the optimistically requested value;
// backend-pushed feature values reconcile the Idle state and are ignored
// while Updating. A completion that never arrives leaves the controller
// Updating indefinitely; that gap is deliberate (no timeouts, no retries).
//
// # Session
//
// Session owns all controllers, the device tracker, the casting installer,
// and the fatal monitor, and runs them on one event loop. State is
// confined to that goroutine; the exported request methods post closures
// onto the loop. A fatal agent failure is terminal: the session stops
// dispatching, tears the backend down, and Run returns the failure.
package control
