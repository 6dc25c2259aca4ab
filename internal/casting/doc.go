// Package casting coordinates the install-then-launch workflow for the
// headset's screen casting feature.
//
// Casting needs a bundle installed on the headset before it can start. The
// Installer checks the install status, asks the operator to confirm a
// missing download, tracks download progress, and launches casting
// automatically the moment the agent reports the install finished. That
// auto-launch is the point of the workflow: the operator confirms once and
// never has to press start a second time.
//
// # Single Active Run
//
// Only one workflow run may be active per session. Start while a run is
// checking, awaiting confirmation, or downloading is a no-op. After a run
// ends (Launched or Cancelled) Start begins a fresh one.
//
// # Ownership
//
// The Installer holds no locks and runs no goroutines; the session event
// loop owns it and feeds it status, progress, and confirmation callbacks.
// The Gate implementation is responsible for delivering its response on
// the owning loop (the session wraps UI gates accordingly).
package casting
