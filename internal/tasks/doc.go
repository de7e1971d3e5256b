// Package tasks runs the scan pipeline: capture a frame, normalize it, decode a barcode, and look the barcode up.
//
// # Controller
//
// [Controller] owns two goroutines started by [Controller.Start]:
//
//  1. The event loop is the single writer of the session [State]. It receives capture and reset requests and step
//     results, decides the next phase, and publishes a new immutable snapshot for every transition.
//  2. The worker executes pipeline steps one at a time in FIFO order. Each step posts its result back to the loop
//     as an event tagged with the run ID. Panics inside a step are recovered and reported as that step's failure.
//
// Readers get snapshots from [Controller.State] or a channel from [Controller.Subscribe].
//
// # Transitions
//
//	Idle ──capture──▶ Capturing ──frame──▶ Decoding ──payload──▶ LookingUp ──▶ Displaying
//	                      │                    │
//	                      └──────failure───────┴──▶ Idle (with status)
//
// Every failure maps to a fixed status message and ends the run; nothing is retried.
//
// # Concurrency Policy
//
// One run at a time. [Controller.Capture] while a run is in flight returns [ErrBusy].
// [Controller.Reset] abandons the run in flight: its current step finishes on the worker but the result is
// discarded, so a new capture queues behind it.
//
// # History
//
// The optional [Recorder] receives a [models.Scan] for every finished run. Recording happens on the worker after
// the terminal state is published and never affects the session state.
package tasks
