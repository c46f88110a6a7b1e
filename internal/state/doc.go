// Package state holds the client-side state shared by the TUI, the router
// guard and the CLI.
//
// # Stores
//
//   - AuthStore: the current session (user record and token). Initialize
//     loads it from persisted storage; Login, Logout and VerifyToken move it
//     between the anonymous and authenticated states.
//   - ConnectionsStore: one page of connections, the selected connection and
//     one page of its history. List and history pagination are tracked
//     separately.
//   - RecordingStore: info and files of the recording being viewed.
//
// # Concurrency Model
//
// Each store guards its state with a sync.RWMutex. The lock is never held
// across network I/O: an action takes the write lock to mark itself loading,
// releases it for the service call, and takes it again to apply the result.
// Overlapping actions are not deduplicated, so the last response to arrive
// wins.
//
// Snapshot methods return copies. Records are cloned so callers may keep or
// modify them freely.
//
// # Status
//
// Every store embeds Status in its snapshot:
//
//	IsLoading   true while an action is in flight
//	Error       user-facing message of the last failed action
//	LastUpdated when the last action finished
//
// Error is cleared at the start of every action and by ClearError. On failure
// the previous data is kept and the error is also returned to the caller.
// AuthStore.Logout and AuthStore.VerifyToken never set Error.
package state
