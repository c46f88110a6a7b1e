// Package app is the composition root of GuacPlayer.
//
// New loads configuration, opens the session storage and builds the API
// client, the services and the stores on top of it. It also installs the
// session recovery policy: whenever the backend answers 401 the persisted
// session is cleared, the AuthStore is reloaded from the empty storage and the
// current Navigator is sent to /login.
//
// Run starts the TUI and, when session.verify_interval is positive, a session
// watch that re-verifies the token in the background so an expired session is
// noticed even while the user is idle.
//
// The CLI uses New and the stores directly without calling Run.
package app
