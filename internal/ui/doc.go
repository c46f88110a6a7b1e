// Package ui implements the GuacPlayer terminal interface with Bubble Tea.
//
// # Screens
//
// Each screen belongs to one route of package router:
//
//   - /login: username and password form
//   - /dashboard: signed-in user and connection count
//   - /connections: paged connection table; enter loads the selected
//     connection and its session history below it, enter on a history row
//     opens that session's recording
//   - /recordings/:uuid: recording metadata and files, with play, download
//     and stream URL actions
//
// Every navigation, including the first one, goes through router.Guard, so a
// protected screen visited without a valid session lands on /login. The
// terminal window title follows the route title.
//
// # Data Flow
//
// Store actions run inside tea.Cmd functions, off the event loop. When one
// finishes it returns a small message and Update re-reads the store snapshot
// to rebuild tables. Rendering only ever reads snapshots.
//
// Other goroutines can move the UI with a NavigateMsg sent through
// tea.Program.Send; the application shell does this when the backend rejects
// the session.
//
// # Themes
//
// Nightfox, Kanagawa and Slate are built in. T cycles them and the choice is
// saved to the preferences file.
package ui
