// Package cli implements the guacplayer command line.
//
// Without a subcommand it starts the terminal UI. The subcommands expose the
// same operations for scripts:
//
//	login, logout, whoami
//	connections list | show <id> | history <id>
//	recordings info | files | url | download | play <uuid>
//	logs
//
// Commands that need a session go through the same navigation guard as the
// TUI and fail with ErrNotLoggedIn when it would have sent the user to the
// login screen. Results print as aligned tables, or as JSON or YAML with
// --output.
package cli
