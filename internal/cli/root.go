package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/app"
	"github.com/guacplayer/guacplayer/internal/router"
)

// ErrNotLoggedIn is returned by commands that need a session when none is
// stored or the backend no longer accepts it.
var ErrNotLoggedIn = errors.New("not logged in")

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type options struct {
	configPath string
	prefsPath  string
	apiURL     string
	output     string
	verbose    bool
}

// cli carries the parsed global flags and the application opened for the
// running command.
type cli struct {
	opts    options
	version string
	app     *app.App
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{version: version}
	defer c.close()

	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "guacplayer: %v\n", err)
		if errors.Is(err, ErrNotLoggedIn) || api.IsUnauthorized(err) {
			fmt.Fprintln(stderr, "Run 'guacplayer login' to start a new session.")
		}
		return 1
	}
	return 0
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "guacplayer",
		Short: "Browse and play remote-desktop session recordings",
		Long: `GuacPlayer lists the connections known to a GuacPlayer backend, shows their
session history and plays or downloads the recorded sessions.

Run without a subcommand to start the terminal UI.`,
		Version: c.version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.opts.output {
			case OutputTable, OutputJSON, OutputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", c.opts.output)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) || !isTerminal(cmd.InOrStdin()) {
				return fmt.Errorf("the interface needs a terminal; see 'guacplayer --help' for commands")
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", "", "config file (default ~/.config/guacplayer/config.yaml)")
	flags.StringVar(&c.opts.prefsPath, "prefs", "", "preferences file (default ~/.config/guacplayer/prefs.toml)")
	flags.StringVar(&c.opts.apiURL, "api-url", "", "backend API URL, overrides api_url and GUACPLAYER_API_URL")
	flags.StringVarP(&c.opts.output, "output", "o", OutputTable, "output format: table, json or yaml")
	flags.BoolVarP(&c.opts.verbose, "verbose", "v", false, "mirror logs to stderr")

	root.AddCommand(
		c.newLoginCmd(),
		c.newLogoutCmd(),
		c.newWhoamiCmd(),
		c.newConnectionsCmd(),
		c.newRecordingsCmd(),
		c.newLogsCmd(),
	)
	return root
}

// open builds the application once per process.
func (c *cli) open() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(app.Options{
		ConfigPath: c.opts.configPath,
		PrefsPath:  c.opts.prefsPath,
		APIURL:     c.opts.apiURL,
		Console:    c.opts.verbose,
	})
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// openSession opens the application and runs target through the navigation
// guard, the same check the TUI applies before showing a protected screen.
func (c *cli) openSession(ctx context.Context, target string) (*app.App, error) {
	a, err := c.open()
	if err != nil {
		return nil, err
	}
	route, err := a.Guard(nil).Navigate(ctx, target)
	if err != nil {
		return nil, err
	}
	if route.Name == router.Login {
		return nil, ErrNotLoggedIn
	}
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func trimArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return strings.TrimSpace(args[i])
}
