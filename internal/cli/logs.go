package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guacplayer/guacplayer/internal/config"
	"github.com/guacplayer/guacplayer/internal/logger"
	"github.com/guacplayer/guacplayer/internal/logtail"
)

func (c *cli) newLogsCmd() *cobra.Command {
	var lines int
	var level, component string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the end of the client log",
		Example: `  guacplayer logs -n 100
  guacplayer logs --level warn --component api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			filter := logtail.Filter{Component: strings.TrimSpace(component)}
			if level != "" {
				filter.MinLevel = logger.ParseLevel(level)
			}

			found, err := logtail.Read(cfg.LogFile, lines, filter)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log lines in %s\n", cfg.LogFile)
				return nil
			}
			if raw {
				for _, line := range found {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			}
			color := isTerminal(cmd.OutOrStdout()) && os.Getenv("NO_COLOR") == ""
			return logtail.Write(cmd.OutOrStdout(), found, color)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "minimum level: debug, info, warn or error")
	cmd.Flags().StringVar(&component, "component", "", "only lines from this component (api, auth, recordings)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSON lines unformatted")
	return cmd
}
