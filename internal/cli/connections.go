package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/connections"
)

// historyIDPaths are the fields that may identify the recording of a
// history row, in order of preference.
var historyIDPaths = []string{"history_uuid", "uuid", "history_id"}

type listOutput struct {
	Data       []api.Record   `json:"data"`
	Pagination api.Pagination `json:"pagination"`
	Search     string         `json:"search,omitempty"`
}

type historyOutput struct {
	ConnectionID   string         `json:"connection_id"`
	ConnectionName string         `json:"connection_name"`
	Data           []api.Record   `json:"data"`
	Pagination     api.Pagination `json:"pagination"`
}

func (c *cli) newConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "List connections and their session history",
	}
	cmd.AddCommand(c.newConnectionsListCmd(), c.newConnectionsShowCmd(), c.newConnectionsHistoryCmd())
	return cmd
}

func (c *cli) newConnectionsListCmd() *cobra.Command {
	var page, perPage int
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connections, one page at a time",
		Example: `  guacplayer connections list
  guacplayer connections list --search db --page 2 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openSession(cmd.Context(), "/connections")
			if err != nil {
				return err
			}
			if perPage <= 0 {
				perPage = a.Prefs.PerPage
			}
			if _, err := a.ConnectionsStore.FetchConnections(cmd.Context(), page, perPage, search); err != nil {
				return fmt.Errorf("list connections: %w", err)
			}

			snap := a.ConnectionsStore.Snapshot()
			t := table{header: []string{"ID", "NAME", "PROTOCOL", "MAX"}, footer: pageFooter(snap.Pagination)}
			for _, conn := range snap.Connections {
				t.rows = append(t.rows, []string{
					conn.ID("connection_id"),
					dash(conn.String("connection_name")),
					dash(conn.String("protocol")),
					dash(conn.String("max_connections")),
				})
			}
			out := listOutput{Data: snap.Connections, Pagination: snap.Pagination, Search: snap.SearchQuery}
			return c.render(cmd.OutOrStdout(), out, t)
		},
	}
	cmd.Flags().IntVar(&page, "page", connections.DefaultPage, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "connections per page (default from preferences)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by connection name")
	return cmd
}

func (c *cli) newConnectionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <connection-id>",
		Short: "Show one connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openSession(cmd.Context(), "/connections")
			if err != nil {
				return err
			}
			resp, err := a.ConnectionsStore.FetchConnectionDetail(cmd.Context(), trimArg(args, 0))
			if err != nil {
				return fmt.Errorf("show connection %s: %w", trimArg(args, 0), err)
			}
			return c.render(cmd.OutOrStdout(), resp.Data, recordTable(resp.Data))
		},
	}
}

func (c *cli) newConnectionsHistoryCmd() *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "history <connection-id>",
		Short: "List the recorded sessions of a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openSession(cmd.Context(), "/connections")
			if err != nil {
				return err
			}
			if perPage <= 0 {
				perPage = a.Prefs.PerPage
			}
			id := trimArg(args, 0)
			if _, err := a.ConnectionsStore.FetchConnectionHistory(cmd.Context(), id, page, perPage); err != nil {
				return fmt.Errorf("connection %s history: %w", id, err)
			}

			snap := a.ConnectionsStore.Snapshot()
			t := table{
				header: []string{"RECORDING", "USER", "START", "END", "REMOTE HOST"},
				footer: pageFooter(snap.HistoryPagination),
			}
			for _, h := range snap.History {
				t.rows = append(t.rows, []string{
					dash(h.ID(historyIDPaths...)),
					dash(h.First("username", "user_id")),
					when(h.String("start_date")),
					when(h.String("end_date")),
					dash(h.String("remote_host")),
				})
			}
			out := historyOutput{
				ConnectionID:   id,
				ConnectionName: snap.HistoryConnection,
				Data:           snap.History,
				Pagination:     snap.HistoryPagination,
			}
			if snap.HistoryConnection != "" {
				t.footer = snap.HistoryConnection + ": " + t.footer
			}
			return c.render(cmd.OutOrStdout(), out, t)
		},
	}
	cmd.Flags().IntVar(&page, "page", connections.DefaultPage, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "sessions per page (default from preferences)")
	return cmd
}
