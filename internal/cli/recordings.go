package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guacplayer/guacplayer/internal/recordings"
	"github.com/guacplayer/guacplayer/internal/router"
)

func (c *cli) newRecordingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recordings",
		Aliases: []string{"rec"},
		Short:   "Inspect, play and download session recordings",
	}
	cmd.AddCommand(
		c.newRecordingsInfoCmd(),
		c.newRecordingsFilesCmd(),
		c.newRecordingsURLCmd(),
		c.newRecordingsDownloadCmd(),
		c.newRecordingsPlayCmd(),
	)
	return cmd
}

func (c *cli) newRecordingsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <uuid>",
		Short: "Show recording metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := trimArg(args, 0)
			a, err := c.openSession(cmd.Context(), router.RecordingPath(uuid))
			if err != nil {
				return err
			}
			if _, err := a.RecordingStore.FetchInfo(cmd.Context(), uuid); err != nil {
				return fmt.Errorf("recording %s: %w", uuid, err)
			}
			info := a.RecordingStore.Snapshot().Info
			t := recordTable(info)
			for i, row := range t.rows {
				switch row[0] {
				case "size_bytes":
					t.rows[i][1] = size(info.Int("size_bytes"))
				case "created_at":
					t.rows[i][1] = when(info.String("created_at"))
				}
			}
			return c.render(cmd.OutOrStdout(), info, t)
		},
	}
}

func (c *cli) newRecordingsFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <uuid>",
		Short: "List the files stored with a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := trimArg(args, 0)
			a, err := c.openSession(cmd.Context(), router.RecordingPath(uuid))
			if err != nil {
				return err
			}
			if _, err := a.RecordingStore.FetchFiles(cmd.Context(), uuid); err != nil {
				return fmt.Errorf("recording %s files: %w", uuid, err)
			}
			files := a.RecordingStore.Snapshot().Files
			t := table{header: []string{"NAME", "SIZE", "MODIFIED"}}
			for _, f := range files {
				t.rows = append(t.rows, []string{
					dash(f.First("name", "path")),
					size(f.Int("size")),
					when(f.String("modified")),
				})
			}
			return c.render(cmd.OutOrStdout(), files, t)
		},
	}
}

func (c *cli) newRecordingsURLCmd() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "url <uuid>",
		Short: "Print the stream URL of a recording",
		Long: `Prints the URL an external player can stream the recording from. The URL
carries the session token, so treat it as a secret.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := trimArg(args, 0)
			if uuid == "" {
				return recordings.ErrMissingUUID
			}
			a, err := c.openSession(cmd.Context(), router.RecordingPath(uuid))
			if err != nil {
				return err
			}
			link := a.Recordings.StreamURL(uuid)
			if download {
				link = a.Recordings.DownloadURL(uuid)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "print the download URL instead")
	return cmd
}

func (c *cli) newRecordingsDownloadCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <uuid>",
		Short: "Save the recording video as recording_<uuid>.mp4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := trimArg(args, 0)
			a, err := c.openSession(cmd.Context(), router.RecordingPath(uuid))
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.Config.DownloadDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create download dir: %w", err)
			}
			saved, err := a.Recordings.Download(cmd.Context(), uuid, dir)
			if err != nil {
				return fmt.Errorf("download %s: %w", uuid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", saved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "target directory (default download_dir from config)")
	return cmd
}

func (c *cli) newRecordingsPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <uuid>",
		Short: "Open the recording in the configured player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := trimArg(args, 0)
			a, err := c.openSession(cmd.Context(), router.RecordingPath(uuid))
			if err != nil {
				return err
			}
			if _, err := a.Recordings.Play(uuid); err != nil {
				return fmt.Errorf("play %s: %w", uuid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playing %s\n", uuid)
			return nil
		},
	}
}
