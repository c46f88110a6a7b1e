package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guacplayer/guacplayer/internal/api"
)

func (c *cli) newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Signs in against the backend and stores the session token for later
commands and the terminal UI. Missing credentials are prompted for; the
password is read without echo when stdin is a terminal.`,
		Example: `  guacplayer login -u admin
  echo "$PASSWORD" | guacplayer login -u admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if strings.TrimSpace(username) == "" {
				if username, err = prompt(cmd.ErrOrStderr(), in, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(cmd, in); err != nil {
					return err
				}
			}

			resp, err := a.AuthStore.Login(cmd.Context(), strings.TrimSpace(username), password)
			if err != nil {
				return fmt.Errorf("login: %s", api.Message(err, "login failed"))
			}
			if c.opts.output != OutputTable {
				return c.render(cmd.OutOrStdout(), resp.User, table{})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", dash(resp.User.First("username", "name", "email")))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the backend and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			a.AuthStore.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Verify the stored session and show its user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			if !a.AuthStore.IsAuthenticated() || !a.AuthStore.VerifyToken(cmd.Context()) {
				return ErrNotLoggedIn
			}
			user := a.AuthStore.Snapshot().User
			return c.render(cmd.OutOrStdout(), user, recordTable(user))
		},
	}
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(cmd.ErrOrStderr(), in, "Password: ")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}
