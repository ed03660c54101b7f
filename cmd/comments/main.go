// comments is the command-line client: it logs in to Bluesky, resolves the
// discussion post for a page and opens the thread view.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bluniversal/comments/internal/comments/app"
	"github.com/bluniversal/comments/internal/comments/tui"
)

var (
	application *App

	appPassword string
	pageTitle   string
)

// App aliases the wired application for brevity in command bodies.
type App = app.App

var rootCmd = &cobra.Command{
	Use:   "comments",
	Short: "Bluesky discussions for any web page",
	Long: `comments finds (or creates) the Bluesky discussion post for a web
page and shows its reply thread. Every page maps to exactly one post,
located by a deterministic hashtag derived from the normalized URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		application, err = app.New(app.LoadConfig())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			_ = application.Close()
		}
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <identifier>",
	Short: "Log in with a Bluesky handle and app password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := appPassword
		if password == "" {
			password = os.Getenv("BLUNIVERSAL_APP_PASSWORD")
		}
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "App password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}
		if password == "" {
			return fmt.Errorf("an app password is required")
		}

		if err := application.Manager.Login(cmd.Context(), args[0], password); err != nil {
			return err
		}

		session, err := application.Manager.Session(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as @%s (%s)\n", session.Handle(), session.DID())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate and clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Manager.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"whoami"},
	Short:   "Show the current session state",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if !application.Manager.IsLoggedIn(ctx) {
			fmt.Fprintln(out, "Not logged in. Run: comments login <identifier>")
			return nil
		}

		session, err := application.Manager.Session(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Logged in as @%s (%s)\n", session.Handle(), session.DID())

		if application.ShowFollowNudge(ctx) {
			fmt.Fprintln(out, "\nEnjoying the discussions? Follow the bot account on Bluesky.")
			fmt.Fprintln(out, "Hide this notice with: comments nudge dismiss")
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Print the discussion post URI for a page, creating it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uri, err := application.Resolver.Resolve(cmd.Context(), args[0], titleFor(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <url>",
	Short: "Open the discussion thread for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := tui.New(application.Resolver, application.Threads, args[0], titleFor(args[0]))
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Manage the follow-the-bot notice",
}

var nudgeDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Hide the follow-the-bot notice permanently",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.DismissFollowNudge(cmd.Context())
	},
}

// titleFor substitutes the URL when no explicit page title was given. A
// browser would pass the document title; the CLI has no DOM to read.
func titleFor(url string) string {
	if pageTitle != "" {
		return pageTitle
	}
	return url
}

func main() {
	loginCmd.Flags().StringVar(&appPassword, "app-password", "", "Bluesky app password (prompted when omitted)")
	resolveCmd.Flags().StringVar(&pageTitle, "title", "", "page title used when creating the post")
	viewCmd.Flags().StringVar(&pageTitle, "title", "", "page title used when creating the post")

	nudgeCmd.AddCommand(nudgeDismissCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd, resolveCmd, viewCmd, nudgeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
