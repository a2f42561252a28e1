package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartevents",
	Short: "Campus event management from the terminal",
	Long: `smartevents is a client for the SmartEvents campus event platform.

Students browse events, register and show their QR passes. Organizers publish
events and verify passes at the door. Admins approve events and manage users,
categories and system settings.

Sign in once with 'smartevents auth login'. The session is kept on disk and
restored by every later command until you log out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is handed to every
// command and cancels in-flight requests. Pending spans are flushed before
// it returns.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	finishTelemetry(err)
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.smartevents/config.yaml)")
	flags.String("api-url", "", "API base URL, e.g. http://localhost:5000")
	flags.Duration("timeout", 0, "per-request timeout, e.g. 30s")
	flags.String("session-file", "", "where the session is stored")
	flags.Bool("ephemeral", false, "keep the session in memory for this command only")
	flags.StringP("format", "f", "", "output format: text, json, yaml")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.BoolP("verbose", "v", false, "enable debug logging")
}
