package cmd

import (
	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/router"
	"github.com/felixgeelhaar/smartevents/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive dashboard",
	Long: `Open the full-screen dashboard.

The dashboard restores your session, then shows the requested view. Views
that need a session send you to the login form; views for another role send
you home.

Views:
  /           home
  /events     browse and register for events
  /login      sign in
  /student    your registrations and QR passes
  /organizer  your events and pass verification
  /admin      approvals and platform statistics

Examples:
  smartevents ui
  smartevents ui --view /admin`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	uiCmd.Flags().String("view", router.PathHome, "view to open first")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	view, _ := cmd.Flags().GetString("view")
	if _, ok := router.Lookup(view); !ok {
		return apperrors.NewInputInvalidError("unknown view "+view, nil).
			WithSuggestion("Run 'smartevents ui --help' to list the views")
	}

	if !tui.IsInteractive() {
		return apperrors.NewInputInvalidError("the dashboard needs an interactive terminal", nil)
	}

	return tui.Run(cmd.Context(), cc.Store, cc.Client,
		tui.WithStartPath(view),
		tui.WithLogger(cc.Logger),
	)
}
