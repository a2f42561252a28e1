package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smartevents/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the API server, configuration and session",
	Long: `Run diagnostics for everything the client depends on:

  api      the API server answers at the configured URL
  config   the configuration file parses
  session  a session is stored, not expired and not readable by others

Exits non-zero when any check is unhealthy.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorReport []health.Report

func (r doctorReport) Table() ([]string, [][]string) {
	rows := make([][]string, len(r))
	for i, rep := range r {
		rows[i] = []string{
			rep.Name,
			strings.ToUpper(rep.Status.String()),
			rep.Message,
			rep.Latency.Round(time.Millisecond).String(),
		}
	}
	return []string{"CHECK", "STATUS", "MESSAGE", "LATENCY"}, rows
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	manager := health.NewManager().WithTimeout(cc.Config.Timeout)
	manager.AddChecker(health.NewAPIChecker(cc.Client))
	manager.AddChecker(health.NewConfigChecker(cc.ConfigPath))
	manager.AddChecker(health.NewSessionChecker(cc.Store, cc.SessionPath))

	reports := manager.Check(cmd.Context())
	if err := cc.Print(doctorReport(reports)); err != nil {
		return err
	}

	overall := health.OverallStatus(reports)
	cc.Logger.Debug("diagnostics finished", "status", overall.String(), "checks", manager.Count())
	if overall == health.StatusUnhealthy {
		return fmt.Errorf("one or more checks are unhealthy")
	}
	return nil
}
