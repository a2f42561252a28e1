package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/smartevents/internal/config"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage client configuration",
	Long: `View and change the client configuration.

Configuration is stored in ~/.smartevents/config.yaml. SMARTEVENTS_*
environment variables and command-line flags override the file.

Keys:
  api_url          API base URL
  timeout          per-request timeout, e.g. 30s
  session_file     where the session is stored
  log.level        debug, info, warn or error
  log.format       text or json
  output.format    text, json or yaml
  output.no_color  true or false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one configuration value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE:      runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change one configuration value in the file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE:      runConfigSet,
}

func init() {
	configCmd.AddCommand(configViewCmd, configPathCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configView renders the configuration as YAML in text mode.
type configView config.Config

func (v configView) String() string {
	data, err := yaml.Marshal(config.Config(v))
	if err != nil {
		return err.Error()
	}
	return strings.TrimRight(string(data), "\n")
}

// effectiveConfig is the configuration as commands see it: file,
// environment and flag overrides applied.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	for _, fk := range flagKeys {
		f := cmd.Flags().Lookup(fk.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := cfg.Set(fk.key, f.Value.String()); err != nil {
			return nil, fmt.Errorf("--%s: %w", fk.flag, err)
		}
	}
	return cfg, nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	f, err := ux.NewFormatter(cfg.Output.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout(), NoColor: cfg.Output.NoColor})
	if err != nil {
		return err
	}
	return f.Format(configView(*cfg))
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	value, _ := cfg.Get(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
	return nil
}
