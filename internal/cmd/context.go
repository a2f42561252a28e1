package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smartevents/internal/config"
	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/guard"
	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/session"
	"github.com/felixgeelhaar/smartevents/internal/telemetry"
	"github.com/felixgeelhaar/smartevents/internal/tui"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

// CommandContext holds the resolved configuration and the services a
// command works with. Commands build one at the top of RunE:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		// Use cc.Client, cc.Store, cc.Print, etc.
//	}
//
// Building the context restores the persisted session and enforces the
// role requirement declared on the command.
type CommandContext struct {
	Config      *config.Config
	ConfigPath  string
	SessionPath string // empty for --ephemeral runs

	// Output control
	Format  string
	NoColor bool
	Verbose bool

	Logger *log.Logger
	Store  *session.Store
	Client *platform.Client

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// flagKeys maps persistent flags onto the config keys they override.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"api-url", "api_url"},
	{"timeout", "timeout"},
	{"session-file", "session_file"},
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"format", "output.format"},
	{"no-color", "output.no_color"},
}

// NewCommandContext resolves configuration (flags over environment over
// file over defaults), wires the logger, session store and API client, and
// checks the command's role requirement.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	logCfg := log.Config{Level: log.ParseLevel(cfg.Log.Level)}
	if verbose {
		cfg.Log.Level = "debug"
		logCfg = log.DebugConfig()
	}
	logCfg.Format = log.ParseFormat(cfg.Log.Format)
	logCfg.Output = log.NewOutput(cmd.ErrOrStderr())

	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	ctx := setupTelemetry(cmd, cfg, logger)
	cmd.SetContext(ctx)

	storage, sessionPath, err := openStorage(cmd, cfg)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(storage, session.WithLogger(logger))
	store.Initialize(ctx)

	client := platform.NewClient(cfg.APIURL, store,
		platform.WithTimeout(cfg.Timeout),
		platform.WithTransport(telemetry.Transport(nil)),
		platform.WithLogger(logger),
	)

	logger.Debug("command context ready",
		"command", cmd.CommandPath(),
		"api_url", client.BaseURL(),
		"authenticated", store.IsAuthenticated(),
	)

	cc := &CommandContext{
		Config:      cfg,
		ConfigPath:  configPath,
		SessionPath: sessionPath,
		Format:      cfg.Output.Format,
		NoColor:     cfg.Output.NoColor,
		Verbose:     verbose,
		Logger:      logger,
		Store:       store,
		Client:      client,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Err:         cmd.ErrOrStderr(),
	}

	if err := cc.authorize(cmd); err != nil {
		return nil, err
	}
	return cc, nil
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func openStorage(cmd *cobra.Command, cfg *config.Config) (session.Storage, string, error) {
	ephemeral, err := cmd.Flags().GetBool("ephemeral")
	if err != nil {
		return nil, "", err
	}
	if ephemeral {
		return session.NewMemoryStorage(nil), "", nil
	}

	path := cfg.SessionFile
	if path == "" {
		path, err = session.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	return session.NewFileStorage(path), path, nil
}

// rolesAnnotation marks a command as protected. The value is a comma
// separated role list; an empty list admits any logged-in role.
const rolesAnnotation = "smartevents/roles"

// requireRoles protects cmd and all of its subcommands.
func requireRoles(cmd *cobra.Command, roles ...session.Role) *cobra.Command {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[rolesAnnotation] = strings.Join(names, ",")
	return cmd
}

// guardSpec returns the access policy of cmd, inherited from the nearest
// annotated ancestor.
func guardSpec(cmd *cobra.Command) (guard.Spec, bool) {
	for c := cmd; c != nil; c = c.Parent() {
		raw, ok := c.Annotations[rolesAnnotation]
		if !ok {
			continue
		}
		spec := guard.Spec{Path: cmd.CommandPath()}
		for _, name := range strings.Split(raw, ",") {
			if role, err := session.ParseRole(name); err == nil {
				spec.AllowedRoles = append(spec.AllowedRoles, role)
			}
		}
		return spec, true
	}
	return guard.Spec{}, false
}

func (c *CommandContext) authorize(cmd *cobra.Command) error {
	spec, ok := guardSpec(cmd)
	if !ok {
		return nil
	}

	outcome := guard.New(c.Store, spec).Check()
	c.Logger.Debug("access check", "command", spec.Path, "decision", outcome.Decision.String())

	switch outcome.Decision {
	case guard.Authorized:
		return nil
	case guard.Unauthorized:
		return apperrors.NewNotLoggedInError()
	case guard.Forbidden:
		role := ""
		if s := c.Store.Current(); s != nil {
			role = s.Role.String()
		}
		return apperrors.NewForbiddenError(spec.Path, role, spec.RoleNames())
	default:
		return fmt.Errorf("session is still loading")
	}
}

// Print writes data in the configured output format.
func (c *CommandContext) Print(data interface{}) error {
	f, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{Writer: c.Out, NoColor: c.NoColor})
	if err != nil {
		return apperrors.NewInputInvalidError(err.Error(), err)
	}
	return f.Format(data)
}

// Done reports a completed action. Text output gets a check mark;
// structured output gets a {"message": ...} document.
func (c *CommandContext) Done(message string) error {
	if c.Format != "" && c.Format != "text" {
		return c.Print(platform.Message{Message: message})
	}
	mark := "✓"
	if !c.NoColor {
		mark = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render(mark)
	}
	_, err := fmt.Fprintf(c.Out, "%s %s\n", mark, message)
	return err
}

// Warn prints a non-fatal notice to stderr.
func (c *CommandContext) Warn(message string) {
	mark := "!"
	if !c.NoColor {
		mark = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Render(mark)
	}
	fmt.Fprintf(c.Err, "%s %s\n", mark, message)
}

// confirm asks a yes/no question, defaulting to no. Terminals get a huh
// prompt; otherwise the answer is read from stdin.
func (c *CommandContext) confirm(message string) bool {
	if tui.ShouldPrompt() {
		ok, err := tui.PromptForConfirmation(message, false)
		return err == nil && ok
	}
	return ux.Confirm(c.In, c.Out, message, false)
}

// loginSession validates a payload returned by the API and hands it to the
// store. A persistence failure is reported as a warning; the session stays
// usable for the current command.
func (c *CommandContext) loginSession(cmd *cobra.Command, payload *session.Session) error {
	if payload == nil {
		return apperrors.New(apperrors.ErrCodeSessionPayload, "server returned an empty login payload")
	}
	if err := payload.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSessionPayload, "server returned an incomplete login payload", err)
	}
	if err := c.Store.Login(cmd.Context(), *payload); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeSessionWrite) {
			c.Warn(ux.ServerMessage(err))
			return nil
		}
		return err
	}
	return nil
}
