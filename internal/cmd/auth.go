package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/router"
	"github.com/felixgeelhaar/smartevents/internal/session"
	"github.com/felixgeelhaar/smartevents/internal/tui"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the SmartEvents session",
	Long: `Sign in, sign out and inspect the active session.

The session returned by the server is stored in the session file
(see 'smartevents config get session_file') and attached to every request
made by later commands.

Examples:
  smartevents auth login --email ada@campus.edu
  smartevents auth status
  smartevents auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in with your email and password.

Missing values are prompted for when running in a terminal. In scripts use
--password-stdin to avoid leaving the password in shell history.

Examples:
  smartevents auth login --email ada@campus.edu
  echo "$PASSWORD" | smartevents auth login --email ada@campus.edu --password-stdin`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a student or organizer account",
	Long: `Create a new account. The new account is signed in right away.

Organizer accounts must name their society.

Examples:
  smartevents auth register --name "Ada" --email ada@campus.edu --password s3cret! --roll-no 21CS042
  smartevents auth register --role organizer --society "Robotics Club" --name "Lin" --email lin@campus.edu --password s3cret!`,
	Args: cobra.NoArgs,
	RunE: runAuthRegister,
}

var authForgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Email a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthForgotPassword,
}

var authResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <token>",
	Short: "Set a new password using the emailed reset token",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthResetPassword,
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")
	authLoginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")

	f := authRegisterCmd.Flags()
	f.String("name", "", "display name")
	f.String("email", "", "account email")
	f.String("password", "", "account password (at least 6 characters)")
	f.Bool("password-stdin", false, "read the password from stdin")
	f.String("role", "student", "account role: student or organizer")
	f.String("gender", "", "gender")
	f.String("roll-no", "", "student roll number")
	f.String("department", "", "department")
	f.String("society", "", "society name (organizers)")
	f.String("picture", "", "profile picture URL")

	authResetPasswordCmd.Flags().String("password", "", "new password")
	authResetPasswordCmd.Flags().Bool("password-stdin", false, "read the new password from stdin")

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authRegisterCmd,
		authForgotPasswordCmd, authResetPasswordCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	if email == "" && tui.ShouldPrompt() {
		email, err = tui.PromptForString(tui.Prompt{Message: "Email", Placeholder: "you@campus.edu", Required: true})
		if err != nil {
			return err
		}
	}
	if email == "" {
		return apperrors.NewInputRequiredError("--email")
	}

	password, err := readPassword(cmd, cc.In, "Password")
	if err != nil {
		return err
	}

	req := platform.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := platform.Validate(req); err != nil {
		return err
	}

	payload, err := cc.Client.Login(cmd.Context(), req)
	if err != nil {
		return loginFailed(err)
	}
	if err := cc.loginSession(cmd, payload); err != nil {
		return err
	}

	cc.Logger.Info("login succeeded", "role", payload.Role)
	if err := cc.Done(fmt.Sprintf("Logged in as %s (%s)", payload.DisplayName, payload.Role)); err != nil {
		return err
	}
	if cc.Format == "" || cc.Format == "text" {
		fmt.Fprintf(cc.Out, "\nOpen your dashboard with 'smartevents ui --view %s'\n", router.LandingRoute(payload.Role))
	}
	return nil
}

// loginFailed turns a rejected login into AUTH-003 with the server message.
func loginFailed(err error) error {
	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) &&
		(statusErr.IsUnauthorized() || statusErr.StatusCode == http.StatusBadRequest) {
		return apperrors.Wrap(apperrors.ErrCodeLoginFailed, "login failed: "+ux.ServerMessage(err), err).
			WithSuggestion("Check your email and password").
			WithSuggestion("Run 'smartevents auth forgot-password <email>' to reset it")
	}
	return err
}

// readPassword takes the password from --password, --password-stdin or an
// interactive prompt, in that order.
func readPassword(cmd *cobra.Command, in io.Reader, label string) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", apperrors.NewInputRequiredError("password")
		}
		return password, nil
	}

	if tui.ShouldPrompt() {
		return tui.PromptForPassword(label)
	}
	return "", apperrors.NewInputRequiredError("--password")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	current := cc.Store.Current()
	if err := cc.Store.Logout(cmd.Context()); err != nil {
		return err
	}

	if current == nil {
		return cc.Done("Not logged in")
	}
	return cc.Done(fmt.Sprintf("Logged out %s", current.DisplayName))
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	view := statusView{APIURL: cc.Client.BaseURL()}
	if s := cc.Store.Current(); s != nil {
		view.LoggedIn = true
		view.UserID = s.UserID
		view.Name = s.DisplayName
		view.Email = s.Email
		view.Role = s.Role.String()
		if exp, ok := session.CredentialExpiry(s.Credential); ok {
			view.ExpiresAt = &exp
			view.Expired = time.Now().After(exp)
		}
	}
	return cc.Print(view)
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	req := platform.RegisterRequest{}
	req.Name, _ = f.GetString("name")
	req.Email, _ = f.GetString("email")
	req.Role, _ = f.GetString("role")
	req.Gender, _ = f.GetString("gender")
	req.RollNo, _ = f.GetString("roll-no")
	req.Department, _ = f.GetString("department")
	req.SocietyName, _ = f.GetString("society")
	req.ProfilePicture, _ = f.GetString("picture")
	req.Role = strings.ToLower(req.Role)

	req.Password, err = readPassword(cmd, cc.In, "Choose a password")
	if err != nil {
		return err
	}
	if err := platform.Validate(req); err != nil {
		return err
	}

	payload, err := cc.Client.Register(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := cc.loginSession(cmd, payload); err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Account created. Logged in as %s (%s)", payload.DisplayName, payload.Role))
}

func runAuthForgotPassword(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(args[0])
	if err := platform.Validate(struct {
		Email string `validate:"required,email"`
	}{email}); err != nil {
		return err
	}

	msg, err := cc.Client.ForgotPassword(cmd.Context(), email)
	if err != nil {
		return err
	}
	return cc.Done(orDefault(msg.Text(), "Check your inbox for a reset link"))
}

func runAuthResetPassword(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd, cc.In, "New password")
	if err != nil {
		return err
	}
	req := platform.ResetPasswordRequest{Password: password, ConfirmPassword: password}
	if err := platform.Validate(req); err != nil {
		return err
	}

	msg, err := cc.Client.ResetPassword(cmd.Context(), args[0], req)
	if err != nil {
		return err
	}
	return cc.Done(orDefault(msg.Text(), "Password updated. Sign in with 'smartevents auth login'"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
