package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smartevents/internal/platform"
)

var profileCmd = requireRoles(&cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	RunE:  runProfileShow,
})

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your profile",
	Long: `Update profile fields. Only the flags you pass are changed.

Examples:
  smartevents profile update --department "Computer Science"
  smartevents profile update --picture https://example.com/me.png`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

func init() {
	f := profileUpdateCmd.Flags()
	f.String("name", "", "display name")
	f.String("email", "", "email address")
	f.String("password", "", "new password")
	f.String("gender", "", "gender")
	f.String("roll-no", "", "roll number")
	f.String("department", "", "department")
	f.String("society", "", "society name")
	f.String("picture", "", "profile picture URL")

	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	user, err := cc.Client.GetProfile(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(profileView(*user))
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	update := userUpdateFromFlags(cmd)
	if update == (platform.UserUpdate{}) {
		return cmd.Help()
	}
	if err := platform.Validate(update); err != nil {
		return err
	}

	user, err := cc.Client.UpdateProfile(cmd.Context(), update)
	if err != nil {
		return err
	}

	// Keep the stored identity in line with the profile so that later
	// commands and the TUI header show the new name.
	if current := cc.Store.Current(); current != nil {
		next := *current
		next.DisplayName = orDefault(user.Name, next.DisplayName)
		next.Email = orDefault(user.Email, next.Email)
		next.AvatarURL = orDefault(user.ProfilePicture, next.AvatarURL)
		if err := cc.loginSession(cmd, &next); err != nil {
			return err
		}
	}

	if cc.Format != "" && cc.Format != "text" {
		return cc.Print(user)
	}
	return cc.Done("Profile updated")
}

// userUpdateFromFlags reads the profile flags shared by 'profile update'
// and 'admin users update'.
func userUpdateFromFlags(cmd *cobra.Command) platform.UserUpdate {
	f := cmd.Flags()
	get := func(name string) string {
		if f.Lookup(name) == nil {
			return ""
		}
		v, _ := f.GetString(name)
		return v
	}
	return platform.UserUpdate{
		Name:           get("name"),
		Email:          get("email"),
		Password:       get("password"),
		Role:           get("role"),
		Gender:         get("gender"),
		RollNo:         get("roll-no"),
		Department:     get("department"),
		SocietyName:    get("society"),
		ProfilePicture: get("picture"),
	}
}
