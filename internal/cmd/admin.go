package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

var adminCmd = requireRoles(&cobra.Command{
	Use:   "admin",
	Short: "Approve events and manage users, categories and settings",
	Long: `Administration commands. Every subcommand requires an admin session.

Examples:
  smartevents admin pending
  smartevents admin approve <event-id>
  smartevents admin users list
  smartevents admin settings set <setting-id> false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}, session.RoleAdmin)

var adminPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List events waiting for approval",
	Args:  cobra.NoArgs,
	RunE:  runAdminPending,
}

var adminApproveCmd = &cobra.Command{
	Use:   "approve <event-id>",
	Short: "Approve a pending event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModerate(cmd, args[0], true)
	},
}

var adminRejectCmd = &cobra.Command{
	Use:   "reject <event-id>",
	Short: "Reject a pending event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModerate(cmd, args[0], false)
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	Args:  cobra.NoArgs,
	RunE:  runAdminStats,
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	RunE:  runAdminUsersList,
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE:  runAdminUsersList,
}

var adminUsersUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Update a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUsersUpdate,
}

var adminUsersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminUsersDelete,
}

var adminCategoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Manage event categories",
	RunE:    runAdminCategoriesList,
}

var adminCategoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runAdminCategoriesList,
}

var adminCategoriesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminCategoriesCreate,
}

var adminCategoriesRenameCmd = &cobra.Command{
	Use:   "rename <category-id> <name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminCategoriesRename,
}

var adminCategoriesDeleteCmd = &cobra.Command{
	Use:   "delete <category-id>",
	Short: "Delete a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminCategoriesDelete,
}

var adminSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change system settings",
	RunE:  runAdminSettingsList,
}

var adminSettingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List system settings",
	Args:  cobra.NoArgs,
	RunE:  runAdminSettingsList,
}

var adminSettingsSetCmd = &cobra.Command{
	Use:   "set <setting-id> <true|false>",
	Short: "Turn a system setting on or off",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminSettingsSet,
}

func init() {
	f := adminUsersUpdateCmd.Flags()
	f.String("name", "", "display name")
	f.String("email", "", "email address")
	f.String("role", "", "role: student, organizer or admin")
	f.String("department", "", "department")
	f.String("society", "", "society name")

	adminUsersDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	adminCategoriesDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	adminUsersCmd.AddCommand(adminUsersListCmd, adminUsersUpdateCmd, adminUsersDeleteCmd)
	adminCategoriesCmd.AddCommand(adminCategoriesListCmd, adminCategoriesCreateCmd,
		adminCategoriesRenameCmd, adminCategoriesDeleteCmd)
	adminSettingsCmd.AddCommand(adminSettingsListCmd, adminSettingsSetCmd)

	adminCmd.AddCommand(adminPendingCmd, adminApproveCmd, adminRejectCmd, adminStatsCmd,
		adminUsersCmd, adminCategoriesCmd, adminSettingsCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminPending(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	events, err := cc.Client.PendingEvents(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(eventList(events))
}

func runModerate(cmd *cobra.Command, id string, approve bool) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var msg *platform.Message
	if approve {
		msg, err = cc.Client.ApproveEvent(cmd.Context(), id)
	} else {
		msg, err = cc.Client.RejectEvent(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	verb := "Rejected"
	if approve {
		verb = "Approved"
	}
	return cc.Done(orDefault(msg.Text(), fmt.Sprintf("%s event %s", verb, id)))
}

func runAdminStats(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	totals, err := cc.Client.AdminStats(ctx)
	if err != nil {
		return err
	}
	byCategory, err := cc.Client.EventCategoryCounts(ctx)
	if err != nil {
		return err
	}
	byMonth, err := cc.Client.EventMonthCounts(ctx)
	if err != nil {
		return err
	}

	return cc.Print(statsView{Totals: totals, ByCategory: byCategory, ByMonth: byMonth})
}

func runAdminUsersList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	users, err := cc.Client.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(userList(users))
}

func runAdminUsersUpdate(cmd *cobra.Command, args []string) error {
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

	user, err := cc.Client.UpdateUser(cmd.Context(), args[0], update)
	if err != nil {
		return err
	}
	if cc.Format != "" && cc.Format != "text" {
		return cc.Print(user)
	}
	return cc.Done(fmt.Sprintf("Updated %s (%s)", user.Name, user.Role))
}

func runAdminUsersDelete(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if current := cc.Store.Current(); current != nil && current.UserID == args[0] {
		return apperrors.NewInputInvalidError("refusing to delete the account you are signed in with", nil)
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !cc.confirm(fmt.Sprintf("Delete user %s?", args[0])) {
		return cc.Done("Nothing deleted")
	}

	if err := cc.Client.DeleteUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Deleted user %s", args[0]))
}

func runAdminCategoriesList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	categories, err := cc.Client.ListCategories(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(categoryList(categories))
}

func runAdminCategoriesCreate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if err := validCategoryName(args[0]); err != nil {
		return err
	}
	category, err := cc.Client.CreateCategory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID))
}

func runAdminCategoriesRename(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if err := validCategoryName(args[1]); err != nil {
		return err
	}
	category, err := cc.Client.RenameCategory(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Renamed category to %q", category.Name))
}

func validCategoryName(name string) error {
	return platform.Validate(struct {
		Name string `validate:"required,max=50"`
	}{name})
}

func runAdminCategoriesDelete(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !cc.confirm(fmt.Sprintf("Delete category %s?", args[0])) {
		return cc.Done("Nothing deleted")
	}

	if err := cc.Client.DeleteCategory(cmd.Context(), args[0]); err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Deleted category %s", args[0]))
}

func runAdminSettingsList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	settings, err := cc.Client.ListSettings(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(settingList(settings))
}

func runAdminSettingsSet(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	enabled, err := strconv.ParseBool(args[1])
	if err != nil {
		return apperrors.NewInputInvalidError(fmt.Sprintf("%q is not true or false", args[1]), err)
	}

	setting, err := cc.Client.UpdateSetting(cmd.Context(), args[0], enabled)
	if err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("%s is now %t", orDefault(setting.Name, args[0]), setting.Enabled()))
}
