package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/session"
	"github.com/felixgeelhaar/smartevents/internal/tui"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"event"},
	Short:   "Browse, register for and manage events",
	RunE:    runEventsList,
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published events",
	Long: `List published events.

Examples:
  smartevents events list
  smartevents events list --keyword hackathon --sort-by date --order desc
  smartevents events list --category <category-id> --format json`,
	Args: cobra.NoArgs,
	RunE: runEventsList,
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsShow,
}

var eventsRegisterCmd = requireRoles(&cobra.Command{
	Use:   "register <event-id>",
	Short: "Register for an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsRegister,
}, session.RoleStudent)

var eventsRegisteredCmd = requireRoles(&cobra.Command{
	Use:   "registered",
	Short: "List the events you registered for",
	Args:  cobra.NoArgs,
	RunE:  runEventsRegistered,
}, session.RoleStudent)

var eventsQRCodeCmd = requireRoles(&cobra.Command{
	Use:   "qrcode <event-id>",
	Short: "Show the QR pass for an event",
	Long: `Fetch the QR pass for an event and draw it in the terminal.

Use --raw to print only the pass payload, for example to pipe it into
'smartevents qr verify'.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsQRCode,
}, session.RoleStudent, session.RoleOrganizer)

var eventsMineCmd = requireRoles(&cobra.Command{
	Use:   "mine",
	Short: "List the events you organize",
	Args:  cobra.NoArgs,
	RunE:  runEventsMine,
}, session.RoleOrganizer)

var eventsCreateCmd = requireRoles(&cobra.Command{
	Use:   "create",
	Short: "Create an event (pending admin approval)",
	Long: `Create an event. New events stay pending until an admin approves them.

Examples:
  smartevents events create --title "Spring Hackathon" --date 2026-04-12 \
    --start 09:00 --end 18:00 --location "Main Hall" --category <category-id>`,
	Args: cobra.NoArgs,
	RunE: runEventsCreate,
}, session.RoleOrganizer)

var eventsUpdateCmd = requireRoles(&cobra.Command{
	Use:   "update <event-id>",
	Short: "Update an event",
	Long:  `Update an event. Only the flags you pass are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsUpdate,
}, session.RoleOrganizer, session.RoleAdmin)

var eventsDeleteCmd = requireRoles(&cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsDelete,
}, session.RoleOrganizer, session.RoleAdmin)

func init() {
	for _, c := range []*cobra.Command{eventsCmd, eventsListCmd} {
		c.Flags().StringP("keyword", "k", "", "search title and description")
		c.Flags().StringP("category", "c", "", "category id")
		c.Flags().String("date-range", "", "date range understood by the server, e.g. upcoming")
		c.Flags().String("sort-by", "", "sort field, e.g. date or title")
		c.Flags().String("order", "", "sort order: asc or desc")
	}

	for _, c := range []*cobra.Command{eventsCreateCmd, eventsUpdateCmd} {
		f := c.Flags()
		f.String("title", "", "event title")
		f.String("description", "", "event description")
		f.String("date", "", "event date (YYYY-MM-DD)")
		f.String("start", "", "start time (HH:MM)")
		f.String("end", "", "end time (HH:MM)")
		f.String("location", "", "venue")
		f.String("category", "", "category id")
		f.String("image", "", "event image URL")
	}

	eventsQRCodeCmd.Flags().Bool("raw", false, "print the pass payload instead of drawing it")
	eventsDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsRegisterCmd, eventsRegisteredCmd,
		eventsQRCodeCmd, eventsMineCmd, eventsCreateCmd, eventsUpdateCmd, eventsDeleteCmd)
	rootCmd.AddCommand(eventsCmd)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	filter := platform.EventFilter{}
	filter.Keyword, _ = f.GetString("keyword")
	filter.Category, _ = f.GetString("category")
	filter.DateRange, _ = f.GetString("date-range")
	filter.SortBy, _ = f.GetString("sort-by")
	filter.Order, _ = f.GetString("order")

	if filter.Order != "" && filter.Order != "asc" && filter.Order != "desc" {
		return apperrors.NewInputInvalidError(fmt.Sprintf("order %q must be asc or desc", filter.Order), nil)
	}

	events, err := cc.Client.ListEvents(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return cc.Print(eventList(events))
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ev, err := cc.Client.GetEvent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return cc.Print(eventDetail(*ev))
}

func runEventsRegister(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	msg, err := cc.Client.RegisterForEvent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return cc.Done(orDefault(msg.Text(), "Registered"))
}

func runEventsRegistered(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	events, err := cc.Client.RegisteredEvents(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(eventList(events))
}

func runEventsQRCode(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	pass, err := cc.Client.EventQRCode(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetBool("raw")
	switch {
	case cc.Format != "" && cc.Format != "text":
		return cc.Print(pass)
	case raw:
		_, err := fmt.Fprintln(cc.Out, pass.Code)
		return err
	}

	art, err := ux.RenderQR(pass.Code)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cc.Out, "%s\nPass: %s\n", art, pass.Code)
	return err
}

func runEventsMine(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	events, err := cc.Client.MyEvents(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(eventList(events))
}

func runEventsCreate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var in platform.EventInput
	applyEventFlags(cmd, &in)
	if in.Category == "" && tui.ShouldPrompt() {
		if in.Category, err = pickCategory(cmd, cc); err != nil {
			return err
		}
	}
	if err := platform.Validate(in); err != nil {
		return err
	}

	ev, err := cc.Client.CreateEvent(cmd.Context(), in)
	if err != nil {
		return err
	}
	if cc.Format != "" && cc.Format != "text" {
		return cc.Print(ev)
	}
	return cc.Done(fmt.Sprintf("Created %q (%s), waiting for approval", ev.Title, ev.ID))
}

func runEventsUpdate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	current, err := cc.Client.GetEvent(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	in := platform.EventInput{
		Title:       current.Title,
		Description: current.Description,
		Date:        dateOnly(current.Date),
		StartTime:   current.StartTime,
		EndTime:     current.EndTime,
		Location:    current.Location,
		Category:    current.Category.ID,
		EventImage:  current.EventImage,
	}
	if !applyEventFlags(cmd, &in) {
		return cmd.Help()
	}
	if err := platform.Validate(in); err != nil {
		return err
	}

	ev, err := cc.Client.UpdateEvent(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}
	if cc.Format != "" && cc.Format != "text" {
		return cc.Print(ev)
	}
	return cc.Done(fmt.Sprintf("Updated %q", ev.Title))
}

// pickCategory offers the existing categories in a select prompt.
func pickCategory(cmd *cobra.Command, cc *CommandContext) (string, error) {
	categories, err := cc.Client.ListCategories(cmd.Context())
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "", apperrors.NewInputRequiredError("--category")
	}
	choices := make([]tui.Choice, len(categories))
	for i, c := range categories {
		choices[i] = tui.Choice{Label: c.Name, Value: c.ID}
	}
	return tui.PromptForSelect("Category", choices)
}

// applyEventFlags copies the changed event flags into in and reports
// whether any flag was set.
func applyEventFlags(cmd *cobra.Command, in *platform.EventInput) bool {
	fields := map[string]*string{
		"title":       &in.Title,
		"description": &in.Description,
		"date":        &in.Date,
		"start":       &in.StartTime,
		"end":         &in.EndTime,
		"location":    &in.Location,
		"category":    &in.Category,
		"image":       &in.EventImage,
	}
	changed := false
	for name, dst := range fields {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		*dst = strings.TrimSpace(f.Value.String())
		changed = true
	}
	return changed
}

// dateOnly trims an ISO timestamp such as 2026-04-12T00:00:00.000Z to its
// date part.
func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

func runEventsDelete(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !cc.confirm(fmt.Sprintf("Delete event %s?", args[0])) {
		return cc.Done("Nothing deleted")
	}

	if err := cc.Client.DeleteEvent(cmd.Context(), args[0]); err != nil {
		return err
	}
	return cc.Done(fmt.Sprintf("Deleted event %s", args[0]))
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Work with QR passes",
}

var qrVerifyCmd = requireRoles(&cobra.Command{
	Use:   "verify <payload>",
	Short: "Check an attendee's QR pass",
	Long: `Send a scanned pass payload to the server and show who it belongs to.

Examples:
  smartevents qr verify "$(smartevents events qrcode <event-id> --raw)"`,
	Args: cobra.ExactArgs(1),
	RunE: runQRVerify,
}, session.RoleOrganizer)

func init() {
	qrCmd.AddCommand(qrVerifyCmd)
	rootCmd.AddCommand(qrCmd)
}

func runQRVerify(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	payload := strings.TrimSpace(args[0])
	if payload == "" {
		return apperrors.NewInputRequiredError("payload")
	}

	result, err := cc.Client.VerifyQR(cmd.Context(), payload)
	if err != nil {
		return err
	}
	return cc.Print(verificationView(*result))
}
