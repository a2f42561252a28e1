package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/smartevents/internal/guard"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/router"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

// View renders the TUI (required by Bubble Tea)
func (m *App) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.outcome.Decision == guard.Pending {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.Muted.Render("Restoring session..."))
		b.WriteString("\n")
		return b.String()
	}

	switch m.route.Path {
	case router.PathHome:
		b.WriteString(m.renderHome())
	case router.PathEvents:
		b.WriteString(m.renderEventList("Upcoming events", "No events published yet."))
	case router.PathLogin:
		b.WriteString(m.renderLogin())
	case router.PathStudent:
		b.WriteString(m.renderStudent())
	case router.PathOrganizer:
		b.WriteString(m.renderOrganizer())
	case router.PathAdmin:
		b.WriteString(m.renderAdmin())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *App) renderHeader() string {
	title := m.styles.Title.UnsetMarginBottom().Render("SmartEvents")
	crumb := m.styles.Muted.Render(" / " + m.route.Title)

	who := m.styles.Muted.Render("not signed in")
	if s := m.store.Current(); s != nil {
		who = s.DisplayName + " " + m.styles.Badge.Render(s.Role.String())
	}

	left := title + crumb
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(who)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + who
}

func (m *App) renderStatusLine() string {
	switch {
	case m.loading:
		return m.spinner.View() + " " + m.styles.Muted.Render("Working...")
	case m.err != nil:
		return m.styles.Error.Render("✗ " + ux.ServerMessage(m.err))
	case m.status != "":
		return m.styles.Success.Render("✓ " + m.status)
	}
	return ""
}

func (m *App) renderHome() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Discover, register for and run campus events."))
	b.WriteString("\n")

	if s := m.store.Current(); s != nil {
		b.WriteString(fmt.Sprintf("Signed in as %s. Press d for your dashboard.\n", s.DisplayName))
	} else {
		b.WriteString("Press e to browse events or l to sign in.\n")
	}
	return b.String()
}

func (m *App) renderLogin() string {
	if m.loginForm == nil {
		return m.styles.Muted.Render("Signing in...") + "\n"
	}
	return m.loginForm.View()
}

func (m *App) renderStudent() string {
	var b strings.Builder
	b.WriteString(m.renderEventList("Your registrations", "You have not registered for any events. Press e to browse."))
	if m.pass != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Border.Render(m.pass))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *App) renderOrganizer() string {
	var b strings.Builder
	b.WriteString(m.renderEventList("Your events", "You have not created any events yet."))
	if m.verifyForm != nil {
		b.WriteString("\n")
		b.WriteString(m.verifyForm.View())
	}
	return b.String()
}

func (m *App) renderAdmin() string {
	var b strings.Builder
	if m.stats != nil {
		b.WriteString(m.renderStats(m.stats))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderEventList("Pending approval", "Nothing is waiting for approval."))
	return b.String()
}

func (m *App) renderStats(s *platform.Stats) string {
	cells := []string{
		fmt.Sprintf("Users %s", m.styles.Status.Render(fmt.Sprint(s.TotalUsers))),
		fmt.Sprintf("Events %s", m.styles.Status.Render(fmt.Sprint(s.TotalEvents))),
		fmt.Sprintf("Approved %s", m.styles.Success.Render(fmt.Sprint(s.ApprovedEvents))),
		fmt.Sprintf("Pending %s", m.styles.Warning.Render(fmt.Sprint(s.PendingEvents))),
	}
	return strings.Join(cells, m.styles.Muted.Render("  │  "))
}

func (m *App) renderEventList(title, empty string) string {
	var b strings.Builder
	b.WriteString(m.styles.Status.Render(title))
	b.WriteString("\n\n")

	if len(m.events) == 0 {
		if !m.loading && m.err == nil {
			b.WriteString(m.styles.Muted.Render(empty))
			b.WriteString("\n")
		}
		return b.String()
	}

	for i, ev := range m.events {
		line := fmt.Sprintf("%s  %-32s %s", ev.Date, truncate(ev.Title, 32), m.styles.Muted.Render(ev.Location))
		if i == m.cursor {
			b.WriteString(m.styles.Highlighted.Render("›") + " " + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
