package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, account, connection state and
// the current location.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100
	sep := bg.Spaces(2)

	parts := []string{bg.Render("shelf", styles.Logo)}

	switch {
	case m.snapshot.SessionExpired:
		parts = append(parts, bg.Render("SESSION EXPIRED", styles.DangerText))
	case m.snapshot.IsOffline():
		label := "OFFLINE"
		if m.snapshot.LastError != nil {
			label = strings.ToUpper(classifyConnectionError(m.snapshot.LastError))
		}
		parts = append(parts, bg.Render("● "+label, styles.DangerText))
	case m.snapshot.HasUser:
		parts = append(parts, bg.Render("● ON", styles.SuccessText))
	case m.currentView == ViewLogin:
		parts = append(parts, bg.Render("signed out", styles.MutedText))
	default:
		parts = append(parts, bg.Render("● connecting", styles.WarningText))
	}

	if user := m.displayUser(); user != "" {
		parts = append(parts, bg.Render(truncate(user, 32), styles.Text))
	}

	if m.currentView != ViewLogin && m.sync != nil {
		loc := m.sync.Location().String()
		if loc == "" {
			loc = "?"
		} else {
			loc = "?" + loc
		}
		limit := 60
		if compact {
			limit = 28
		}
		parts = append(parts,
			bg.Render("at", styles.FaintText)+bg.Space()+bg.Render(truncateMiddle(loc, limit), styles.AccentText))
	}

	if !compact && !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(styles.Header.Render(strings.Join(parts, sep)))
}

// displayUser prefers the probed user and falls back to the stored session.
func (m Model) displayUser() string {
	u := m.snapshot.User
	if !m.snapshot.HasUser && m.session != nil {
		stored, ok := m.session.User()
		if !ok {
			return ""
		}
		u = stored
	}
	switch {
	case u.Name != "" && u.Email != "":
		return u.Name + " <" + u.Email + ">"
	case u.Email != "":
		return u.Email
	default:
		return u.Name
	}
}

// classifyConnectionError returns a short description of a transport error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "offline"
	case strings.Contains(msg, "no such host"):
		return "host not found"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timed out"
	default:
		return "unreachable"
	}
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.currentView == ViewLogin:
		mode := "Register"
		if m.login.register {
			mode = "Sign in"
		}
		commands = []cmd{
			{"tab", "Next field"},
			{"enter", "Submit"},
			{"ctrl+t", mode},
			{"ctrl+c", "Quit"},
		}
	case m.searchFocused:
		commands = []cmd{
			{"type", "Search"},
			{"ctrl+l", "Clear"},
			{"enter/esc", "Done"},
		}
	case m.currentView == ViewActivity:
		follow := "Follow"
		if m.activity.follow {
			follow = "Pause"
		}
		commands = []cmd{
			{"j/k", "Scroll"},
			{"space", follow},
			{"esc", "Products"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"f", "Filters"},
			{"n/p", "Page"},
			{"c", "New"},
			{"e", "Edit"},
			{"d", "Delete"},
			{"r", "Refresh"},
			{"a", "Activity"},
			{"?", "More"},
		}
	}

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Hint(c.key, c.desc, styles))
	}
	segments = append(segments, bg.Hint("T", m.theme.Name, styles))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
