package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/logtail"
)

// activityState holds the tail of shelf's own log file.
type activityState struct {
	entries []logtail.Entry
	err     error
	follow  bool
}

func (m *Model) resizeActivity() {
	w, h := max(m.width-2, 0), max(m.height-5, 0)
	if m.activityViewport.Width == 0 && m.activityViewport.Height == 0 {
		m.activityViewport = viewport.New(w, h)
	}
	m.activityViewport.Width = w
	m.activityViewport.Height = h
	m.activityViewport.SetContent(m.renderActivityContent(w))
	if m.activity.follow {
		m.activityViewport.GotoBottom()
	}
}

func (m *Model) applyActivity(msg activityMsg) {
	m.activity.err = msg.err
	if msg.err == nil {
		m.activity.entries = msg.entries
	}
	m.activityViewport.SetContent(m.renderActivityContent(m.activityViewport.Width))
	if m.activity.follow {
		m.activityViewport.GotoBottom()
	}
}

// handleActivityKey processes keyboard input for the activity view.
func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ActivityTail):
		m.activity.follow = !m.activity.follow
		if m.activity.follow {
			m.activityViewport.GotoBottom()
			return m, loadActivityCmd(m.logFile, activityLineLimit)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, loadActivityCmd(m.logFile, activityLineLimit)
	case key.Matches(msg, m.keys.Down):
		m.activityViewport.ScrollDown(1)
		m.activity.follow = false
	case key.Matches(msg, m.keys.Up):
		m.activityViewport.ScrollUp(1)
		m.activity.follow = false
	case key.Matches(msg, m.keys.Top):
		m.activityViewport.GotoTop()
		m.activity.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.activityViewport.GotoBottom()
		m.activity.follow = true
	case msg.String() == "ctrl+d":
		m.activityViewport.HalfPageDown()
		m.activity.follow = false
	case msg.String() == "ctrl+u":
		m.activityViewport.HalfPageUp()
		m.activity.follow = false
	}
	return m, nil
}

// renderActivity renders the activity view.
func (m Model) renderActivity() string {
	title := fmt.Sprintf("Activity (%d entries)", len(m.activity.entries))
	if !m.activity.follow {
		title += " paused"
	}
	box := m.renderTitledBox(title, m.activityViewport.View(), m.width, m.height-3, true)

	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles()
	status := bg.Render(truncateMiddle(m.logFile, max(m.width-2, 0)), styles.FaintText)
	return box + "\n" + bg.FillLine(status, m.width)
}

// renderActivityContent renders one line per log entry:
// "15:04:05 LEVEL logger message key=value ...".
func (m Model) renderActivityContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	if m.activity.err != nil {
		return bg.FillLine(bg.Render(m.activity.err.Error(), styles.DangerText), width)
	}
	if len(m.activity.entries) == 0 {
		return bg.FillLine(bg.Render("No activity yet", styles.MutedText), width)
	}

	lines := make([]string, 0, len(m.activity.entries))
	for _, e := range m.activity.entries {
		lines = append(lines, bg.FillLine(m.formatActivityLine(e, bg, styles), width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatActivityLine(e logtail.Entry, bg BgStyle, styles Styles) string {
	if e.Level == "" && e.Time.IsZero() {
		return bg.Render(e.Raw, styles.MutedText)
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.LevelColor(e.Level))).Bold(true)
	b.WriteString(bg.Render(padRight(strings.ToUpper(e.Level), 5), levelStyle))
	if e.Logger != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(e.Logger, styles.AccentText))
	}
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(e.Msg, styles.Text))
	if fields := e.FieldString(); fields != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(fields, styles.MutedText))
	}
	return b.String()
}
