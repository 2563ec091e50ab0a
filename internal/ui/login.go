package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/inventory"
)

const (
	loginName = iota
	loginEmail
	loginPassword
	loginFieldCount
)

// loginForm is the sign-in and registration view.
type loginForm struct {
	register bool
	inputs   [loginFieldCount]textinput.Model
	focus    int
	err      string
	busy     bool
}

func newLoginForm() loginForm {
	var f loginForm
	placeholders := [loginFieldCount]string{"Full name", "you@example.com", "password"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 120
		ti.Placeholder = placeholders[i]
		f.inputs[i] = ti
	}
	f.inputs[loginPassword].EchoMode = textinput.EchoPassword
	f.inputs[loginPassword].EchoCharacter = '•'
	f.setFocus(loginEmail)
	return f
}

func (f *loginForm) fields() []int {
	if f.register {
		return []int{loginName, loginEmail, loginPassword}
	}
	return []int{loginEmail, loginPassword}
}

func (f *loginForm) setFocus(field int) tea.Cmd {
	f.focus = field
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[field].Focus()
}

// step moves focus by delta within the visible fields.
func (f *loginForm) step(delta int) tea.Cmd {
	fields := f.fields()
	pos := 0
	for i, field := range fields {
		if field == f.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	return f.setFocus(fields[pos])
}

func (f loginForm) credentials() inventory.Credentials {
	return inventory.Credentials{
		Email:    strings.TrimSpace(f.inputs[loginEmail].Value()),
		Password: f.inputs[loginPassword].Value(),
	}
}

func (f loginForm) registration() inventory.Registration {
	return inventory.Registration{
		Name:     strings.TrimSpace(f.inputs[loginName].Value()),
		Email:    strings.TrimSpace(f.inputs[loginEmail].Value()),
		Password: f.inputs[loginPassword].Value(),
	}
}

// missing names the first empty required field, if any.
func (f loginForm) missing() string {
	if f.register && strings.TrimSpace(f.inputs[loginName].Value()) == "" {
		return "Name is required"
	}
	if strings.TrimSpace(f.inputs[loginEmail].Value()) == "" {
		return "Email is required"
	}
	if f.inputs[loginPassword].Value() == "" {
		return "Password is required"
	}
	return ""
}

// handleLoginKey processes keyboard input for the login view.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.SwitchAuth):
		m.login.register = !m.login.register
		m.login.err = ""
		first := loginEmail
		if m.login.register {
			first = loginName
		}
		return m, m.login.setFocus(first)

	case msg.String() == "tab", msg.String() == "down":
		return m, m.login.step(1)

	case msg.String() == "shift+tab", msg.String() == "up":
		return m, m.login.step(-1)

	case key.Matches(msg, m.keys.Confirm):
		if m.login.focus != loginPassword {
			return m, m.login.step(1)
		}
		if missing := m.login.missing(); missing != "" {
			m.login.err = missing
			return m, nil
		}
		if m.client == nil {
			m.login.err = "No backend configured"
			return m, nil
		}
		m.login.busy = true
		m.login.err = ""
		return m, authCmd(m.ctx, m.client, m.login)

	case key.Matches(msg, m.keys.Escape):
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	m.login.err = ""
	return m, cmd
}

// handleAuth stores a successful sign-in and opens the product list. A new
// session must not see pages fetched under the old one.
func (m Model) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		m.log.Info("sign in failed", zap.Bool("register", msg.register), zap.Error(msg.err))
		switch {
		case errors.Is(msg.err, inventory.ErrUnauthorized):
			m.login.err = "Email or password is incorrect"
		default:
			m.login.err = describeError(msg.err)
		}
		return m, nil
	}

	if m.session != nil {
		if err := m.session.Save(msg.result); err != nil {
			m.login.err = "Could not save credentials: " + err.Error()
			return m, nil
		}
	}
	if m.store != nil {
		m.store.SignedIn(msg.result.User)
		m.snapshot = m.store.Snapshot()
	}
	m.log.Info("signed in", zap.String("user_id", msg.result.User.ID), zap.Bool("register", msg.register))

	m.currentView = ViewProducts
	m.login = newLoginForm()
	if m.browse.initialized {
		if m.cache != nil {
			m.cache.InvalidateList()
		}
		if m.sync != nil {
			m.sync.Refresh()
		}
	} else {
		m.initializeBrowse()
	}
	m.syncView()
	return m, m.previewSelected()
}

// renderLogin renders the sign-in or registration form.
func (m Model) renderLogin() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	f := m.login

	title := "Sign in"
	if f.register {
		title = "Create account"
	}
	labels := [loginFieldCount]string{"Name", "Email", "Password"}

	var lines []string
	for _, field := range f.fields() {
		style := styles.FaintText
		marker := "  "
		if f.focus == field {
			style = styles.AccentText
			marker = "› "
		}
		lines = append(lines, bg.Render(marker+padRight(labels[field], 10), style)+f.inputs[field].View())
	}
	lines = append(lines, "")
	switch {
	case f.busy:
		lines = append(lines, bg.Render("Contacting backend...", styles.InfoText))
	case f.err != "":
		lines = append(lines, bg.Render(f.err, styles.DangerText))
	}
	other := "Register"
	if f.register {
		other = "Sign in"
	}
	lines = append(lines, bg.Hint("enter", "Submit", styles)+bg.Spaces(2)+bg.Hint("ctrl+t", other, styles))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		BorderBackground(lipgloss.Color(m.theme.Surface)).
		Background(lipgloss.Color(m.theme.Surface)).
		Padding(1, 2).
		Width(52).
		Render(styles.AccentText.Bold(true).Render(title) + "\n\n" + strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, max(m.height-2, 0), lipgloss.Center, lipgloss.Center, box)
}
