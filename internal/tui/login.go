package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginForm struct {
	inputs   []textinput.Model
	focused  int
	register bool
	busy     bool
	err      string
}

// authMsg reports the end of a login or register-then-login round trip.
type authMsg struct {
	err error
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 72
	pass.Width = 30

	return loginForm{inputs: []textinput.Model{user, pass}}
}

func (f *loginForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.focused = 0
	f.busy = false
	f.err = ""
}

func (f *loginForm) focus() tea.Cmd {
	for i := range f.inputs {
		if i == f.focused {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (f *loginForm) move(delta int) tea.Cmd {
	f.focused = (f.focused + delta + len(f.inputs)) % len(f.inputs)
	return f.focus()
}

func (m model) submitAuth() tea.Cmd {
	sess := m.sess
	username := m.login.inputs[0].Value()
	password := m.login.inputs[1].Value()
	register := m.login.register
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if register {
			if err := sess.Register(ctx, username, password); err != nil {
				return authMsg{err: err}
			}
		}
		return authMsg{err: sess.Login(ctx, username, password)}
	}
}

func (m model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.err = msg.err.Error()
			m.login.inputs[1].SetValue("")
			return m, nil
		}
		m.login.reset()
		return m.enterBookmarks()

	case tea.KeyMsg:
		if m.login.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "tab":
			m.login.register = !m.login.register
			m.login.err = ""
			return m, nil
		case "up", "shift+tab":
			return m, m.login.move(-1)
		case "down":
			return m, m.login.move(1)
		case "enter":
			if m.login.focused == 0 {
				return m, m.login.move(1)
			}
			m.login.busy = true
			m.login.err = ""
			return m, m.submitAuth()
		}
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focused], cmd = m.login.inputs[m.login.focused].Update(msg)
	return m, cmd
}

func (m model) viewLogin() string {
	var b strings.Builder

	mode, other := "Login", "register"
	if m.login.register {
		mode, other = "Register", "login"
	}
	b.WriteString(titleStyle.Render("bmvault · "+mode) + "\n\n")

	labels := []string{"Username", "Password"}
	var form strings.Builder
	for i, in := range m.login.inputs {
		label := blurredLabel.Render(labels[i])
		if i == m.login.focused {
			label = focusedLabel.Render(labels[i])
		}
		form.WriteString(label + "\n" + in.View())
		if i < len(m.login.inputs)-1 {
			form.WriteString("\n\n")
		}
	}
	b.WriteString(boxStyle.Render(form.String()) + "\n")

	if m.login.busy {
		b.WriteString(dimStyle.Render("working...") + "\n")
	}
	if m.login.err != "" {
		b.WriteString(errorStyle.Render(m.login.err) + "\n")
	}
	b.WriteString(helpStyle.Render("[enter]submit [tab]switch to " + other + " [esc]quit"))
	return b.String()
}
