package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/bmvault/internal/bookmarks"
	"github.com/user/bmvault/internal/models"
	"github.com/user/bmvault/internal/session"
)

type screen int

const (
	screenBoot screen = iota
	screenLogin
	screenBookmarks
)

const requestTimeout = 15 * time.Second

type model struct {
	sess  *session.Controller
	marks *bookmarks.Controller

	screen screen
	// bootID tags the startup identity probe; a result whose id no longer
	// matches (boot skipped or restarted) is dropped.
	bootID int

	login  loginForm
	browse browser

	width  int
	height int
}

// bootMsg carries the result of the startup identity probe.
type bootMsg struct {
	id   int
	user *models.User
	err  error
}

func initialModel(sess *session.Controller, marks *bookmarks.Controller) model {
	return model{
		sess:   sess,
		marks:  marks,
		screen: screenBoot,
		bootID: 1,
		login:  newLoginForm(),
		browse: newBrowser(),
	}
}

func (m model) Init() tea.Cmd {
	return m.probe(m.bootID)
}

func (m model) probe(id int) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := sess.CurrentUser(ctx)
		return bootMsg{id: id, user: user, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.browse.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case bootMsg:
		if m.screen != screenBoot || msg.id != m.bootID {
			return m, nil
		}
		if msg.user != nil {
			return m.enterBookmarks()
		}
		m.login.reset()
		if msg.err != nil {
			m.login.err = fmt.Sprintf("could not reach server: %v", msg.err)
		}
		return m.enterLogin()
	}

	switch m.screen {
	case screenBoot:
		return m.updateBoot(msg)
	case screenLogin:
		return m.updateLogin(msg)
	default:
		return m.updateBookmarks(msg)
	}
}

func (m model) updateBoot(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			// skip the probe; its late result is ignored
			m.bootID++
			return m.enterLogin()
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) enterLogin() (tea.Model, tea.Cmd) {
	m.screen = screenLogin
	return m, m.login.focus()
}

func (m model) enterBookmarks() (tea.Model, tea.Cmd) {
	m.screen = screenBookmarks
	m.marks.Mount()
	m.browse.reset()
	m.browse.setSize(m.width, m.height)
	return m, m.load("")
}

func (m model) View() string {
	switch m.screen {
	case screenBoot:
		return titleStyle.Render("bmvault") + "\n\n" +
			"Checking session...\n" +
			helpStyle.Render("[esc]skip [q]uit")
	case screenLogin:
		return m.viewLogin()
	default:
		return m.viewBookmarks()
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("don't know how to open a browser on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// Run starts the TUI on the given controllers.
func Run(sess *session.Controller, marks *bookmarks.Controller) error {
	p := tea.NewProgram(initialModel(sess, marks), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
