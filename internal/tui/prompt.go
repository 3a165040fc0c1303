package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user leaves a prompt with esc or ctrl+c.
var ErrPromptCancelled = errors.New("prompt cancelled")

type promptModel struct {
	label     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPrompt(label string, secret bool) promptModel {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 30
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return promptModel{label: label, input: ti}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return focusedLabel.Render(m.label) + " " + m.input.View() + "\n"
}

// Prompt reads one line from the terminal. secret hides what is typed.
func Prompt(label string, secret bool) (string, error) {
	final, err := tea.NewProgram(newPrompt(label, secret)).Run()
	if err != nil {
		return "", err
	}
	m := final.(promptModel)
	if m.cancelled {
		return "", ErrPromptCancelled
	}
	return m.input.Value(), nil
}
