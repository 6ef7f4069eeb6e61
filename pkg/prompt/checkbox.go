// Package prompt implements the interactive terminal prompts.
package prompt

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Checkbox lets the user pick any number of choices
type Checkbox struct {
	Title    string
	Choices  []string
	cursor   int
	selected map[int]bool
	done     bool
	aborted  bool
}

var _ tea.Model = (*Checkbox)(nil)

// NewCheckbox returns a checkbox prompt with the choices in preselected already checked
func NewCheckbox(title string, choices, preselected []string) *Checkbox {
	checked := make(map[string]bool, len(preselected))
	for _, name := range preselected {
		checked[name] = true
	}

	selected := make(map[int]bool)
	for idx, choice := range choices {
		if checked[choice] {
			selected[idx] = true
		}
	}

	return &Checkbox{
		Title:    title,
		Choices:  choices,
		selected: selected,
	}
}

func (m *Checkbox) Init() tea.Cmd {
	return nil
}

func (m *Checkbox) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.Choices)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.Choices) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "a":
		all := len(m.Selected()) == len(m.Choices)
		for idx := range m.Choices {
			m.selected[idx] = !all
		}
	}

	return m, nil
}

func (m *Checkbox) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n\n")

	for idx, choice := range m.Choices {
		cursor := "  "
		if idx == m.cursor {
			cursor = cursorStyle.Render("❯ ")
		}

		box := "[ ]"
		line := choice
		if m.selected[idx] {
			box = "[x]"
			line = selectedStyle.Render(choice)
		}

		b.WriteString(cursor + box + " " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: toggle • a: all • enter: confirm • esc: abort"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the checked choices in their original order
func (m *Checkbox) Selected() []string {
	result := make([]string, 0, len(m.selected))
	for idx, choice := range m.Choices {
		if m.selected[idx] {
			result = append(result, choice)
		}
	}
	return result
}

// Aborted reports whether the user cancelled the prompt
func (m *Checkbox) Aborted() bool {
	return m.aborted
}

// ErrAborted is returned by the Ask helpers if the user cancelled the prompt
var ErrAborted = eris.New("prompt aborted")

// AskCheckbox runs the checkbox prompt on the given terminal streams and returns the selection
func AskCheckbox(in io.Reader, out io.Writer, title string, choices, preselected []string) ([]string, error) {
	model := NewCheckbox(title, choices, preselected)
	if _, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run(); err != nil {
		return nil, eris.Wrap(err, "failed to run prompt")
	}

	if model.Aborted() {
		return nil, ErrAborted
	}
	return model.Selected(), nil
}
