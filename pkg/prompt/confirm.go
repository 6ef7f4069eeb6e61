package prompt

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
)

// Confirm asks a yes/no question. Anything but an explicit yes counts as no.
type Confirm struct {
	Question string
	Default  bool
	answer   bool
	done     bool
}

var _ tea.Model = (*Confirm)(nil)

func NewConfirm(question string, def bool) *Confirm {
	return &Confirm{Question: question, Default: def}
}

func (m *Confirm) Init() tea.Cmd {
	return nil
}

func (m *Confirm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.answer = true
	case "n", "N", "ctrl+c", "esc", "q":
		m.answer = false
	case "enter":
		m.answer = m.Default
	default:
		return m, nil
	}

	m.done = true
	return m, tea.Quit
}

func (m *Confirm) View() string {
	hint := "[y/N]"
	if m.Default {
		hint = "[Y/n]"
	}

	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return titleStyle.Render(m.Question) + " " + answer + "\n"
	}
	return titleStyle.Render(m.Question) + " " + helpStyle.Render(hint) + " "
}

// Answer returns the user's decision
func (m *Confirm) Answer() bool {
	return m.done && m.answer
}

// AskConfirm runs the confirm prompt on the given terminal streams
func AskConfirm(in io.Reader, out io.Writer, question string) (bool, error) {
	model := NewConfirm(question, false)
	if _, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run(); err != nil {
		return false, eris.Wrap(err, "failed to run prompt")
	}

	return model.Answer(), nil
}
