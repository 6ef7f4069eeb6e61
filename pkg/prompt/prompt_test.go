package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func keys(m tea.Model, names ...string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, name := range names {
		var msg tea.KeyMsg
		switch name {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
		}
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func TestCheckboxPreselected(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre", "jellyfin", "nextcloud"}, []string{"nextcloud", "gone"})
	assert.Equal(t, []string{"nextcloud"}, m.Selected())
	assert.Contains(t, m.View(), "[x]")
}

func TestCheckboxToggle(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre", "jellyfin", "nextcloud"}, []string{"nextcloud"})

	_, cmd := keys(m, " ", "down", "down", " ", "up", "enter")
	assert.NotNil(t, cmd)
	assert.False(t, m.Aborted())
	assert.Equal(t, []string{"calibre"}, m.Selected())
	assert.Empty(t, m.View())
}

func TestCheckboxCursorBounds(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre", "jellyfin"}, nil)

	keys(m, "up", "up", "x", "down", "down", "down", "x")
	assert.Equal(t, []string{"calibre", "jellyfin"}, m.Selected())
}

func TestCheckboxToggleAll(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre", "jellyfin"}, []string{"calibre"})

	keys(m, "a")
	assert.Equal(t, []string{"calibre", "jellyfin"}, m.Selected())

	keys(m, "a")
	assert.Empty(t, m.Selected())
}

func TestCheckboxAbort(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre"}, nil)

	_, cmd := keys(m, "esc")
	assert.NotNil(t, cmd)
	assert.True(t, m.Aborted())
}

func TestCheckboxIgnoresOtherMessages(t *testing.T) {
	m := NewCheckbox("Active projects", []string{"calibre"}, nil)

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.NotEmpty(t, m.View())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name string
		def  bool
		keys []string
		want bool
	}{
		{name: "yes", keys: []string{"y"}, want: true},
		{name: "no", keys: []string{"n"}, want: false},
		{name: "enter uses default no", keys: []string{"enter"}, want: false},
		{name: "enter uses default yes", def: true, keys: []string{"enter"}, want: true},
		{name: "abort", def: true, keys: []string{"esc"}, want: false},
		{name: "other keys are ignored", keys: []string{"z", "y"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfirm("Create release v1.0.0?", tt.def)
			_, cmd := keys(m, tt.keys...)
			assert.NotNil(t, cmd)
			assert.Equal(t, tt.want, m.Answer())
		})
	}
}

func TestConfirmUnanswered(t *testing.T) {
	m := NewConfirm("Create release v1.0.0?", true)
	assert.False(t, m.Answer())
	assert.Contains(t, m.View(), "[Y/n]")
}
