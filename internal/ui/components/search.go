package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchInput represents a search input component
type SearchInput struct {
	Input      textinput.Model
	Width      int
	Style      lipgloss.Style
	FocusStyle lipgloss.Style
}

// NewSearchInput creates a new search input
func NewSearchInput(width int) SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Search tracks..."
	ti.Prompt = "🔍 "
	ti.CharLimit = 256

	s := SearchInput{
		Input: ti,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
	s.SetWidth(width)
	return s
}

// SetWidth resizes the input
func (s *SearchInput) SetWidth(width int) {
	s.Width = width
	inner := width - 8 // border, padding and prompt
	if inner < 1 {
		inner = 1
	}
	s.Input.Width = inner
}

// Focus sets focus on the input
func (s *SearchInput) Focus() tea.Cmd {
	return s.Input.Focus()
}

// Blur removes focus from the input
func (s *SearchInput) Blur() {
	s.Input.Blur()
}

// Value returns the current query
func (s SearchInput) Value() string {
	return s.Input.Value()
}

// Clear clears the input
func (s *SearchInput) Clear() {
	s.Input.Reset()
}

// Update handles messages for the search input
func (s SearchInput) Update(msg tea.Msg) (SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the search input
func (s SearchInput) View() string {
	if s.Input.Focused() {
		return s.FocusStyle.Width(s.Width).Render(s.Input.View())
	}
	return s.Style.Width(s.Width).Render(s.Input.View())
}
