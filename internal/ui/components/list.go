package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/sonicstream/api"
	"github.com/mattn/go-runewidth"
)

// TrackList represents a scrollable list of tracks
type TrackList struct {
	Items         []api.Track
	Selected      int
	Height        int
	Width         int
	Offset        int
	Title         string
	Playing       api.Track
	ShowNumbers   bool
	SelectedStyle lipgloss.Style
	NormalStyle   lipgloss.Style
	PlayingStyle  lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewTrackList creates a new track list
func NewTrackList(height, width int) TrackList {
	return TrackList{
		Items:  make([]api.Track, 0),
		Height: height,
		Width:  width,
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		PlayingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
		ShowNumbers: true,
	}
}

// SetItems replaces the list items. The selection follows the previously
// selected track when it is still present.
func (l *TrackList) SetItems(items []api.Track) {
	var keep api.Track
	if item, ok := l.SelectedItem(); ok {
		keep = item
	}

	l.Items = items
	l.Selected = 0
	l.Offset = 0
	for i, t := range items {
		if t == keep {
			l.Selected = i
			break
		}
	}
	l.ensureVisible()
}

// Update handles messages for the track list
func (l TrackList) Update(msg tea.Msg) (TrackList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.Selected = 0
			l.Offset = 0
		case "end", "G":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		case "pgup":
			l.PageUp()
		case "pgdown":
			l.PageDown()
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *TrackList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *TrackList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// PageUp moves selection up by a page
func (l *TrackList) PageUp() {
	l.Selected -= l.visibleHeight()
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

// PageDown moves selection down by a page
func (l *TrackList) PageDown() {
	l.Selected += l.visibleHeight()
	if l.Selected >= len(l.Items) {
		l.Selected = len(l.Items) - 1
	}
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

func (l *TrackList) visibleHeight() int {
	h := l.Height - 2 // title and counter
	if h < 1 {
		h = 1
	}
	return h
}

// ensureVisible ensures the selected item is visible
func (l *TrackList) ensureVisible() {
	visibleHeight := l.visibleHeight()
	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visibleHeight {
		l.Offset = l.Selected - visibleHeight + 1
	}
}

// SelectedItem returns the currently selected track
func (l *TrackList) SelectedItem() (api.Track, bool) {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Items[l.Selected], true
	}
	return "", false
}

// View renders the track list
func (l TrackList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("No tracks"))
		return sb.String()
	}

	visibleHeight := l.visibleHeight()
	end := l.Offset + visibleHeight
	if end > len(l.Items) {
		end = len(l.Items)
	}

	for i := l.Offset; i < end; i++ {
		track := l.Items[i]

		marker := "  "
		if track == l.Playing && l.Playing != "" {
			marker = "♪ "
		}

		line := marker + string(track)
		if l.ShowNumbers {
			line = fmt.Sprintf("%3d. %s", i+1, line)
		}
		line = Truncate(line, l.Width-2)

		switch {
		case i == l.Selected:
			sb.WriteString(l.SelectedStyle.Render(line))
		case track == l.Playing:
			sb.WriteString(l.PlayingStyle.Render(line))
		default:
			sb.WriteString(l.NormalStyle.Render(line))
		}

		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visibleHeight {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// Truncate shortens s to at most width terminal cells
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
