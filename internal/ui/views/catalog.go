package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/ui/components"
)

// QueryChangedMsg is sent whenever the search text changes
type QueryChangedMsg struct {
	Query string
}

// CatalogView displays the catalog with its search box
type CatalogView struct {
	Width       int
	Height      int
	TrackList   components.TrackList
	SearchBar   components.SearchInput
	Searching   bool
	Status      string
	BorderStyle lipgloss.Style
	StatusStyle lipgloss.Style
}

// NewCatalogView creates a new catalog view
func NewCatalogView(width, height int) CatalogView {
	trackList := components.NewTrackList(height-8, width-6)
	trackList.Title = "🎵 Tracks"

	return CatalogView{
		Width:     width,
		Height:    height,
		TrackList: trackList,
		SearchBar: components.NewSearchInput(width - 6),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
	}
}

// SetSize resizes the view and its children
func (v *CatalogView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.TrackList.Width = width - 6
	v.TrackList.Height = height - 6
	v.SearchBar.SetWidth(width - 6)
}

// SetTracks replaces the catalog shown
func (v *CatalogView) SetTracks(tracks []api.Track) {
	v.TrackList.SetItems(tracks)
}

// SetPlaying marks the current track in the list
func (v *CatalogView) SetPlaying(track api.Track) {
	v.TrackList.Playing = track
}

// StartSearch focuses the search box
func (v *CatalogView) StartSearch() tea.Cmd {
	v.Searching = true
	return v.SearchBar.Focus()
}

// Update handles messages
func (v CatalogView) Update(msg tea.Msg) (CatalogView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if v.Searching {
			var cmd tea.Cmd
			v.SearchBar, cmd = v.SearchBar.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	if !v.Searching {
		v.TrackList, _ = v.TrackList.Update(key)
		return v, nil
	}

	switch key.String() {
	case "enter":
		// The query stays applied; only focus leaves the box
		v.Searching = false
		v.SearchBar.Blur()
		return v, nil
	case "esc":
		// Abandoning the search restores the full catalog
		v.Searching = false
		v.SearchBar.Blur()
		if v.SearchBar.Value() == "" {
			return v, nil
		}
		v.SearchBar.Clear()
		return v, func() tea.Msg { return QueryChangedMsg{Query: ""} }
	case "up", "down":
		v.TrackList, _ = v.TrackList.Update(key)
		return v, nil
	}

	before := v.SearchBar.Value()
	var cmd tea.Cmd
	v.SearchBar, cmd = v.SearchBar.Update(key)
	if after := v.SearchBar.Value(); after != before {
		changed := func() tea.Msg { return QueryChangedMsg{Query: after} }
		return v, tea.Batch(cmd, changed)
	}
	return v, cmd
}

// SelectedTrack returns the currently selected track
func (v *CatalogView) SelectedTrack() (api.Track, bool) {
	return v.TrackList.SelectedItem()
}

// View renders the catalog view
func (v CatalogView) View() string {
	var sb strings.Builder

	sb.WriteString(v.SearchBar.View())
	sb.WriteString("\n")
	sb.WriteString(v.TrackList.View())
	if v.Status != "" {
		sb.WriteString("\n")
		sb.WriteString(v.StatusStyle.Render(v.Status))
	}

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
