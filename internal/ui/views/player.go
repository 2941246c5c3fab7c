package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/ui/components"
)

const (
	artworkWidth  = 12
	artworkHeight = 5
)

// PlayerView displays the now-playing panel
type PlayerView struct {
	Width       int
	Session     api.Session
	ProgressBar components.ProgressBar
	Spinner     spinner.Model
	Artwork     components.Artwork

	// Styles
	TitleStyle  lipgloss.Style
	ArtistStyle lipgloss.Style
	AlbumStyle  lipgloss.Style
	StatusStyle lipgloss.Style
	DimStyle    lipgloss.Style
	BorderStyle lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width int) PlayerView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return PlayerView{
		Width:       width,
		ProgressBar: components.NewProgressBar(width - artworkWidth - 10),
		Spinner:     s,
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		ArtistStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		AlbumStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		DimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// SetWidth resizes the panel
func (v *PlayerView) SetWidth(width int) {
	v.Width = width
	v.ProgressBar.Width = width - artworkWidth - 10
}

// SetSession updates the displayed session
func (v *PlayerView) SetSession(s api.Session) {
	var previous api.Track
	if v.Session.CurrentTrack != nil {
		previous = *v.Session.CurrentTrack
	}

	v.Session = s
	v.ProgressBar.SetProgress(s.Position, s.Duration)
	if s.CurrentTrack != nil && (*s.CurrentTrack != previous || v.Artwork.Width == 0) {
		v.Artwork = components.NewArtwork(string(*s.CurrentTrack), artworkWidth, artworkHeight)
	}
}

// Update advances the loading spinner
func (v PlayerView) Update(msg tea.Msg) (PlayerView, tea.Cmd) {
	var cmd tea.Cmd
	v.Spinner, cmd = v.Spinner.Update(msg)
	return v, cmd
}

// View renders the player view. Nothing is shown until a track is current.
func (v PlayerView) View() string {
	s := v.Session
	if s.CurrentTrack == nil {
		return ""
	}

	info := s.Info.Display(*s.CurrentTrack)
	textWidth := v.Width - artworkWidth - 10

	var sb strings.Builder
	sb.WriteString(v.statusIcon())
	sb.WriteString(" ")
	sb.WriteString(v.TitleStyle.Render(components.Truncate(info.Title, textWidth-2)))
	sb.WriteString("\n")
	sb.WriteString(v.ArtistStyle.Render(components.Truncate(info.Artist, textWidth)))
	if info.Album != "" {
		sb.WriteString(v.AlbumStyle.Render(" · " + components.Truncate(info.Album, textWidth/2)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(v.ProgressBar.View())
	sb.WriteString("\n")

	sb.WriteString(RenderVolume(s))
	if s.Loop {
		sb.WriteString(v.DimStyle.Render("   🔁 Loop"))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, v.Artwork.View(), "  ", sb.String())
	return v.BorderStyle.Width(v.Width - 4).Render(body)
}

func (v PlayerView) statusIcon() string {
	switch v.Session.Status {
	case api.StatusLoading:
		return v.Spinner.View()
	case api.StatusPlaying:
		return v.StatusStyle.Render("▶")
	case api.StatusPaused:
		return v.StatusStyle.Render("⏸")
	default:
		return v.StatusStyle.Render("⏹")
	}
}

// RenderVolume renders the volume bar with its mute indicator
func RenderVolume(s api.Session) string {
	level := s.EffectiveVolume()
	filled := int(level*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bar := filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", empty))

	icon := "🔊"
	if s.Muted {
		icon = "🔇"
	}
	return fmt.Sprintf("%s %s %d%%", icon, bar, int(level*100+0.5))
}
