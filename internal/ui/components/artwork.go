package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/sonicstream/internal/thumbnail"
)

// Artwork renders a track's placeholder gradient as a block of cells
type Artwork struct {
	Width    int
	Height   int
	Gradient thumbnail.Gradient
}

// NewArtwork creates an artwork block for name
func NewArtwork(name string, width, height int) Artwork {
	return Artwork{
		Width:    width,
		Height:   height,
		Gradient: thumbnail.Generate(name),
	}
}

// View renders the gradient diagonally from the top-left corner
func (a Artwork) View() string {
	if a.Width <= 0 || a.Height <= 0 {
		return ""
	}

	span := a.Width + a.Height - 2
	rows := make([]string, a.Height)
	for y := 0; y < a.Height; y++ {
		var sb strings.Builder
		for x := 0; x < a.Width; x++ {
			t := 0.0
			if span > 0 {
				t = float64(x+y) / float64(span)
			}
			color := a.Gradient.Blend(t).Clamped().Hex()
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		}
		rows[y] = sb.String()
	}
	return strings.Join(rows, "\n")
}
