package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jscyril/sonicstream/api"
	"github.com/mattn/go-runewidth"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{59*time.Second + 900*time.Millisecond, "0:59"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
		{75*time.Minute + 3*time.Second, "75:03"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTime(tt.in); got != tt.want {
				t.Errorf("FormatTime(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		current, total time.Duration
		want           float64
	}{
		{0, 0, 0},
		{time.Second, 0, 0},
		{30 * time.Second, time.Minute, 0.5},
		{2 * time.Minute, time.Minute, 1},
		{-time.Second, time.Minute, 0},
	}

	for _, tt := range tests {
		p := NewProgressBar(40)
		p.SetProgress(tt.current, tt.total)
		if got := p.Percent(); got != tt.want {
			t.Errorf("Percent(%v/%v) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}

	p := NewProgressBar(40)
	p.SetProgress(65*time.Second, 3*time.Minute)
	if view := p.View(); !strings.Contains(view, "1:05/3:00") {
		t.Errorf("View() = %q, want elapsed/total", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
	}{
		{"short", 10},
		{"a much longer track name", 10},
		{"日本語のトラック名", 8},
		{"anything", 0},
	}

	for _, tt := range tests {
		got := Truncate(tt.in, tt.width)
		if w := runewidth.StringWidth(got); w > tt.width {
			t.Errorf("Truncate(%q, %d) = %q has width %d", tt.in, tt.width, got, w)
		}
	}

	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate kept %q, want short", got)
	}
}

func TestTrackListNavigation(t *testing.T) {
	l := NewTrackList(5, 40)
	l.SetItems([]api.Track{"a", "b", "c", "d", "e"})

	down := tea.KeyMsg{Type: tea.KeyDown}
	for i := 0; i < 3; i++ {
		l, _ = l.Update(down)
	}
	if got, _ := l.SelectedItem(); got != "d" {
		t.Errorf("selected = %q, want d", got)
	}
	if l.Offset != 1 {
		t.Errorf("Offset = %d, want 1", l.Offset)
	}

	// Past the end stays on the last item
	l, _ = l.Update(down)
	l, _ = l.Update(down)
	if got, _ := l.SelectedItem(); got != "e" {
		t.Errorf("selected = %q, want e", got)
	}

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyHome})
	if got, _ := l.SelectedItem(); got != "a" || l.Offset != 0 {
		t.Errorf("selected = %q offset = %d, want a at 0", got, l.Offset)
	}
}

func TestTrackListKeepsSelection(t *testing.T) {
	l := NewTrackList(10, 40)
	l.SetItems([]api.Track{"a", "b", "c"})
	l.MoveDown()
	l.MoveDown()

	l.SetItems([]api.Track{"x", "c", "y"})
	if got, _ := l.SelectedItem(); got != "c" {
		t.Errorf("selected = %q, want c", got)
	}

	l.SetItems([]api.Track{"x", "y"})
	if got, _ := l.SelectedItem(); got != "x" {
		t.Errorf("selected = %q, want x", got)
	}

	l.SetItems(nil)
	if _, ok := l.SelectedItem(); ok {
		t.Error("empty list should have no selection")
	}
}

func TestTrackListView(t *testing.T) {
	l := NewTrackList(10, 40)
	if view := l.View(); !strings.Contains(view, "No tracks") {
		t.Errorf("empty View() = %q", view)
	}

	l.SetItems([]api.Track{"song1", "song2"})
	l.Playing = "song2"
	view := l.View()
	if !strings.Contains(view, "song1") || !strings.Contains(view, "♪ song2") {
		t.Errorf("View() = %q, want both tracks with the playing marker", view)
	}
}

func TestArtworkView(t *testing.T) {
	a := NewArtwork("song1", 4, 2)
	rows := strings.Split(a.View(), "\n")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if n := strings.Count(row, "█"); n != 4 {
			t.Errorf("row has %d cells, want 4", n)
		}
	}

	if NewArtwork("song1", 0, 3).View() != "" {
		t.Error("zero-width artwork should render nothing")
	}
}

func TestSearchInput(t *testing.T) {
	s := NewSearchInput(30)
	if s.Input.Focused() {
		t.Fatal("new input should not be focused")
	}

	// Keys are ignored while blurred
	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if s.Value() != "" {
		t.Errorf("Value() = %q, want empty", s.Value())
	}

	s.Focus()
	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rock")})
	if s.Value() != "rock" {
		t.Errorf("Value() = %q, want rock", s.Value())
	}

	s.Clear()
	if s.Value() != "" {
		t.Errorf("Value() after Clear = %q", s.Value())
	}
}
