package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/catalog"
	"github.com/jscyril/sonicstream/internal/config"
	"github.com/jscyril/sonicstream/internal/ui/views"
)

type fakePlayer struct {
	commands []api.Command
	session  api.Session
	updates  chan api.Session
	err      error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		session: api.Session{Volume: 1},
		updates: make(chan api.Session, 1),
	}
}

func (p *fakePlayer) Dispatch(cmd api.Command) error {
	p.commands = append(p.commands, cmd)
	if cmd.Type == api.CmdPlay {
		track := cmd.Track
		p.session.CurrentTrack = &track
		p.session.Status = api.StatusLoading
	}
	return p.err
}

func (p *fakePlayer) State() api.Session          { return p.session.Copy() }
func (p *fakePlayer) Updates() <-chan api.Session { return p.updates }

type fakeSearcher struct {
	queries []string
	initial []api.Track
	results chan catalog.Result
}

func (s *fakeSearcher) Search(query string) {
	s.queries = append(s.queries, query)
}

func (s *fakeSearcher) Fetch(ctx context.Context, query string) catalog.Result {
	return catalog.Result{Generation: 1, Query: query, Tracks: s.initial}
}

func (s *fakeSearcher) Results() <-chan catalog.Result { return s.results }

func newTestModel(t *testing.T) (Model, *fakePlayer, *fakeSearcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	p := newFakePlayer()
	s := &fakeSearcher{initial: []api.Track{"song1", "song2"}, results: make(chan catalog.Result, 1)}
	opts := Options{Keys: config.GetDefaultConfig().KeyBindings, SeekStep: 5 * time.Second, VolumeStep: 0.05}
	return NewModel(ctx, p, s, catalog.NewStore(), opts), p, s
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialFetchPopulatesCatalog(t *testing.T) {
	m, _, s := newTestModel(t)

	msg := m.fetchInitial()()
	m, _ = update(m, msg)

	if got := m.store.Tracks(); len(got) != 2 || got[0] != "song1" {
		t.Errorf("store = %v, want [song1 song2]", got)
	}
	if got, _ := m.catalogView.SelectedTrack(); got != "song1" {
		t.Errorf("selected = %q, want song1", got)
	}
	if len(s.queries) != 0 {
		t.Errorf("initial fetch should not go through the debouncer, got %v", s.queries)
	}
}

func TestFailedFetchKeepsCatalog(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(m, m.fetchInitial()())

	m, _ = update(m, catalogMsg{result: catalog.Result{Generation: 2, Err: errors.New("503")}, listen: true})
	if got := m.store.Len(); got != 2 {
		t.Errorf("store has %d tracks, want 2", got)
	}
}

func TestEnterPlaysSelected(t *testing.T) {
	m, p, _ := newTestModel(t)
	m, _ = update(m, m.fetchInitial()())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(p.commands) != 1 {
		t.Fatalf("commands = %v, want one", p.commands)
	}
	if cmd := p.commands[0]; cmd.Type != api.CmdPlay || cmd.Track != "song2" {
		t.Errorf("command = %+v, want play song2", cmd)
	}
	if m.catalogView.TrackList.Playing != "song2" {
		t.Errorf("playing marker = %q, want song2", m.catalogView.TrackList.Playing)
	}
	if !strings.Contains(m.View(), "song2") {
		t.Error("view should show the now-playing track")
	}
}

func TestTransportKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want api.Command
	}{
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, api.Command{Type: api.CmdTogglePlay}},
		{"next", keyRunes("n"), api.Command{Type: api.CmdNext}},
		{"previous", keyRunes("p"), api.Command{Type: api.CmdPrevious}},
		{"seek forward", tea.KeyMsg{Type: tea.KeyRight}, api.Command{Type: api.CmdSeekBy, Position: 5 * time.Second}},
		{"seek back", tea.KeyMsg{Type: tea.KeyLeft}, api.Command{Type: api.CmdSeekBy, Position: -5 * time.Second}},
		{"volume up", keyRunes("+"), api.Command{Type: api.CmdAdjustVolume, Volume: 0.05}},
		{"volume up alias", keyRunes("="), api.Command{Type: api.CmdAdjustVolume, Volume: 0.05}},
		{"volume down", keyRunes("-"), api.Command{Type: api.CmdAdjustVolume, Volume: -0.05}},
		{"mute", keyRunes("m"), api.Command{Type: api.CmdToggleMute}},
		{"loop", keyRunes("r"), api.Command{Type: api.CmdToggleLoop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p, _ := newTestModel(t)
			update(m, tt.key)
			if len(p.commands) != 1 {
				t.Fatalf("commands = %v, want one", p.commands)
			}
			if p.commands[0] != tt.want {
				t.Errorf("command = %+v, want %+v", p.commands[0], tt.want)
			}
		})
	}
}

func TestRejectedCommandIsAbsorbed(t *testing.T) {
	m, p, _ := newTestModel(t)
	p.err = errors.New("empty catalog")

	m, cmd := update(m, keyRunes("n"))
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("a rejected command must not quit")
		}
	}
	if len(p.commands) != 1 {
		t.Errorf("commands = %d, want 1", len(p.commands))
	}
}

func TestSearchModeRoutesKeys(t *testing.T) {
	m, p, s := newTestModel(t)

	m, _ = update(m, keyRunes("/"))
	if !m.catalogView.Searching {
		t.Fatal("/ should enter search mode")
	}

	// Transport keys are typed into the box, not dispatched
	m, cmd := update(m, keyRunes("n"))
	if len(p.commands) != 0 {
		t.Errorf("commands = %v, want none while searching", p.commands)
	}
	if got := m.catalogView.SearchBar.Value(); got != "n" {
		t.Errorf("query = %q, want n", got)
	}

	// The change surfaces as a message which feeds the debounced search
	changed := findQueryChanged(cmd)
	if changed == nil {
		t.Fatal("typing should emit QueryChangedMsg")
	}
	m, _ = update(m, *changed)
	if len(s.queries) != 1 || s.queries[0] != "n" {
		t.Errorf("queries = %v, want [n]", s.queries)
	}

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.catalogView.Searching {
		t.Error("esc should leave search mode")
	}
	if got := m.catalogView.SearchBar.Value(); got != "" {
		t.Errorf("query after esc = %q, want empty", got)
	}
	cleared := findQueryChanged(cmd)
	if cleared == nil || cleared.Query != "" {
		t.Fatalf("esc should emit an empty query change, got %v", cleared)
	}
	m, _ = update(m, *cleared)
	if len(s.queries) != 2 || s.queries[1] != "" {
		t.Errorf("queries = %v, want [n \"\"]", s.queries)
	}
}

func TestEnterKeepsSearchQuery(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = update(m, keyRunes("/"))
	m, _ = update(m, keyRunes("jazz"))
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.catalogView.Searching {
		t.Error("enter should leave search mode")
	}
	if got := m.catalogView.SearchBar.Value(); got != "jazz" {
		t.Errorf("query = %q, want jazz", got)
	}
	if findQueryChanged(cmd) != nil {
		t.Error("enter should not change the query")
	}
}

// findQueryChanged runs cmd, unpacking batches, looking for a query change
func findQueryChanged(cmd tea.Cmd) *views.QueryChangedMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case views.QueryChangedMsg:
		return &msg
	case tea.BatchMsg:
		for _, c := range msg {
			if found := findQueryChanged(c); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestSessionMessageUpdatesPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	if strings.Contains(m.View(), "Unknown Artist") {
		t.Fatal("panel should be hidden before a track is current")
	}

	track := api.Track("song1")
	m, cmd := update(m, sessionMsg(api.Session{
		CurrentTrack: &track,
		Status:       api.StatusPlaying,
		Position:     65 * time.Second,
		Duration:     3 * time.Minute,
		Volume:       0.5,
	}))
	if cmd == nil {
		t.Error("session message should re-arm the listener")
	}

	view := m.View()
	for _, want := range []string{"song1", "Unknown Artist", "1:05/3:00", "50%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		m, _, _ := newTestModel(t)
		_, cmd := update(m, k)
		if cmd == nil {
			t.Fatalf("%q: no command", k.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q should quit", k.String())
		}
	}
}
