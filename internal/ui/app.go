package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/catalog"
	"github.com/jscyril/sonicstream/internal/config"
	"github.com/jscyril/sonicstream/internal/ui/views"
	"github.com/rs/zerolog/log"
)

// Player is the part of the playback controller the view drives
type Player interface {
	Dispatch(cmd api.Command) error
	State() api.Session
	Updates() <-chan api.Session
}

// Searcher is the part of the catalog searcher the view drives
type Searcher interface {
	Search(query string)
	Fetch(ctx context.Context, query string) catalog.Result
	Results() <-chan catalog.Result
}

// Options tunes the model from configuration
type Options struct {
	Keys         config.KeyMap
	SeekStep     time.Duration
	VolumeStep   float64
	DiscardStale bool
}

// OptionsFromConfig derives model options from cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Keys:         cfg.KeyBindings,
		SeekStep:     cfg.SeekStep(),
		VolumeStep:   cfg.VolumeStep,
		DiscardStale: cfg.DiscardStaleResults,
	}
}

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Views
	playerView  views.PlayerView
	catalogView views.CatalogView
	help        help.Model
	keys        keyMap

	// Components
	player   Player
	searcher Searcher
	store    *catalog.Store
	opts     Options

	ctx context.Context

	// Styles
	headerStyle lipgloss.Style
}

// catalogMsg carries a catalog fetch result. Results read from the searcher
// re-arm the listener; the initial fetch does not.
type catalogMsg struct {
	result catalog.Result
	listen bool
}

// sessionMsg carries the newest playback session
type sessionMsg api.Session

// NewModel creates a new application model
func NewModel(ctx context.Context, player Player, searcher Searcher, store *catalog.Store, opts Options) Model {
	if opts.SeekStep <= 0 {
		opts.SeekStep = 5 * time.Second
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = 0.05
	}

	m := Model{
		width:    80,
		height:   24,
		help:     help.New(),
		keys:     newKeyMap(opts.Keys),
		player:   player,
		searcher: searcher,
		store:    store,
		opts:     opts,
		ctx:      ctx,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1),
	}

	m.playerView = views.NewPlayerView(m.width)
	m.catalogView = views.NewCatalogView(m.width, m.height)
	m.playerView.SetSession(player.State())
	m.catalogView.SetTracks(store.Tracks())
	m.updateViewSizes()
	return m
}

// Init fetches the full catalog and starts listening for results
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchInitial(),
		m.listenForResults(),
		m.listenForSession(),
		m.playerView.Spinner.Tick,
	)
}

func (m Model) fetchInitial() tea.Cmd {
	return func() tea.Msg {
		return catalogMsg{result: m.searcher.Fetch(m.ctx, "")}
	}
}

// listenForResults waits for the next debounced search result
func (m Model) listenForResults() tea.Cmd {
	return func() tea.Msg {
		select {
		case r := <-m.searcher.Results():
			return catalogMsg{result: r, listen: true}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// listenForSession waits for the next playback session change
func (m Model) listenForSession() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.player.Updates():
			return sessionMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case catalogMsg:
		m.applyCatalog(msg.result)
		if msg.listen {
			cmds = append(cmds, m.listenForResults())
		}

	case sessionMsg:
		m.setSession(api.Session(msg))
		cmds = append(cmds, m.listenForSession())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.playerView, cmd = m.playerView.Update(msg)
		cmds = append(cmds, cmd)

	case views.QueryChangedMsg:
		m.searcher.Search(msg.Query)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.catalogView.Searching {
			var cmd tea.Cmd
			m.catalogView, cmd = m.catalogView.Update(msg)
			return m, cmd
		}
		cmds = append(cmds, m.handleKey(msg))

	default:
		if m.catalogView.Searching {
			var cmd tea.Cmd
			m.catalogView, cmd = m.catalogView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Search):
		return m.catalogView.StartSearch()
	case key.Matches(msg, m.keys.Select):
		if track, ok := m.catalogView.SelectedTrack(); ok {
			m.dispatch(api.Command{Type: api.CmdPlay, Track: track})
		}
	case key.Matches(msg, m.keys.PlayPause):
		m.dispatch(api.Command{Type: api.CmdTogglePlay})
	case key.Matches(msg, m.keys.Next):
		m.dispatch(api.Command{Type: api.CmdNext})
	case key.Matches(msg, m.keys.Previous):
		m.dispatch(api.Command{Type: api.CmdPrevious})
	case key.Matches(msg, m.keys.SeekForward):
		m.dispatch(api.Command{Type: api.CmdSeekBy, Position: m.opts.SeekStep})
	case key.Matches(msg, m.keys.SeekBack):
		m.dispatch(api.Command{Type: api.CmdSeekBy, Position: -m.opts.SeekStep})
	case key.Matches(msg, m.keys.VolumeUp):
		m.dispatch(api.Command{Type: api.CmdAdjustVolume, Volume: m.opts.VolumeStep})
	case key.Matches(msg, m.keys.VolumeDown):
		m.dispatch(api.Command{Type: api.CmdAdjustVolume, Volume: -m.opts.VolumeStep})
	case key.Matches(msg, m.keys.Mute):
		m.dispatch(api.Command{Type: api.CmdToggleMute})
	case key.Matches(msg, m.keys.Loop):
		m.dispatch(api.Command{Type: api.CmdToggleLoop})
	case msg.String() == "?":
		m.help.ShowAll = !m.help.ShowAll
	default:
		m.catalogView, _ = m.catalogView.Update(msg)
	}
	return nil
}

// dispatch sends a command to the player. Rejections are logged and the
// view keeps its last good state.
func (m *Model) dispatch(cmd api.Command) {
	if err := m.player.Dispatch(cmd); err != nil {
		log.Warn().Err(err).Int("command", int(cmd.Type)).Msg("command rejected")
	}
	m.setSession(m.player.State())
}

// applyCatalog installs a fetch result. Failures keep the current list.
func (m *Model) applyCatalog(r catalog.Result) {
	if r.Err != nil {
		return
	}
	if !m.store.Apply(r, m.opts.DiscardStale) {
		log.Debug().Uint64("generation", r.Generation).Str("query", r.Query).Msg("stale catalog result dropped")
		return
	}
	m.catalogView.SetTracks(m.store.Tracks())
	m.catalogView.Status = fmt.Sprintf("%d tracks", m.store.Len())
}

func (m *Model) setSession(s api.Session) {
	hadTrack := m.playerView.Session.CurrentTrack != nil
	m.playerView.SetSession(s)
	if s.CurrentTrack != nil {
		m.catalogView.SetPlaying(*s.CurrentTrack)
	}
	if hadTrack != (s.CurrentTrack != nil) {
		m.updateViewSizes()
	}
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.help.Width = m.width
	m.playerView.SetWidth(m.width)

	used := 3 // header and help
	if m.playerView.Session.CurrentTrack != nil {
		used += 9
	}
	m.catalogView.SetSize(m.width, m.height-used)
}

// View renders the UI
func (m Model) View() string {
	header := m.headerStyle.Render("♫ sonicstream")

	parts := []string{header}
	if panel := m.playerView.View(); panel != "" {
		parts = append(parts, panel)
	}
	parts = append(parts, m.catalogView.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run starts the bubbletea program and blocks until it exits or ctx is done
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
