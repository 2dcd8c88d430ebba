package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/session"
	"github.com/tessro/syncstream/internal/tui/components"
	"github.com/tessro/syncstream/internal/tui/styles"
)

// App holds the TUI application state
type App struct {
	engine      *session.Engine
	refreshRate time.Duration
}

// NewApp creates a new TUI application around a running session engine
func NewApp(engine *session.Engine, refreshRate time.Duration) *App {
	if refreshRate <= 0 {
		refreshRate = 100 * time.Millisecond
	}
	return &App{engine: engine, refreshRate: refreshRate}
}

// Model is the main TUI model
type Model struct {
	app    *App
	width  int
	height int

	snap session.Snapshot
	bar  progress.Model

	nowPlaying *components.NowPlaying
	peers      *components.Peers

	showHelp bool
	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	return Model{
		app:        app,
		bar:        bar,
		snap:       app.engine.Snapshot(),
		nowPlaying: components.NewNowPlaying(),
		peers:      components.NewPeers(),
	}
}

// Messages
type tickMsg time.Time

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "p", " ":
			m.app.engine.TogglePlay()

		case "n":
			m.app.engine.Dispatch(core.CommandSkip)

		case "r":
			m.app.engine.Dispatch(core.CommandRestart)

		case "s":
			// Stop ends the session for this node: the engine broadcasts a
			// Leave and asks to quit; the next tick observes it.
			m.app.engine.Dispatch(core.CommandStop)

		case "?":
			m.showHelp = !m.showHelp
		}

	case tickMsg:
		m.snap = m.app.engine.Snapshot()
		if m.snap.Quit || m.snap.Err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = m.barWidth()
	}

	return m, nil
}

func (m Model) barWidth() int {
	w := m.width - 20
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	return w
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	panelWidth := width - 4

	header := styles.Title.Render("syncstream") + " " +
		styles.Subtitle.Render(roleLabel(m.snap.Role)+" · "+m.snap.NodeID)

	percent := 0.0
	if m.snap.Duration > 0 {
		percent = float64(m.snap.Position) / float64(m.snap.Duration)
		if percent > 1 {
			percent = 1
		}
	}
	bar := m.bar.ViewAs(percent)

	sections := []string{
		header,
		m.nowPlaying.Render(m.snap, bar, panelWidth),
		m.peers.Render(m.snap.NodeID, m.snap.Participants, panelWidth),
	}

	if m.showHelp {
		sections = append(sections, m.helpView())
	} else {
		sections = append(sections, styles.Dim.Render("p play/pause · n next · r restart · s stop session · q quit · ? help"))
	}

	if m.snap.Err != nil {
		sections = append(sections, styles.Alert.Render(m.snap.Err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(styles.Label.Render("Keys") + "\n")
	rows := [][2]string{
		{"p / space", "toggle play and pause on every node"},
		{"n", "skip to the next track"},
		{"r", "restart the current track"},
		{"s", "stop playback everywhere and leave the session"},
		{"q / ctrl+c", "quit this node without stopping the others"},
		{"?", "toggle this help"},
	}
	for _, r := range rows {
		b.WriteString("  " + styles.Highlight.Render(r[0]) + "  " + styles.Muted.Render(r[1]) + "\n")
	}
	return b.String()
}

func roleLabel(r core.Role) string {
	if r == core.RoleLeader {
		return "leader"
	}
	return "member"
}

// Run starts the TUI and blocks until it exits.
func Run(app *App) error {
	p := tea.NewProgram(NewModel(app), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
