package tui

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/favorites"
	"github.com/mmcdole/favlive/internal/task"
	"github.com/mmcdole/favlive/internal/tui/components"
	"github.com/mmcdole/favlive/internal/tui/styles"
)

// ChromeHeight is the header plus the footer line
const ChromeHeight = 2

const (
	statusClearDelay = 3 * time.Second
	errorClearDelay  = 6 * time.Second
)

// CriterionSettings is the settings view the UI can also write back to
type CriterionSettings interface {
	domain.Settings
	SetCriterion(name string) error
}

// Deps wires the model to the rest of the application
type Deps struct {
	Source          domain.ChannelSource
	Settings        CriterionSettings
	Dispatcher      *task.Dispatcher
	Launcher        Launcher
	WebURL          string
	PageSize        int
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// session is alive until the user quits; it gates every delivery
type session struct {
	closed atomic.Bool
}

func (s *session) IsLive() bool { return !s.closed.Load() }
func (s *session) end()         { s.closed.Store(true) }

// Model is the main Bubble Tea model for the application
type Model struct {
	Reconciler *favorites.Reconciler

	settings CriterionSettings
	launcher Launcher
	webURL   string
	refresh  time.Duration
	logger   *slog.Logger
	session  *session

	// UI Components
	List       *components.ChannelList
	InputModal components.InputModal
	Spinner    spinner.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates a new application model
func NewModel(deps Deps) (Model, error) {
	if deps.Settings == nil || deps.Launcher == nil {
		return Model{}, errors.New("tui: settings and launcher are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	sess := &session{}
	r, err := favorites.New(favorites.Config{
		Source:     deps.Source,
		Settings:   deps.Settings,
		Dispatcher: deps.Dispatcher,
		Owner:      sess,
		Logger:     deps.Logger,
		PageSize:   deps.PageSize,
	})
	if err != nil {
		return Model{}, err
	}

	list := components.NewChannelList(r.Store())
	r.Store().OnChange(list.Invalidate)

	sp := spinner.New(
		spinner.WithSpinner(spinner.Spinner{Frames: styles.SpinnerFrames, FPS: time.Second / 10}),
		spinner.WithStyle(styles.AccentStyle),
	)

	return Model{
		Reconciler: r,
		settings:   deps.Settings,
		launcher:   deps.Launcher,
		webURL:     deps.WebURL,
		refresh:    deps.RefreshInterval,
		logger:     deps.Logger,
		session:    sess,
		List:       list,
		InputModal: components.NewInputModal(),
		Spinner:    sp,
	}, nil
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		LoadCmd(),
		RefreshTickCmd(m.refresh),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(m.Width, max(m.Height-ChromeHeight, 0))
		return m, nil

	case Delivery:
		msg.run()
		if m.Reconciler.Err() == nil {
			m.checkFrontier()
		}
		m.syncTitle()
		return m, nil

	case LoadRequestedMsg:
		cmd := m.handleResult(m.Reconciler.Load())
		m.syncTitle()
		return m, cmd

	case RefreshTickMsg:
		var cmd tea.Cmd
		if !m.InputModal.IsVisible() {
			cmd = m.handleResult(m.Reconciler.Refresh())
			m.syncTitle()
		}
		return m, tea.Batch(cmd, RefreshTickCmd(m.refresh))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case LaunchedMsg:
		return m.setStatus("Opening "+msg.Channel.DisplayName(), false)

	case ErrMsg:
		m.logger.Error("command failed", "context", msg.Context, "error", msg.Err)
		return m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.InputModal.IsVisible() {
		return m.handleModalKey(msg)
	}

	// While typing a filter every key belongs to the list
	if m.List.IsFilterTyping() {
		_, cmd := m.List.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m.quit()

	case key.Matches(msg, Keys.Refresh):
		cmd := m.handleResult(m.Reconciler.Refresh())
		m.syncTitle()
		return m, cmd

	case key.Matches(msg, Keys.Reload):
		cmd := m.handleResult(m.Reconciler.Reload())
		m.syncTitle()
		return m, cmd

	case key.Matches(msg, Keys.Username):
		m.showUsernameModal()
		return m, nil

	case key.Matches(msg, Keys.Filter) && !m.List.IsFiltering():
		m.List.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Open):
		return m.handleOpen()
	}

	moved, cmd := m.List.Update(msg)
	if moved {
		m.checkFrontier()
	}
	return m, cmd
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		cmd       tea.Cmd
		submitted bool
	)
	m.InputModal, cmd, submitted = m.InputModal.Update(msg)
	if !submitted {
		return m, cmd
	}

	name := strings.TrimSpace(m.InputModal.Value())
	if name == "" {
		return m.setStatus("Username cannot be empty", true)
	}
	m.InputModal.Hide()

	if err := m.settings.SetCriterion(name); err != nil {
		// Not persisted; the change would be lost, so keep the old list
		return m, func() tea.Msg { return ErrMsg{Err: err, Context: "saving username"} }
	}
	cmd = m.handleResult(m.Reconciler.Refresh())
	m.syncTitle()
	return m, cmd
}

func (m Model) handleOpen() (tea.Model, tea.Cmd) {
	ch, ok := m.List.Selected()
	if !ok {
		return m, nil
	}
	if ch.Status == domain.StatusUnknown {
		return m.setStatus(ch.DisplayName()+" status not known yet", false)
	}
	return m, LaunchCmd(m.launcher, m.webURL, ch)
}

// handleResult turns a reconciler error into UI feedback
func (m *Model) handleResult(err error) tea.Cmd {
	if errors.Is(err, domain.ErrNoCriterion) {
		m.showUsernameModal()
		return nil
	}
	if err != nil {
		return func() tea.Msg { return ErrMsg{Err: err} }
	}
	return nil
}

func (m *Model) showUsernameModal() {
	m.InputModal.Show("Twitch username", "Whose follows to list", m.settings.Criterion())
}

// syncTitle names the list after the user whose follows it shows
func (m *Model) syncTitle() {
	title := "Follows"
	if c := m.Reconciler.Criterion(); c != "" {
		title = c + "'s follows"
	}
	m.List.SetTitle(title)
}

// checkFrontier requests the next page once the last loaded row is on screen
func (m *Model) checkFrontier() {
	if m.List.LastVisible() {
		m.Reconciler.FrontierReached()
	}
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	delay := statusClearDelay
	if isErr {
		delay = errorClearDelay
	}
	return m, ClearStatusCmd(delay)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.session.end()
	return m, tea.Quit
}
