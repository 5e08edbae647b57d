// Package app содержит основную логику TUI приложения
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/controller"
	tuiPlayer "github.com/hazadus/go-tunebox/internal/tui/player"
	"github.com/hazadus/go-tunebox/internal/tui/tracklist"
)

// Высота панели плеера вместе со строкой подсказки
const playerPanelHeight = 9

var (
	errorTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff0000"))

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#ff0000")).
			Padding(1, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

// screenType определяет тип текущего экрана
type screenType int

const (
	// playerScreen список треков и панель плеера
	playerScreen screenType = iota
	// errorScreen блокирующее уведомление об ошибке
	errorScreen
)

// changedMsg состояние контроллера изменилось
type changedMsg struct{}

// progressMsg новая позиция воспроизведения
type progressMsg struct {
	progress controller.Progress
}

// engineErrorMsg ошибка, которую нужно показать пользователю
type engineErrorMsg struct {
	err error
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctrl           *controller.Controller
	errors         <-chan error
	keys           KeyMap
	help           help.Model
	log            zerolog.Logger
	currentScreen  screenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	pendingErrors  []error
	shownError     error
	quitting       bool
}

// NewMainModel создает главную модель. errs может быть nil.
func NewMainModel(ctrl *controller.Controller, errs <-chan error, keys KeyMap, logger zerolog.Logger) *MainModel {
	snapshot := ctrl.Snapshot()

	m := &MainModel{
		ctrl:           ctrl,
		errors:         errs,
		keys:           keys,
		help:           help.New(),
		log:            logger.With().Str("component", "tui").Logger(),
		currentScreen:  playerScreen,
		tracklistModel: tracklist.NewModel(snapshot.Tracks),
		playerModel:    tuiPlayer.NewModel(),
	}
	m.tracklistModel.SetActive(snapshot.Index)
	m.playerModel.SetSnapshot(snapshot)
	return m
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.tracklistModel.Init(),
		m.listenForChanges(),
		m.listenForProgress(),
		m.listenForErrors(),
	)
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		return m, tea.Batch(m.refresh(), m.listenForChanges())

	case progressMsg:
		return m, tea.Batch(m.playerModel.SetProgress(msg.progress), m.listenForProgress())

	case engineErrorMsg:
		m.showError(msg.err)
		return m, m.listenForErrors()

	case tracklist.TrackSelectedMsg:
		if err := m.ctrl.SelectAndPlay(msg.Index); err != nil {
			m.log.Error().Err(err).Int("index", msg.Index).Msg("ошибка выбора трека")
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		var tracklistCmd, playerCmd tea.Cmd
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(tea.WindowSizeMsg{
			Width:  msg.Width,
			Height: max(msg.Height-playerPanelHeight, 3),
		})
		m.playerModel, playerCmd = m.playerModel.Update(msg)
		return m, tea.Batch(tracklistCmd, playerCmd)

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.playerModel, cmd = m.playerModel.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	return m, cmd
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Любая клавиша закрывает уведомление об ошибке
	if m.currentScreen == errorScreen {
		m.dismissError()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if err := m.ctrl.TogglePlay(); err != nil {
			m.log.Debug().Err(err).Msg("воспроизведение недоступно")
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if err := m.ctrl.Next(); err != nil {
			m.log.Error().Err(err).Msg("ошибка перехода к следующему треку")
		}
		return m, nil

	case key.Matches(msg, m.keys.Previous):
		if err := m.ctrl.Previous(); err != nil {
			m.log.Error().Err(err).Msg("ошибка перехода к предыдущему треку")
		}
		return m, nil

	case key.Matches(msg, m.keys.Mute):
		m.ctrl.ToggleMute()
		return m, nil

	case key.Matches(msg, m.keys.VolumeUp):
		m.ctrl.VolumeUp()
		return m, nil

	case key.Matches(msg, m.keys.VolumeDown):
		m.ctrl.VolumeDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentScreen {
	case playerScreen:
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.tracklistModel.View(),
			m.playerModel.View(),
			m.help.ShortHelpView(m.keys.help()),
		)

	case errorScreen:
		return errorBoxStyle.Render(fmt.Sprintf(
			"%s\n\n%s\n%s",
			errorTitleStyle.Render("❌ Ошибка воспроизведения"),
			m.shownError.Error(),
			hintStyle.Render("Нажмите любую клавишу, чтобы продолжить"),
		))

	default:
		return "Неизвестный экран"
	}
}

// refresh перечитывает состояние контроллера
func (m *MainModel) refresh() tea.Cmd {
	snapshot := m.ctrl.Snapshot()
	m.tracklistModel.SetActive(snapshot.Index)
	return m.playerModel.SetSnapshot(snapshot)
}

// showError показывает ошибку или ставит ее в очередь, если уведомление уже открыто
func (m *MainModel) showError(err error) {
	if m.currentScreen == errorScreen {
		m.pendingErrors = append(m.pendingErrors, err)
		return
	}
	m.shownError = err
	m.currentScreen = errorScreen
}

func (m *MainModel) dismissError() {
	m.shownError = nil
	m.currentScreen = playerScreen
	if len(m.pendingErrors) > 0 {
		next := m.pendingErrors[0]
		m.pendingErrors = m.pendingErrors[1:]
		m.showError(next)
	}
}

// listenForChanges ждет уведомление от контроллера
func (m *MainModel) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.ctrl.Changes(); !ok {
			return nil
		}
		return changedMsg{}
	}
}

// listenForProgress ждет обновление позиции от контроллера
func (m *MainModel) listenForProgress() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-m.ctrl.Progress()
		if !ok {
			return nil
		}
		return progressMsg{progress: p}
	}
}

// listenForErrors ждет ошибку, которую нужно показать
func (m *MainModel) listenForErrors() tea.Cmd {
	if m.errors == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-m.errors
		if !ok {
			return nil
		}
		return engineErrorMsg{err: err}
	}
}
