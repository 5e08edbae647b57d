// Package player содержит панель текущего трека для TUI
package player

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/utils"
)

const defaultBarWidth = 40

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	volumeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// Model представляет панель текущего трека
type Model struct {
	snapshot    controller.Snapshot
	progressBar progress.Model
	position    float64
	duration    float64
	width       int
}

// NewModel создает панель
func NewModel() *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = defaultBarWidth

	return &Model{progressBar: prog}
}

// SetSnapshot обновляет состояние плеера. При смене трека прогресс сбрасывается.
func (m *Model) SetSnapshot(s controller.Snapshot) tea.Cmd {
	trackChanged := s.Index != m.snapshot.Index || !s.HasSession
	m.snapshot = s
	if !trackChanged {
		return nil
	}
	m.position = 0
	m.duration = 0
	return m.progressBar.SetPercent(0)
}

// SetProgress обновляет позицию воспроизведения
func (m *Model) SetProgress(p controller.Progress) tea.Cmd {
	if p.Duration <= 0 || p.Index != m.snapshot.Index {
		return nil
	}
	m.position = p.Position
	m.duration = p.Duration
	return m.progressBar.SetPercent(p.Percent / 100)
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View отображает панель
func (m *Model) View() string {
	title := titleStyle.Render("🎵 " + m.snapshot.Track.Title)

	status := statusStyle.Render(fmt.Sprintf("%s %s", PlayGlyph(m.snapshot.Playing), m.snapshot.State))

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatSeconds(m.position),
		utils.FormatSeconds(m.duration),
	)

	volume := volumeStyle.Render(fmt.Sprintf(
		"%s %s",
		VolumeIcon(m.snapshot.Level),
		utils.FormatPercent(m.snapshot.Volume),
	))

	return panelStyle.Render(fmt.Sprintf(
		"%s\n%s\n\n%s %s\n%s",
		title,
		status,
		m.progressBar.View(),
		timeText,
		volume,
	))
}

// PlayGlyph возвращает значок кнопки воспроизведения. Пока движок
// не подтвердил воспроизведение, показывается значок запуска.
func PlayGlyph(playing bool) string {
	if playing {
		return "⏸"
	}
	return "▶"
}

// VolumeIcon возвращает значок уровня громкости
func VolumeIcon(level controller.VolumeLevel) string {
	switch level {
	case controller.LevelMuted:
		return "🔇"
	case controller.LevelLow:
		return "🔈"
	default:
		return "🔊"
	}
}

// Position возвращает отображаемую позицию и длительность в секундах
func (m *Model) Position() (position, duration float64) {
	return m.position, m.duration
}
