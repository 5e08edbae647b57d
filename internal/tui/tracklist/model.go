// Package tracklist содержит модель списка треков плейлиста для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-tunebox/internal/playlist"
	"github.com/hazadus/go-tunebox/internal/utils"
)

const maxTitleLen = 50

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	activeItemStyle   = lipgloss.NewStyle().Bold(true)
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
)

// TrackSelectedMsg отправляется при выборе трека клавишей Enter
type TrackSelectedMsg struct {
	Index int
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	index int
	track playlist.Track
}

func (i trackItem) FilterValue() string {
	return i.track.Title
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct {
	active *int
}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	marker := " "
	if i.index == *d.active {
		marker = "♪"
	}
	str := fmt.Sprintf("%s %2d. %s", marker, i.index+1, utils.TruncateString(i.track.Title, maxTitleLen))
	if i.index == *d.active {
		str = activeItemStyle.Render(str)
	}

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель списка треков
type Model struct {
	list   list.Model
	active *int
}

// NewModel создает модель списка треков
func NewModel(tracks []playlist.Track) *Model {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{index: i, track: t}
	}

	active := 0
	l := list.New(items, trackItemDelegate{active: &active}, 0, 0)
	l.Title = "Плейлист"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	// Выходом и стрелками влево/вправо управляет главная модель
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.PrevPage.SetKeys("pgup")
	l.KeyMap.NextPage.SetKeys("pgdown")
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle

	return &Model{
		list:   l,
		active: &active,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetActive отмечает играющий трек и переводит на него курсор
func (m *Model) SetActive(index int) {
	if *m.active == index {
		return
	}
	*m.active = index
	m.list.Select(index)
}

// Active возвращает индекс отмеченного трека
func (m *Model) Active() int {
	return *m.active
}

// Cursor возвращает индекс трека под курсором
func (m *Model) Cursor() int {
	return m.list.Index()
}

// Len возвращает количество треков
func (m *Model) Len() int {
	return len(m.list.Items())
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			selectedItem := m.list.SelectedItem()
			if item, ok := selectedItem.(trackItem); ok {
				return m, func() tea.Msg {
					return TrackSelectedMsg{Index: item.index}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	return m.list.View()
}
