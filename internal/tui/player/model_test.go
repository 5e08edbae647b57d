package player

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/playlist"
)

func testSnapshot() controller.Snapshot {
	return controller.Snapshot{
		Index:      0,
		Track:      playlist.Track{Title: "Sunset Vibes", Source: "audio/song1.mp3"},
		State:      controller.StatePlaying,
		Playing:    true,
		HasSession: true,
		Volume:     0.7,
		Level:      controller.LevelFull,
	}
}

func TestVolumeIcon(t *testing.T) {
	tests := []struct {
		level    controller.VolumeLevel
		expected string
	}{
		{controller.LevelMuted, "🔇"},
		{controller.LevelLow, "🔈"},
		{controller.LevelFull, "🔊"},
	}

	for _, test := range tests {
		if got := VolumeIcon(test.level); got != test.expected {
			t.Errorf("VolumeIcon(%v) = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestPlayGlyph(t *testing.T) {
	if PlayGlyph(true) != "⏸" {
		t.Error("Expected pause glyph while playing")
	}
	if PlayGlyph(false) != "▶" {
		t.Error("Expected play glyph while not playing")
	}
}

func TestSetProgress(t *testing.T) {
	model := NewModel()
	model.SetSnapshot(testSnapshot())

	model.SetProgress(controller.Progress{Index: 0, Position: 45, Duration: 180, Percent: 25})
	position, duration := model.Position()
	if position != 45 || duration != 180 {
		t.Errorf("Expected 45/180, got %v/%v", position, duration)
	}

	// Прогресс другого трека и неизвестная длительность игнорируются
	model.SetProgress(controller.Progress{Index: 1, Position: 10, Duration: 100, Percent: 10})
	model.SetProgress(controller.Progress{Index: 0, Position: 10, Duration: 0})
	position, _ = model.Position()
	if position != 45 {
		t.Errorf("Expected position to stay 45, got %v", position)
	}
}

func TestTrackChangeResetsProgress(t *testing.T) {
	model := NewModel()
	model.SetSnapshot(testSnapshot())
	model.SetProgress(controller.Progress{Index: 0, Position: 90, Duration: 180, Percent: 50})

	next := testSnapshot()
	next.Index = 1
	next.Track = playlist.Track{Title: "Coding Flow"}
	model.SetSnapshot(next)

	position, duration := model.Position()
	if position != 0 || duration != 0 {
		t.Errorf("Expected progress reset, got %v/%v", position, duration)
	}
}

func TestView(t *testing.T) {
	model := NewModel()
	model.SetSnapshot(testSnapshot())
	model.SetProgress(controller.Progress{Index: 0, Position: 65, Duration: 180, Percent: 36})

	view := model.View()
	for _, expected := range []string{"Sunset Vibes", "⏸", "01:05 / 03:00", "🔊 70%"} {
		if !strings.Contains(view, expected) {
			t.Errorf("Expected view to contain %q:\n%s", expected, view)
		}
	}

	muted := testSnapshot()
	muted.Playing = false
	muted.State = controller.StatePaused
	muted.Volume = 0
	muted.Level = controller.LevelMuted
	model.SetSnapshot(muted)

	view = model.View()
	for _, expected := range []string{"▶", "Пауза", "🔇 0%"} {
		if !strings.Contains(view, expected) {
			t.Errorf("Expected view to contain %q:\n%s", expected, view)
		}
	}
}

func TestUpdateWindowSize(t *testing.T) {
	model := NewModel()

	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if model.width != 100 {
		t.Errorf("Expected width 100, got %d", model.width)
	}
	if model.progressBar.Width != 60 {
		t.Errorf("Expected progress bar width 60, got %d", model.progressBar.Width)
	}
}
