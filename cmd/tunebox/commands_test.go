package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/config"
	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/engine"
	"github.com/hazadus/go-tunebox/internal/engine/enginetest"
	"github.com/hazadus/go-tunebox/internal/playlist"
	"github.com/hazadus/go-tunebox/internal/settings"
	tuiapp "github.com/hazadus/go-tunebox/internal/tui/app"
)

// captureOutput перехватывает stdout и stderr во время выполнения функции
func captureOutput(t *testing.T, fn func()) string {
	// Сохраняем оригинальные stdout и stderr
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Ошибка создания pipe: %v", err)
	}

	os.Stdout = w
	os.Stderr = w

	// Читаем параллельно, чтобы большой вывод не заблокировал pipe
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	fn()

	// Восстанавливаем оригинальные stdout и stderr
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	w.Close()
	<-done

	return buf.String()
}

// syncBuffer буфер для вывода, который читается из другой горутины
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// writeWAV записывает тишину в формате PCM 16 бит моно
func writeWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()
	dataSize := frames * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("Ошибка записи WAV: %v", err)
	}
}

// createTestApplication создает приложение с фиктивным движком и настройками во временной директории
func createTestApplication(t *testing.T, tempDir string) (*Application, *enginetest.Engine) {
	t.Helper()

	cfg := config.Default()
	cfg.SettingsPath = filepath.Join(tempDir, "settings.yaml")
	cfg.PollInterval = -1

	app := NewApplication(cfg, zerolog.Nop())
	eng := enginetest.New()
	app.newEngine = func() engine.Engine { return eng }

	return app, eng
}

// TestCmdList проверяет, что команда `list` выводит плейлист из конфигурации
func TestCmdList(t *testing.T) {
	tempDir := t.TempDir()
	app, _ := createTestApplication(t, tempDir)

	wavPath := filepath.Join(tempDir, "Band - Intro.wav")
	writeWAV(t, wavPath, 8000, 16000)

	app.Config.Playlist = []playlist.Track{
		{Title: "Morning Tune", Source: filepath.Join(tempDir, "missing.mp3")},
		{Source: wavPath},
	}

	listCmd := app.createListCommand()

	output := captureOutput(t, func() {
		listCmd.SetArgs([]string{})
		if err := listCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды list: %v", err)
		}
	})

	expectedStrings := []string{
		"Треков в плейлисте: 2",
		"Morning Tune",
		"N/A",
		"Band - Intro",
		"00:02",
		"tunebox play",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Ожидалось найти '%s' в выводе команды list:\n%s", expected, output)
		}
	}
}

// TestCmdListDefaultPlaylist проверяет встроенный плейлист
func TestCmdListDefaultPlaylist(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())

	output := captureOutput(t, func() {
		if err := app.listTracks(); err != nil {
			t.Errorf("Ошибка выполнения команды list: %v", err)
		}
	})

	for _, track := range playlist.DefaultTracks() {
		if !strings.Contains(output, track.Title) {
			t.Errorf("Ожидалось найти '%s' в выводе команды list:\n%s", track.Title, output)
		}
	}
}

// TestCmdVolume проверяет изменение и сохранение громкости
func TestCmdVolume(t *testing.T) {
	tempDir := t.TempDir()
	app, _ := createTestApplication(t, tempDir)

	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{}, "🔊 Громкость: 100%"},
		{[]string{"0.4"}, "🔊 Громкость: 40%"},
		{[]string{"--mute"}, "🔇 Громкость: 0%"},
		{[]string{"--mute"}, "🔊 Громкость: 40%"},
		{[]string{"15%"}, "🔈 Громкость: 15%"},
		{[]string{"3"}, "🔊 Громкость: 100%"},
	}

	for _, test := range tests {
		volumeCmd := app.createVolumeCommand()
		output := captureOutput(t, func() {
			volumeCmd.SetArgs(test.args)
			if err := volumeCmd.Execute(); err != nil {
				t.Errorf("Ошибка выполнения команды volume %v: %v", test.args, err)
			}
		})
		if !strings.Contains(output, test.expected) {
			t.Errorf("volume %v: ожидалось '%s' в выводе:\n%s", test.args, test.expected, output)
		}
	}

	// Громкость сохранена в файле настроек
	store, err := settings.OpenFileStore(app.Config.SettingsPath)
	if err != nil {
		t.Fatalf("Ошибка открытия настроек: %v", err)
	}
	if v, _ := store.Get(controller.KeyVolume); v != "1" {
		t.Errorf("Ожидалась сохраненная громкость 1, получено %q", v)
	}
}

func TestCmdVolumeInvalidArgs(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())

	tests := [][]string{
		{"громко"},
		{"0.5", "--mute"},
		{"0.1", "0.2"},
	}

	for _, args := range tests {
		volumeCmd := app.createVolumeCommand()
		volumeCmd.SetArgs(args)
		volumeCmd.SetOut(io.Discard)
		volumeCmd.SetErr(io.Discard)

		captureOutput(t, func() {
			if err := volumeCmd.Execute(); err == nil {
				t.Errorf("Ожидалась ошибка для аргументов %v", args)
			}
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"0.5", 0.5, false},
		{"1", 1, false},
		{"50%", 0.5, false},
		{" 30% ", 0.3, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}

	for _, test := range tests {
		v, err := parseVolume(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("parseVolume(%q): неожиданная ошибка %v", test.input, err)
			continue
		}
		if !test.wantErr && v != test.expected {
			t.Errorf("parseVolume(%q) = %v, ожидалось %v", test.input, v, test.expected)
		}
	}
}

func TestKeyActions(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())
	app.Config.Keys.Mute = []string{"x", "ctrl+m"}

	actions := app.keyActions()

	tests := []struct {
		key      byte
		expected playerAction
	}{
		{' ', actionToggle},
		{'n', actionNext},
		{'p', actionPrevious},
		{'x', actionMute},
		{'+', actionVolumeUp},
		{'=', actionVolumeUp},
		{'-', actionVolumeDown},
		{'q', actionQuit},
		{keyCtrlC, actionQuit},
	}

	for _, test := range tests {
		if actions[test.key] != test.expected {
			t.Errorf("Клавиша %q: ожидалось действие %v, получено %v", test.key, test.expected, actions[test.key])
		}
	}
	if _, ok := actions['m']; ok {
		t.Error("Клавиша 'm' не должна быть назначена после замены в конфигурации")
	}
}

func TestRunPlayerKeys(t *testing.T) {
	app, eng := createTestApplication(t, t.TempDir())

	ctrl, _, err := app.newController(nil)
	if err != nil {
		t.Fatalf("Ошибка создания контроллера: %v", err)
	}
	defer ctrl.Close()
	ctrl.SetVolume(0.5)

	var out syncBuffer
	in := strings.NewReader(" n\x1b[C+q")

	err = runPlayer(context.Background(), ctrl, nil, in, &out, app.keyActions())
	if err != nil {
		t.Fatalf("Ошибка runPlayer: %v", err)
	}

	if ctrl.Index() != 2 {
		t.Errorf("Ожидался трек 2 после 'n' и стрелки вправо, получено %d", ctrl.Index())
	}
	if ctrl.Volume() != 0.6 {
		t.Errorf("Ожидалась громкость 0.6, получено %v", ctrl.Volume())
	}
	if play, _ := eng.Sessions()[0].Calls(); play != 1 {
		t.Errorf("Ожидался запрос воспроизведения по пробелу, получено %d", play)
	}
	if !strings.Contains(out.String(), "Воспроизведение остановлено") {
		t.Errorf("Ожидалось сообщение об остановке:\n%s", out.String())
	}
}

func TestRunPlayerShowsErrors(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())

	ctrl, _, err := app.newController(nil)
	if err != nil {
		t.Fatalf("Ошибка создания контроллера: %v", err)
	}
	defer ctrl.Close()

	errs := make(chan error, 1)
	in, keys := io.Pipe()
	var out syncBuffer

	result := make(chan error, 1)
	go func() {
		result <- runPlayer(context.Background(), ctrl, errs, in, &out, app.keyActions())
	}()

	errs <- errors.New("файл не найден")

	deadline := time.After(time.Second)
	for !strings.Contains(out.String(), "файл не найден") {
		select {
		case <-deadline:
			t.Fatalf("Ошибка не выведена:\n%s", out.String())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := keys.Write([]byte("q")); err != nil {
		t.Fatalf("Ошибка записи клавиши: %v", err)
	}

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Ошибка runPlayer: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runPlayer не завершился после 'q'")
	}
	keys.Close()
}

func TestRunPlayerContextCancel(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())

	ctrl, _, err := app.newController(nil)
	if err != nil {
		t.Fatalf("Ошибка создания контроллера: %v", err)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in, keys := io.Pipe()
	defer keys.Close()

	var out syncBuffer
	err = runPlayer(ctx, ctrl, nil, in, &out, app.keyActions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
}

func TestPlayInvalidNumber(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())

	err := app.playFrom(context.Background(), 10)
	if err == nil || !strings.Contains(err.Error(), "трек с номером 10 не найден") {
		t.Errorf("Ожидалась ошибка выбора трека, получено %v", err)
	}
}

func TestRootCommand(t *testing.T) {
	app, _ := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	for _, name := range []string{"tui", "list", "play", "volume"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Ожидалась подкоманда %s", name)
		}
	}
}

func TestStartControllerLoadsFirstTrack(t *testing.T) {
	app, eng := createTestApplication(t, t.TempDir())
	queue := tuiapp.NewErrorQueue(4, zerolog.Nop())

	ctrl, _, err := app.startController(queue)
	if err != nil {
		t.Fatalf("Ошибка создания контроллера: %v", err)
	}
	defer ctrl.Close()

	s := eng.Last()
	if s == nil || s.Source != playlist.DefaultTracks()[0].Source {
		t.Fatal("Первый трек должен загружаться при запуске")
	}
	if ctrl.State() != controller.StateLoaded {
		t.Errorf("Ожидалось состояние Loaded, получено %v", ctrl.State())
	}
	if play, _ := s.Calls(); play != 0 {
		t.Error("При запуске трек не должен воспроизводиться")
	}
}

func TestStartControllerReportsBrokenFirstTrack(t *testing.T) {
	app, eng := createTestApplication(t, t.TempDir())
	eng.FailCreate(playlist.DefaultTracks()[0].Source, errors.New("no such file"))
	queue := tuiapp.NewErrorQueue(4, zerolog.Nop())

	ctrl, _, err := app.startController(queue)
	if err != nil {
		t.Fatalf("Ошибка создания контроллера: %v", err)
	}
	defer ctrl.Close()

	select {
	case err := <-queue.Errors():
		if !controller.IsLoadError(err) {
			t.Errorf("Ожидалась ошибка загрузки, получено %v", err)
		}
	default:
		t.Fatal("Ошибка первого трека должна появиться до первой команды")
	}
}
