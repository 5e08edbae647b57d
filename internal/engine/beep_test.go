package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// writeWAV записывает тишину в формате PCM 16 бит стерео
func writeWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()

	dataLen := frames * 4
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Ошибка записи WAV: %v", err)
	}
}

func newTestEngine() *BeepEngine {
	return NewBeepEngine(BeepConfig{}, zerolog.Nop())
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
	}

	for _, test := range tests {
		if got := ClampVolume(test.in); got != test.expected {
			t.Errorf("ClampVolume(%v) = %v, ожидалось %v", test.in, got, test.expected)
		}
	}
}

func TestCreatePreloadMissingFile(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	_, err := e.Create(filepath.Join(t.TempDir(), "missing.mp3"), Options{Preload: true}, Callbacks{})
	if err == nil {
		t.Fatal("Ожидалась ошибка для несуществующего файла")
	}
	if !strings.Contains(err.Error(), "ошибка открытия источника") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestCreatePreloadInvalidAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp3")
	if err := os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0x03}, 0644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	e := newTestEngine()
	defer e.Close()

	_, err := e.Create(path, Options{Preload: true}, Callbacks{})
	if err == nil {
		t.Fatal("Ожидалась ошибка декодирования")
	}
	if !strings.Contains(err.Error(), "ошибка декодирования") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestLazyLoadErrorIsReportedAsync(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	errs := make(chan string, 1)
	s, err := e.Create(filepath.Join(t.TempDir(), "missing.mp3"), Options{}, Callbacks{
		OnError: func(code, _ string) { errs <- code },
	})
	if err != nil {
		t.Fatalf("Создание без предзагрузки не должно открывать источник: %v", err)
	}
	defer s.Unload()

	s.Play()

	select {
	case code := <-errs:
		if code != CodeLoad {
			t.Errorf("Ожидался код %s, получено %s", CodeLoad, code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Таймаут ожидания OnError")
	}

	if s.IsPlaying() {
		t.Error("Сессия с ошибкой не должна воспроизводиться")
	}
}

func TestSlowRemoteSourceDoesNotBlockSession(t *testing.T) {
	requested := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(requested)
		// Не отвечаем, пока клиент не отменит запрос
		<-r.Context().Done()
	}))
	defer server.Close()

	e := newTestEngine()
	defer e.Close()

	errs := make(chan string, 1)
	s, err := e.Create(server.URL+"/radio.mp3", Options{Streaming: true}, Callbacks{
		OnError: func(code, _ string) { errs <- code },
	})
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	s.Play()
	select {
	case <-requested:
	case <-time.After(2 * time.Second):
		t.Fatal("Таймаут ожидания запроса к источнику")
	}

	done := make(chan struct{})
	go func() {
		s.Seek()
		s.SetVolume(0.5)
		s.IsPlaying()
		s.Unload()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Сессия заблокирована открытием источника")
	}

	// После выгрузки ошибка прерванного открытия не передается
	select {
	case code := <-errs:
		t.Errorf("Неожиданный OnError после выгрузки: %s", code)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWAVSessionDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, DefaultSampleRate, DefaultSampleRate*2)

	e := newTestEngine()
	defer e.Close()

	s, err := e.Create(path, Options{Preload: true}, Callbacks{})
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}
	defer s.Unload()

	if d := s.Duration(); math.Abs(d-2) > 0.01 {
		t.Errorf("Ожидалась длительность 2с, получено %v", d)
	}
	if pos := s.Seek(); pos != 0 {
		t.Errorf("Ожидалась позиция 0, получено %v", pos)
	}
	if s.IsPlaying() {
		t.Error("Новая сессия не должна воспроизводиться")
	}
}

func TestSessionVolume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 22050, 100)

	e := newTestEngine()
	defer e.Close()
	e.SetDefaultVolume(0.5)

	s, err := e.Create(path, Options{Preload: true}, Callbacks{})
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}
	defer s.Unload()

	bs := s.(*beepSession)
	if bs.gain.Volume != math.Log2(0.5) || bs.gain.Silent {
		t.Errorf("Ожидалась громкость по умолчанию 0.5, получено %v (silent=%v)", bs.gain.Volume, bs.gain.Silent)
	}

	e.SetDefaultVolume(0)
	if !bs.gain.Silent {
		t.Error("Громкость 0 должна заглушать сессию без собственной громкости")
	}

	s.SetVolume(0.25)
	e.SetDefaultVolume(1)
	if bs.gain.Silent || bs.gain.Volume != math.Log2(0.25) {
		t.Errorf("Собственная громкость сессии не должна меняться, получено %v", bs.gain.Volume)
	}
}

func TestUnloadIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, DefaultSampleRate, 10)

	e := newTestEngine()
	defer e.Close()

	s, err := e.Create(path, Options{Preload: true}, Callbacks{})
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	s.Unload()
	s.Unload()

	if s.Duration() != 0 {
		t.Error("Выгруженная сессия не должна сообщать длительность")
	}
	if len(e.sessions) != 0 {
		t.Errorf("Движок не должен хранить выгруженные сессии, найдено %d", len(e.sessions))
	}
}

func TestCreateAfterClose(t *testing.T) {
	e := newTestEngine()
	e.Close()

	_, err := e.Create("audio/song1.mp3", Options{}, Callbacks{})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Ожидалась ErrClosed, получено %v", err)
	}
}
