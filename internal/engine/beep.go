package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/streaming"
)

// DefaultSampleRate частота дискретизации устройства вывода
const DefaultSampleRate = 44100

// ErrClosed возвращается при создании сессии после закрытия движка
var ErrClosed = errors.New("движок закрыт")

// BeepConfig настройки движка
type BeepConfig struct {
	SampleRate int // Частота устройства; источники с другой частотой ресемплируются
	BufferSize int // Буфер чтения HTTP потоков в байтах
}

// BeepEngine реализует Engine поверх gopxl/beep.
// Динамики инициализируются один раз, при первом запуске воспроизведения.
type BeepEngine struct {
	mu            sync.Mutex
	sampleRate    beep.SampleRate
	bufferSize    int
	speakerReady  bool
	defaultVolume float64
	sessions      map[*beepSession]struct{}
	log           zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBeepEngine создает движок
func NewBeepEngine(cfg BeepConfig, logger zerolog.Logger) *BeepEngine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = streaming.DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BeepEngine{
		sampleRate:    beep.SampleRate(cfg.SampleRate),
		bufferSize:    cfg.BufferSize,
		defaultVolume: 1,
		sessions:      make(map[*beepSession]struct{}),
		log:           logger.With().Str("component", "engine").Logger(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SetDefaultVolume задает громкость для сессий без собственного значения
func (e *BeepEngine) SetDefaultVolume(v float64) {
	v = ClampVolume(v)

	e.mu.Lock()
	e.defaultVolume = v
	sessions := make([]*beepSession, 0, len(e.sessions))
	for s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	for _, s := range sessions {
		s.applyDefaultVolume(v)
	}
}

// DefaultVolume возвращает громкость по умолчанию
func (e *BeepEngine) DefaultVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultVolume
}

// Create создает сессию для источника. При Preload источник открывается сразу,
// и ошибка открытия возвращается из Create.
func (e *BeepEngine) Create(source string, opts Options, cb Callbacks) (Session, error) {
	e.mu.Lock()
	if e.ctx.Err() != nil {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	volume := e.defaultVolume
	e.mu.Unlock()

	hasVolume := opts.HasVolume
	if hasVolume {
		volume = ClampVolume(opts.Volume)
	}

	ctx, cancel := context.WithCancel(e.ctx)
	s := &beepSession{
		engine:    e,
		source:    source,
		opts:      opts,
		cb:        cb,
		volume:    volume,
		hasVolume: hasVolume,
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		log:       e.log.With().Str("source", source).Logger(),
	}

	if opts.Preload {
		if err := s.load(); err != nil {
			cancel()
			return nil, err
		}
	}

	e.mu.Lock()
	e.sessions[s] = struct{}{}
	e.mu.Unlock()

	go s.run()

	s.log.Debug().Bool("preload", opts.Preload).Bool("streaming", opts.Streaming).Msg("сессия создана")
	return s, nil
}

// Close выгружает все сессии и освобождает устройство вывода
func (e *BeepEngine) Close() error {
	e.cancel()

	e.mu.Lock()
	sessions := make([]*beepSession, 0, len(e.sessions))
	for s := range e.sessions {
		sessions = append(sessions, s)
	}
	ready := e.speakerReady
	e.speakerReady = false
	e.mu.Unlock()

	for _, s := range sessions {
		s.Unload()
	}
	if ready {
		speaker.Close()
	}
	return nil
}

// initSpeaker инициализирует динамики один раз
func (e *BeepEngine) initSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speakerReady {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	e.speakerReady = true
	return nil
}

func (e *BeepEngine) forget(s *beepSession) {
	e.mu.Lock()
	delete(e.sessions, s)
	e.mu.Unlock()
}

// beepSession сессия BeepEngine. Команды Play и Pause выполняются по очереди
// в отдельной горутине, которая и вызывает подтверждения.
// Порядок блокировок: s.mu, затем speaker.Lock.
type beepSession struct {
	engine *BeepEngine
	source string
	opts   Options
	cb     Callbacks
	log    zerolog.Logger

	mu        sync.Mutex
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	gain      *effects.Volume
	volume    float64
	hasVolume bool
	started   bool
	playing   bool
	unloaded  bool

	ctx    context.Context
	cancel context.CancelFunc

	qmu   sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
}

// Play запрашивает воспроизведение
func (s *beepSession) Play() {
	s.enqueue(s.doPlay)
}

// Pause запрашивает паузу
func (s *beepSession) Pause() {
	s.enqueue(s.doPause)
}

// Unload останавливает воспроизведение и освобождает ресурсы. Выполняется синхронно.
func (s *beepSession) Unload() {
	// Отмена контекста прерывает открытие HTTP источника, если оно идет
	s.cancel()

	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return
	}
	s.unloaded = true
	s.playing = false

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if s.streamer != nil {
		if err := s.streamer.Close(); err != nil {
			s.log.Debug().Err(err).Msg("ошибка закрытия декодера")
		}
		s.streamer = nil
	}
	s.mu.Unlock()

	close(s.done)
	s.engine.forget(s)
	s.log.Debug().Msg("сессия выгружена")
}

// Seek возвращает текущую позицию в секундах
func (s *beepSession) Seek() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.format.SampleRate.D(s.streamer.Position())
	speaker.Unlock()
	return pos.Seconds()
}

// Duration возвращает длительность в секундах или 0, если она неизвестна
func (s *beepSession) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	n := s.streamer.Len()
	if n <= 0 {
		return 0
	}
	return s.format.SampleRate.D(n).Seconds()
}

// SetVolume задает собственную громкость сессии
func (s *beepSession) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = ClampVolume(v)
	s.hasVolume = true
	s.applyVolumeLocked()
}

// IsPlaying сообщает, идет ли воспроизведение
func (s *beepSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *beepSession) applyDefaultVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasVolume {
		return
	}
	s.volume = v
	s.applyVolumeLocked()
}

// applyVolumeLocked переводит линейную громкость в шкалу effects.Volume
func (s *beepSession) applyVolumeLocked() {
	if s.gain == nil {
		return
	}
	speaker.Lock()
	s.gain.Silent = s.volume <= 0
	if s.volume > 0 {
		s.gain.Volume = math.Log2(s.volume)
	}
	speaker.Unlock()
}

// load открывает и декодирует источник. Открытие идет без s.mu, чтобы
// медленный HTTP источник не блокировал Seek, SetVolume и Unload.
func (s *beepSession) load() error {
	s.mu.Lock()
	ready := s.streamer != nil || s.unloaded
	s.mu.Unlock()
	if ready {
		return nil
	}

	streamer, format, err := s.open()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloaded || s.streamer != nil {
		// Сессия выгружена во время открытия
		streamer.Close()
		return nil
	}
	s.installLocked(streamer, format)
	return nil
}

func (s *beepSession) open() (beep.StreamSeekCloser, beep.Format, error) {
	rc, err := streaming.Open(s.ctx, s.source, s.opts.Streaming, s.engine.bufferSize)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка открытия источника %s: %w", s.source, err)
	}

	streamer, format, err := decode(s.source, rc)
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("ошибка декодирования %s: %w", s.source, err)
	}
	return streamer, format, nil
}

// installLocked подключает декодер к цепочке Ctrl и Volume (вызывать под s.mu)
func (s *beepSession) installLocked(streamer beep.StreamSeekCloser, format beep.Format) {
	var source beep.Streamer = streamer
	if format.SampleRate != s.engine.sampleRate {
		source = beep.Resample(4, format.SampleRate, s.engine.sampleRate, streamer)
	}

	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{Streamer: source, Paused: true}
	s.gain = &effects.Volume{Streamer: s.ctrl, Base: 2}
	s.applyVolumeLocked()
}

func decode(source string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".wav":
		return wav.Decode(rc)
	default:
		return mp3.Decode(rc)
	}
}

func (s *beepSession) doPlay() {
	if err := s.load(); err != nil {
		s.fireError(CodeLoad, err.Error())
		return
	}

	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return
	}
	if err := s.engine.initSpeaker(); err != nil {
		s.mu.Unlock()
		s.fireError(CodePlay, err.Error())
		return
	}

	if !s.started {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
		speaker.Play(beep.Seq(s.gain, beep.Callback(func() {
			// Вызывается под блокировкой динамиков, поэтому уходим в отдельную горутину
			go s.handleEnd()
		})))
		s.started = true
	} else {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
	}
	s.playing = true
	s.mu.Unlock()

	s.fire(s.cb.OnPlay)
}

func (s *beepSession) doPause() {
	s.mu.Lock()
	if s.unloaded || !s.started {
		s.mu.Unlock()
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.playing = false
	s.mu.Unlock()

	s.fire(s.cb.OnPause)
}

func (s *beepSession) handleEnd() {
	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.started = false
	// Перематываем в начало, чтобы повторный Play начал трек заново
	speaker.Lock()
	s.ctrl.Paused = true
	if err := s.streamer.Seek(0); err != nil {
		s.log.Debug().Err(err).Msg("не удалось перемотать поток в начало")
	}
	speaker.Unlock()
	s.mu.Unlock()

	s.fire(s.cb.OnEnd)
}

func (s *beepSession) fire(fn func()) {
	if fn == nil || s.isUnloaded() {
		return
	}
	fn()
}

func (s *beepSession) fireError(code, message string) {
	s.log.Error().Str("code", code).Msg(message)
	if s.cb.OnError == nil || s.isUnloaded() {
		return
	}
	s.cb.OnError(code, message)
}

func (s *beepSession) isUnloaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloaded
}

func (s *beepSession) enqueue(fn func()) {
	s.qmu.Lock()
	s.queue = append(s.queue, fn)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run выполняет команды сессии по очереди, пока сессия не выгружена
func (s *beepSession) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.qmu.Lock()
			if len(s.queue) == 0 {
				s.qmu.Unlock()
				break
			}
			fn := s.queue[0]
			s.queue = s.queue[1:]
			s.qmu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			fn()
		}
	}
}
