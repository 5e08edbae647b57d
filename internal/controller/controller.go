// Package controller содержит конечный автомат плеера: выбор трека,
// управление сессией движка, громкость и опрос прогресса.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/engine"
	"github.com/hazadus/go-tunebox/internal/playlist"
	"github.com/hazadus/go-tunebox/internal/settings"
	"github.com/hazadus/go-tunebox/internal/streaming"
)

// DefaultPollInterval период опроса позиции (примерно один кадр)
const DefaultPollInterval = 16 * time.Millisecond

// Options дополнительные параметры контроллера
type Options struct {
	Logger   *zerolog.Logger
	Reporter Reporter

	// PollInterval период опроса прогресса; 0 означает DefaultPollInterval,
	// отрицательное значение отключает фоновый опрос
	PollInterval time.Duration

	Streaming bool // Передается движку при создании сессии
	Preload   bool
}

// sessionRef связывает сессию движка с индексом трека.
// Уведомления от сессии, которая уже не текущая, игнорируются.
type sessionRef struct {
	session engine.Session
	index   int
}

// Controller единственный владелец состояния плеера и сессии движка.
// Все методы безопасны для конкурентного вызова.
type Controller struct {
	mu       sync.Mutex
	playlist *playlist.Playlist
	engine   engine.Engine
	store    settings.Store
	reporter Reporter
	log      zerolog.Logger
	opts     Options

	state       State
	playing     bool // Подтвержденный движком флаг
	resume      bool // Запрошено воспроизведение, подтверждения еще нет
	ref         *sessionRef
	failedIndex int // Индекс трека, который не удалось загрузить, или -1
	volume      float64
	preMute     float64

	pending []error
	changes chan struct{}

	progress chan Progress
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
}

// New создает контроллер. Громкость восстанавливается из store до создания
// первой сессии и сразу применяется к движку. store и eng могут быть nil.
func New(pl *playlist.Playlist, eng engine.Engine, store settings.Store, opts Options) *Controller {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		playlist:    pl,
		engine:      eng,
		store:       store,
		reporter:    opts.Reporter,
		log:         logger.With().Str("component", "controller").Logger(),
		opts:        opts,
		state:       StateIdle,
		failedIndex: -1,
		preMute:     DefaultUnmuteVolume,
		changes:     make(chan struct{}, 1),
		progress:    make(chan Progress, 1),
		ctx:         ctx,
		cancel:      cancel,
	}

	c.volume = c.restoreVolume()
	if c.engine != nil {
		c.engine.SetDefaultVolume(c.volume)
	}

	interval := opts.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	if interval > 0 {
		c.wg.Add(1)
		go c.pollLoop(interval)
	}

	return c
}

// Changes возвращает канал уведомлений об изменении состояния.
// Несколько изменений подряд сливаются в одно уведомление.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Progress возвращает канал обновлений позиции воспроизведения
func (c *Controller) Progress() <-chan Progress {
	return c.progress
}

// Snapshot возвращает текущее состояние
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Tracks:     c.playlist.Tracks(),
		Index:      c.playlist.Index(),
		Track:      c.playlist.Current(),
		State:      c.state,
		Playing:    c.playing,
		HasSession: c.ref != nil,
		Volume:     c.volume,
		Level:      LevelFor(c.volume),
	}
}

// State возвращает текущее состояние автомата
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsPlaying возвращает подтвержденный движком флаг воспроизведения
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Index возвращает индекс выбранного трека
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playlist.Index()
}

// SelectTrack выбирает трек и создает для него новую сессию.
// Ошибка загрузки не возвращается, а передается Reporter.
func (c *Controller) SelectTrack(index int) error {
	c.mu.Lock()
	defer c.unlock()
	return c.selectLocked(index)
}

// SelectAndPlay выбирает трек и сразу запускает его независимо от прежнего состояния
func (c *Controller) SelectAndPlay(index int) error {
	c.mu.Lock()
	defer c.unlock()

	if err := c.selectLocked(index); err != nil {
		return err
	}
	if c.ref != nil {
		c.playRequestLocked()
	}
	return nil
}

// LoadCurrent создает сессию для выбранного трека, если ее еще нет
func (c *Controller) LoadCurrent() error {
	c.mu.Lock()
	defer c.unlock()
	return c.loadCurrentLocked()
}

// Play запрашивает воспроизведение, при необходимости загружая трек.
// Состояние станет StatePlaying только после подтверждения движка.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.unlock()
	return c.playLocked()
}

// Pause запрашивает паузу. Вне состояния StatePlaying ничего не делает.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.unlock()
	c.pauseLocked()
}

// TogglePlay переключает воспроизведение по подтвержденному флагу
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	defer c.unlock()

	if c.playing {
		c.pauseLocked()
		return nil
	}
	return c.playLocked()
}

// Next переходит к следующему треку. Воспроизведение продолжается,
// только если трек играл до перехода или его запуск уже запрошен.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.unlock()
	return c.stepLocked(1, c.playing || c.resume)
}

// Previous переходит к предыдущему треку
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.unlock()
	return c.stepLocked(-1, c.playing || c.resume)
}

// Close останавливает опрос и выгружает сессию. Движок не закрывается.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.resume = false
	c.cancel()
	c.releaseLocked()
	close(c.changes)
	c.mu.Unlock()

	c.wg.Wait()
	close(c.progress)
	c.log.Debug().Msg("контроллер закрыт")
	return nil
}

func (c *Controller) selectLocked(index int) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.playlist.Select(index); err != nil {
		c.log.Error().Err(err).Int("index", index).Msg("некорректный выбор трека")
		return fmt.Errorf("ошибка выбора трека: %w", err)
	}

	c.releaseLocked()
	c.resume = false
	c.failedIndex = -1
	_ = c.loadCurrentLocked()
	c.state = StateLoaded
	c.changed()
	return nil
}

func (c *Controller) loadCurrentLocked() error {
	if c.closed {
		return ErrClosed
	}
	idx := c.playlist.Index()
	if c.ref != nil && c.ref.index == idx {
		return nil
	}

	c.releaseLocked()
	c.state = StateLoaded
	c.changed()

	track := c.playlist.Current()
	if c.engine == nil {
		return c.loadFailedLocked(&EngineLoadError{
			Index:   idx,
			Track:   track,
			Code:    engine.CodeLoad,
			Message: "аудио движок недоступен",
		})
	}

	// Удаленный источник открывается движком при первом Play, а не под мьютексом
	ref := &sessionRef{index: idx}
	s, err := c.engine.Create(track.Source, engine.Options{
		Streaming: c.opts.Streaming,
		Preload:   c.opts.Preload && !streaming.IsRemote(track.Source),
		Volume:    c.volume,
		HasVolume: true,
	}, c.callbacks(ref))
	if err != nil {
		return c.loadFailedLocked(&EngineLoadError{
			Index: idx,
			Track: track,
			Code:  engine.CodeLoad,
			Err:   err,
		})
	}

	ref.session = s
	c.ref = ref
	c.failedIndex = -1
	c.log.Debug().Int("index", idx).Str("title", track.Title).Msg("трек загружен")
	return nil
}

func (c *Controller) loadFailedLocked(err *EngineLoadError) error {
	c.failedIndex = err.Index
	c.resume = false
	c.log.Error().Err(err).Int("index", err.Index).Msg("ошибка загрузки трека")
	c.pending = append(c.pending, err)
	return err
}

func (c *Controller) playLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.ref == nil {
		if c.failedIndex == c.playlist.Index() {
			return ErrNoActiveSession
		}
		if err := c.loadCurrentLocked(); err != nil {
			return fmt.Errorf("%w: %w", ErrNoActiveSession, err)
		}
	}

	c.playRequestLocked()
	return nil
}

// playRequestLocked запускает текущую сессию и запоминает намерение играть
func (c *Controller) playRequestLocked() {
	c.resume = true
	c.ref.session.Play()
}

func (c *Controller) pauseLocked() {
	if c.ref == nil || c.state != StatePlaying {
		return
	}
	c.ref.session.Pause()
}

func (c *Controller) stepLocked(dir int, resume bool) error {
	if c.closed {
		return ErrClosed
	}
	if dir > 0 {
		c.playlist.Next()
	} else {
		c.playlist.Previous()
	}

	c.releaseLocked()
	c.failedIndex = -1
	_ = c.loadCurrentLocked()
	c.state = StateLoaded
	c.changed()

	if resume && c.ref != nil {
		c.playRequestLocked()
	} else {
		c.resume = false
	}
	return nil
}

// releaseLocked выгружает текущую сессию до создания новой
func (c *Controller) releaseLocked() {
	if c.ref == nil {
		return
	}
	c.ref.session.Unload()
	c.ref = nil
	c.playing = false
	c.changed()
}

func (c *Controller) callbacks(ref *sessionRef) engine.Callbacks {
	return engine.Callbacks{
		OnPlay:  func() { c.handleAck(ref) },
		OnPause: func() { c.handleAck(ref) },
		OnEnd:   func() { c.handleEnd(ref) },
		OnError: func(code, message string) { c.handleError(ref, code, message) },
	}
}

// handleAck обновляет состояние по фактическому состоянию сессии
func (c *Controller) handleAck(ref *sessionRef) {
	c.mu.Lock()
	defer c.unlock()

	if ref != c.ref {
		return
	}

	c.playing = ref.session.IsPlaying()
	c.resume = c.playing
	switch {
	case c.playing:
		c.state = StatePlaying
	case c.state == StatePlaying:
		c.state = StatePaused
	}
	c.changed()
}

// handleEnd переходит к следующему треку и продолжает воспроизведение
func (c *Controller) handleEnd(ref *sessionRef) {
	c.mu.Lock()
	defer c.unlock()

	if ref != c.ref {
		return
	}
	c.log.Debug().Int("index", ref.index).Msg("трек завершен")
	_ = c.stepLocked(1, true)
}

// handleError возвращает плеер в StateLoaded без повторной попытки
func (c *Controller) handleError(ref *sessionRef, code, message string) {
	c.mu.Lock()
	defer c.unlock()

	if ref != c.ref {
		return
	}

	track, _ := c.playlist.Track(ref.index)
	c.resume = false
	c.releaseLocked()
	c.state = StateLoaded
	c.changed()
	_ = c.loadFailedLocked(&EngineLoadError{
		Index:   ref.index,
		Track:   track,
		Code:    code,
		Message: message,
	})
}

// changed уведомляет подписчика без блокировки (вызывать под мьютексом)
func (c *Controller) changed() {
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// unlock снимает блокировку и передает накопленные ошибки Reporter
func (c *Controller) unlock() {
	errs := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, err := range errs {
		if c.reporter != nil {
			c.reporter.Report(err)
		}
	}
}

// IsLoadError сообщает, является ли err ошибкой загрузки трека
func IsLoadError(err error) bool {
	var loadErr *EngineLoadError
	return errors.As(err, &loadErr)
}
