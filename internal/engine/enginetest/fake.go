// Package enginetest содержит управляемую из тестов реализацию engine.Engine.
// Подтверждения команд не приходят сами: тест вызывает AckPlay, AckPause, End и Fail.
package enginetest

import (
	"sync"

	"github.com/hazadus/go-tunebox/internal/engine"
)

// Engine фиктивный движок
type Engine struct {
	mu            sync.Mutex
	sessions      []*Session
	defaultVolume float64
	createErrs    map[string]error
	closed        bool
}

// New создает фиктивный движок
func New() *Engine {
	return &Engine{
		defaultVolume: 1,
		createErrs:    make(map[string]error),
	}
}

// FailCreate заставляет Create возвращать err для источника
func (e *Engine) FailCreate(source string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.createErrs[source] = err
}

// Create создает сессию или возвращает ошибку, заданную через FailCreate
func (e *Engine) Create(source string, opts engine.Options, cb engine.Callbacks) (engine.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err, ok := e.createErrs[source]; ok {
		return nil, err
	}

	s := &Session{
		Source:   source,
		Options:  opts,
		cb:       cb,
		Volume:   e.defaultVolume,
		duration: 180,
	}
	if opts.HasVolume {
		s.Volume = opts.Volume
	}
	e.sessions = append(e.sessions, s)
	return s, nil
}

// SetDefaultVolume запоминает громкость по умолчанию
func (e *Engine) SetDefaultVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultVolume = v
}

// DefaultVolume возвращает громкость по умолчанию
func (e *Engine) DefaultVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultVolume
}

// Close отмечает движок закрытым
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Closed сообщает, был ли вызван Close
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Sessions возвращает все созданные сессии
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Session, len(e.sessions))
	copy(out, e.sessions)
	return out
}

// Live возвращает сессии, которые не были выгружены
func (e *Engine) Live() []*Session {
	var live []*Session
	for _, s := range e.Sessions() {
		if !s.Unloaded() {
			live = append(live, s)
		}
	}
	return live
}

// Last возвращает последнюю созданную сессию или nil
func (e *Engine) Last() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

// Session фиктивная сессия. Счетчики фиксируют поступившие команды.
type Session struct {
	Source  string
	Options engine.Options

	mu         sync.Mutex
	cb         engine.Callbacks
	Volume     float64
	playing    bool
	unloaded   bool
	position   float64
	duration   float64
	PlayCalls  int
	PauseCalls int
}

// Play фиксирует запрос воспроизведения
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlayCalls++
}

// Pause фиксирует запрос паузы
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PauseCalls++
}

// Unload выгружает сессию
func (s *Session) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloaded = true
	s.playing = false
}

// Seek возвращает позицию, заданную SetPosition
func (s *Session) Seek() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration возвращает длительность, заданную SetDuration (по умолчанию 180с)
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetVolume запоминает громкость сессии
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Volume = v
}

// CurrentVolume возвращает громкость сессии
func (s *Session) CurrentVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Volume
}

// IsPlaying сообщает подтвержденное состояние
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Unloaded сообщает, была ли сессия выгружена
func (s *Session) Unloaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloaded
}

// Calls возвращает количество запросов Play и Pause
func (s *Session) Calls() (play, pause int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PlayCalls, s.PauseCalls
}

// SetPosition задает текущую позицию в секундах
func (s *Session) SetPosition(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = sec
}

// SetDuration задает длительность в секундах
func (s *Session) SetDuration(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = sec
}

// AckPlay подтверждает начало воспроизведения
func (s *Session) AckPlay() {
	s.mu.Lock()
	s.playing = true
	fn := s.cb.OnPlay
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// AckPause подтверждает паузу
func (s *Session) AckPause() {
	s.mu.Lock()
	s.playing = false
	fn := s.cb.OnPause
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// End сообщает о завершении трека
func (s *Session) End() {
	s.mu.Lock()
	s.playing = false
	fn := s.cb.OnEnd
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Fail сообщает об ошибке воспроизведения
func (s *Session) Fail(code, message string) {
	s.mu.Lock()
	s.playing = false
	fn := s.cb.OnError
	s.mu.Unlock()
	if fn != nil {
		fn(code, message)
	}
}
