package controller

import (
	"errors"
	"fmt"

	"github.com/hazadus/go-tunebox/internal/playlist"
)

// ErrNoActiveSession возвращается, когда для воспроизведения нет сессии движка
var ErrNoActiveSession = errors.New("нет активной сессии воспроизведения")

// ErrClosed возвращается при вызове команд после Close
var ErrClosed = errors.New("плеер закрыт")

// ErrInvalidSelection индекс трека вне плейлиста
var ErrInvalidSelection = playlist.ErrInvalidSelection

// EngineLoadError сообщает, что трек не удалось загрузить или воспроизвести
type EngineLoadError struct {
	Index   int
	Track   playlist.Track
	Code    string
	Message string
	Err     error
}

func (e *EngineLoadError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("не удалось воспроизвести «%s» (%s): %s", e.Track.Title, e.Track.Source, msg)
}

func (e *EngineLoadError) Unwrap() error {
	return e.Err
}

// Reporter показывает ошибки пользователю
type Reporter interface {
	Report(err error)
}

// ReporterFunc адаптер функции к Reporter
type ReporterFunc func(err error)

// Report вызывает f(err)
func (f ReporterFunc) Report(err error) {
	f(err)
}
