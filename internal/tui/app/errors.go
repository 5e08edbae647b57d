package app

import "github.com/rs/zerolog"

// ErrorQueue передает ошибки контроллера в TUI. Реализует controller.Reporter.
type ErrorQueue struct {
	errs chan error
	log  zerolog.Logger
}

// NewErrorQueue создает очередь ошибок заданного размера
func NewErrorQueue(size int, logger zerolog.Logger) *ErrorQueue {
	return &ErrorQueue{
		errs: make(chan error, size),
		log:  logger,
	}
}

// Report ставит ошибку в очередь. Если очередь заполнена, ошибка только логируется.
func (q *ErrorQueue) Report(err error) {
	select {
	case q.errs <- err:
	default:
		q.log.Warn().Err(err).Msg("очередь ошибок заполнена")
	}
}

// Errors возвращает канал ошибок
func (q *ErrorQueue) Errors() <-chan error {
	return q.errs
}
