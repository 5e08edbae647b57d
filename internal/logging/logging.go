// Package logging настраивает журнал приложения
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options параметры журнала
type Options struct {
	// File путь к файлу журнала; пустая строка означает вывод в Console
	File  string
	Level string
	// Console куда писать, если файл не задан (обычно os.Stderr)
	Console io.Writer
}

// New создает логгер. Возвращаемая функция закрывает файл журнала.
// TUI занимает терминал, поэтому в интерактивном режиме журнал пишется в файл.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), noop, err
	}

	if opts.File == "" {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		w := zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly, NoColor: true}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("ошибка создания каталога журнала: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("ошибка открытия файла журнала: %w", err)
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f.Close, nil
}

// ParseLevel разбирает уровень журнала; пустая строка означает info
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("неизвестный уровень журнала %q", s)
	}
	return level, nil
}

func noop() error { return nil }
