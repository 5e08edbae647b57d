// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-tunebox/internal/playlist"
)

// DefaultPath путь к файлу конфигурации по умолчанию
const DefaultPath = "~/.tunebox/config.yaml"

// Значения по умолчанию
const (
	DefaultSettingsPath     = "~/.tunebox/settings.yaml"
	DefaultLogFile          = "~/.tunebox/tunebox.log"
	DefaultLogLevel         = "info"
	DefaultPollInterval     = 16 * time.Millisecond
	DefaultSampleRate       = 44100
	DefaultStreamBufferSize = 256 * 1024
)

// Keys дополнительные клавиши управления громкостью
type Keys struct {
	Mute       []string `yaml:"mute"`
	VolumeUp   []string `yaml:"volume_up"`
	VolumeDown []string `yaml:"volume_down"`
}

// Config структура для хранения конфигурации приложения
type Config struct {
	Playlist         []playlist.Track `yaml:"playlist"`
	SettingsPath     string           `yaml:"settings_path"`
	LogFile          string           `yaml:"log_file"`
	LogLevel         string           `yaml:"log_level"`
	PollInterval     time.Duration    `yaml:"poll_interval"`
	SampleRate       int              `yaml:"sample_rate"`
	StreamBufferSize int              `yaml:"stream_buffer_size"`
	Streaming        bool             `yaml:"streaming"`
	Preload          bool             `yaml:"preload"`
	Keys             Keys             `yaml:"keys"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		SettingsPath:     DefaultSettingsPath,
		LogFile:          DefaultLogFile,
		LogLevel:         DefaultLogLevel,
		PollInterval:     DefaultPollInterval,
		SampleRate:       DefaultSampleRate,
		StreamBufferSize: DefaultStreamBufferSize,
		Streaming:        true,
		Preload:          true,
		Keys: Keys{
			Mute:       []string{"m"},
			VolumeUp:   []string{"+", "="},
			VolumeDown: []string{"-"},
		},
	}
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файла нет, возвращается конфигурация по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Работаем с настройками по умолчанию
	case err != nil:
		return nil, err
	default:
		// Поля, отсутствующие в файле, сохраняют значения по умолчанию
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация %s: %w", path, err)
	}

	// Раскрываем тильду в путях
	config.SettingsPath = strings.Replace(config.SettingsPath, "~", home, 1)
	config.LogFile = strings.Replace(config.LogFile, "~", home, 1)

	return config, nil
}

// Tracks возвращает плейлист из конфигурации или встроенный, если он не задан
func (c *Config) Tracks() []playlist.Track {
	if len(c.Playlist) == 0 {
		return playlist.DefaultTracks()
	}
	tracks := make([]playlist.Track, len(c.Playlist))
	copy(tracks, c.Playlist)
	return tracks
}

func (c *Config) validate() error {
	for i, track := range c.Playlist {
		if strings.TrimSpace(track.Source) == "" {
			return fmt.Errorf("трек %d: не указан источник", i+1)
		}
	}

	if c.SettingsPath == "" {
		c.SettingsPath = DefaultSettingsPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.StreamBufferSize <= 0 {
		c.StreamBufferSize = DefaultStreamBufferSize
	}
	return nil
}
