// Package metadata определяет названия и длительность треков по тегам и именам файлов
package metadata

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-tunebox/internal/playlist"
	"github.com/hazadus/go-tunebox/internal/streaming"
)

// ErrRemoteSource метаданные удаленных источников не читаются
var ErrRemoteSource = errors.New("удаленный источник")

// TrackMetadata хранит метаданные трека
type TrackMetadata struct {
	Artist string
	Title  string
	Album  string
}

// DisplayTitle возвращает название для отображения в плейлисте
func (m TrackMetadata) DisplayTitle() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// FillTitles возвращает копию треков, в которой пустые названия заполнены
// по тегам файла или по имени файла
func (e *Extractor) FillTitles(tracks []playlist.Track) []playlist.Track {
	out := make([]playlist.Track, len(tracks))
	for i, track := range tracks {
		if strings.TrimSpace(track.Title) == "" {
			track.Title = e.Extract(track.Source).DisplayTitle()
		}
		out[i] = track
	}
	return out
}

// Extract извлекает метаданные источника. Для удаленных источников
// используется только имя файла из URL.
func (e *Extractor) Extract(source string) TrackMetadata {
	if streaming.IsRemote(source) {
		return e.getDefaultMetadata(remoteName(source))
	}
	return e.ExtractFromFile(source)
}

// ExtractFromReader извлекает метаданные из io.Reader
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil || strings.TrimSpace(metadata.Title()) == "" {
		return e.getDefaultMetadata(source)
	}

	return TrackMetadata{
		Artist: metadata.Artist(),
		Title:  metadata.Title(),
		Album:  metadata.Album(),
	}
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// GetDuration получает длительность локального MP3 или WAV файла
func (e *Extractor) GetDuration(source string) (time.Duration, error) {
	if streaming.IsRemote(source) {
		return 0, ErrRemoteSource
	}

	file, err := os.Open(source)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	if strings.EqualFold(filepath.Ext(source), ".wav") {
		streamer, format, err = wav.Decode(file)
	} else {
		streamer, format, err = mp3.Decode(file)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// getDefaultMetadata возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return TrackMetadata{Title: nameWithoutExt}
}

// remoteName возвращает имя файла из URL
func remoteName(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Path == "" || u.Path == "/" {
		return source
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return path.Base(u.Path)
	}
	return name
}
