// Package playlist содержит модель фиксированного списка треков и текущего выбора
package playlist

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection возвращается при выборе индекса за пределами плейлиста
var ErrInvalidSelection = errors.New("индекс трека вне плейлиста")

// ErrEmptyPlaylist возвращается при попытке создать пустой плейлист
var ErrEmptyPlaylist = errors.New("плейлист пуст")

// Track описывает один воспроизводимый трек
type Track struct {
	Title  string `yaml:"title"`
	Source string `yaml:"source"` // Путь к файлу или URL
}

// Playlist хранит неизменяемый упорядоченный список треков и выбранный индекс.
// Индекс всегда находится в диапазоне [0, Len()).
type Playlist struct {
	tracks []Track
	index  int
}

// New создает плейлист из списка треков. Список копируется.
func New(tracks []Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}

	copied := make([]Track, len(tracks))
	copy(copied, tracks)

	return &Playlist{tracks: copied}, nil
}

// Default возвращает встроенный плейлист по умолчанию
func Default() *Playlist {
	p, _ := New(DefaultTracks())
	return p
}

// DefaultTracks возвращает встроенный список треков
func DefaultTracks() []Track {
	return []Track{
		{Title: "Sunset Vibes", Source: "audio/song1.mp3"},
		{Title: "Coding Flow", Source: "audio/song2.mp3"},
		{Title: "Team Victory", Source: "audio/song3.mp3"},
	}
}

// Len возвращает количество треков
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Tracks возвращает копию списка треков
func (p *Playlist) Tracks() []Track {
	tracks := make([]Track, len(p.tracks))
	copy(tracks, p.tracks)
	return tracks
}

// Track возвращает трек по индексу
func (p *Playlist) Track(index int) (Track, error) {
	if !p.valid(index) {
		return Track{}, fmt.Errorf("%w: %d (треков: %d)", ErrInvalidSelection, index, len(p.tracks))
	}
	return p.tracks[index], nil
}

// Index возвращает индекс выбранного трека
func (p *Playlist) Index() int {
	return p.index
}

// Current возвращает выбранный трек
func (p *Playlist) Current() Track {
	return p.tracks[p.index]
}

// Select делает трек с указанным индексом текущим
func (p *Playlist) Select(index int) error {
	if !p.valid(index) {
		return fmt.Errorf("%w: %d (треков: %d)", ErrInvalidSelection, index, len(p.tracks))
	}
	p.index = index
	return nil
}

// Next переходит к следующему треку с переходом через конец списка
func (p *Playlist) Next() int {
	p.index = (p.index + 1) % len(p.tracks)
	return p.index
}

// Previous переходит к предыдущему треку с переходом через начало списка
func (p *Playlist) Previous() int {
	p.index = (p.index - 1 + len(p.tracks)) % len(p.tracks)
	return p.index
}

func (p *Playlist) valid(index int) bool {
	return index >= 0 && index < len(p.tracks)
}
