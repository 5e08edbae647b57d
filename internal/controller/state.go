package controller

import "github.com/hazadus/go-tunebox/internal/playlist"

// State состояние плеера
type State int

const (
	// StateIdle плеер создан, трек не загружен
	StateIdle State = iota
	// StateLoaded трек выбран, воспроизведение не идет
	StateLoaded
	// StatePlaying движок подтвердил воспроизведение
	StatePlaying
	// StatePaused движок подтвердил паузу
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Остановлен"
	case StateLoaded:
		return "Загружен"
	case StatePlaying:
		return "Воспроизведение"
	case StatePaused:
		return "Пауза"
	default:
		return "Неизвестно"
	}
}

// Snapshot неизменяемый срез состояния контроллера для отображения
type Snapshot struct {
	Tracks     []playlist.Track
	Index      int
	Track      playlist.Track
	State      State
	Playing    bool // Подтвержденный движком флаг воспроизведения
	HasSession bool
	Volume     float64
	Level      VolumeLevel
}

// Progress позиция воспроизведения текущего трека
type Progress struct {
	Index    int
	Position float64 // Секунды
	Duration float64 // Секунды, всегда > 0
	Percent  float64 // 0..100
}
