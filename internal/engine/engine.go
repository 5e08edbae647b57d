// Package engine описывает контракт аудио движка и его реализацию на beep
package engine

// Коды ошибок, передаваемые в Callbacks.OnError
const (
	// CodeLoad источник не удалось открыть или декодировать
	CodeLoad = "load"
	// CodePlay не удалось запустить вывод звука
	CodePlay = "play"
)

// Options задает параметры создаваемой сессии
type Options struct {
	Streaming bool    // Читать источник потоком, не загружая целиком
	Preload   bool    // Открыть и декодировать источник при создании
	Volume    float64 // Громкость сессии, если HasVolume
	HasVolume bool
}

// Callbacks уведомления сессии.
// Движок никогда не вызывает их синхронно изнутри команды сессии.
type Callbacks struct {
	OnPlay  func()
	OnPause func()
	OnEnd   func()
	OnError func(code, message string)
}

// Session активный дескриптор воспроизведения одного источника.
// Play и Pause асинхронны: результат подтверждается через OnPlay/OnPause.
type Session interface {
	Play()
	Pause()
	Unload()
	Seek() float64     // Текущая позиция в секундах
	Duration() float64 // Длительность в секундах, <= 0 если неизвестна
	SetVolume(v float64)
	IsPlaying() bool
}

// Engine создает сессии воспроизведения
type Engine interface {
	Create(source string, opts Options, cb Callbacks) (Session, error)
	// SetDefaultVolume задает громкость сессий без собственного значения
	SetDefaultVolume(v float64)
	Close() error
}

// ClampVolume ограничивает громкость диапазоном [0, 1]
func ClampVolume(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
