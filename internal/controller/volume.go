package controller

import (
	"math"
	"strconv"

	"github.com/hazadus/go-tunebox/internal/engine"
)

// Ключи хранилища настроек
const (
	KeyVolume           = "volume"
	KeyVolumeBeforeMute = "volume_before_mute"
)

const (
	// DefaultVolume громкость при первом запуске
	DefaultVolume = 1.0
	// DefaultUnmuteVolume громкость после снятия беззвучного режима, если прежняя неизвестна
	DefaultUnmuteVolume = 0.7
	// VolumeStep шаг изменения громкости с клавиатуры
	VolumeStep = 0.1

	lowVolumeThreshold = 0.3
)

// VolumeLevel диапазон громкости для индикатора
type VolumeLevel int

const (
	// LevelMuted громкость равна 0
	LevelMuted VolumeLevel = iota
	// LevelLow громкость в (0, 0.3)
	LevelLow
	// LevelFull громкость в [0.3, 1]
	LevelFull
)

// LevelFor возвращает диапазон для громкости v
func LevelFor(v float64) VolumeLevel {
	switch {
	case v == 0:
		return LevelMuted
	case v < lowVolumeThreshold:
		return LevelLow
	default:
		return LevelFull
	}
}

// Volume возвращает текущую громкость
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// VolumeLevel возвращает диапазон текущей громкости
func (c *Controller) VolumeLevel() VolumeLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return LevelFor(c.volume)
}

// SetVolume задает громкость, сохраняет ее и применяет к сессии
// или, если сессии нет, к движку
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.unlock()
	c.setVolumeLocked(v)
}

// ToggleMute выключает звук или восстанавливает громкость до выключения.
// Беззвучным считается только точный ноль.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.unlock()

	if c.volume == 0 {
		c.setVolumeLocked(c.unmuteVolume())
		return
	}

	c.preMute = c.volume
	c.persist(KeyVolumeBeforeMute, c.volume)
	c.setVolumeLocked(0)
}

// StepVolume меняет громкость на delta с округлением до сотых
func (c *Controller) StepVolume(delta float64) {
	c.mu.Lock()
	defer c.unlock()
	c.setVolumeLocked(math.Round((c.volume+delta)*100) / 100)
}

// VolumeUp увеличивает громкость на VolumeStep
func (c *Controller) VolumeUp() {
	c.StepVolume(VolumeStep)
}

// VolumeDown уменьшает громкость на VolumeStep
func (c *Controller) VolumeDown() {
	c.StepVolume(-VolumeStep)
}

func (c *Controller) setVolumeLocked(v float64) {
	v = engine.ClampVolume(v)
	c.volume = v
	c.persist(KeyVolume, v)

	switch {
	case c.ref != nil:
		c.ref.session.SetVolume(v)
	case c.engine != nil:
		c.engine.SetDefaultVolume(v)
	}

	c.log.Debug().Float64("volume", v).Msg("громкость изменена")
	c.changed()
}

// unmuteVolume возвращает последнюю ненулевую громкость до выключения звука
func (c *Controller) unmuteVolume() float64 {
	if v := c.readVolume(KeyVolumeBeforeMute, c.preMute); v > 0 {
		return v
	}
	if c.preMute > 0 {
		return c.preMute
	}
	return DefaultUnmuteVolume
}

// restoreVolume читает сохраненную громкость при запуске
func (c *Controller) restoreVolume() float64 {
	return c.readVolume(KeyVolume, DefaultVolume)
}

// readVolume читает громкость из хранилища. Если значения нет, хранилище
// недоступно или значение испорчено, возвращается fallback.
func (c *Controller) readVolume(key string, fallback float64) float64 {
	if c.store == nil {
		return fallback
	}

	raw, ok := c.store.Get(key)
	if !ok {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		c.log.Warn().Str("key", key).Str("value", raw).Msg("некорректное значение громкости в настройках")
		return fallback
	}
	return engine.ClampVolume(v)
}

// persist сохраняет громкость; ошибки хранилища только логируются
func (c *Controller) persist(key string, v float64) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(key, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("не удалось сохранить громкость")
	}
}
