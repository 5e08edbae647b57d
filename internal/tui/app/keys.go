package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap клавиши управления плеером
type KeyMap struct {
	Toggle     key.Binding
	Next       key.Binding
	Previous   key.Binding
	Mute       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Quit       key.Binding
}

// DefaultKeyMap возвращает раскладку по умолчанию
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("пробел", "пауза/воспроизведение")),
		Next:       key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "следующий")),
		Previous:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "предыдущий")),
		Mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "без звука")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "громче")),
		VolumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "тише")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "выход")),
	}
}

// WithVolumeKeys заменяет клавиши громкости; пустые списки не меняют раскладку
func (k KeyMap) WithVolumeKeys(mute, up, down []string) KeyMap {
	if len(mute) > 0 {
		k.Mute = key.NewBinding(key.WithKeys(mute...), key.WithHelp(mute[0], "без звука"))
	}
	if len(up) > 0 {
		k.VolumeUp = key.NewBinding(key.WithKeys(up...), key.WithHelp(up[0], "громче"))
	}
	if len(down) > 0 {
		k.VolumeDown = key.NewBinding(key.WithKeys(down...), key.WithHelp(down[0], "тише"))
	}
	return k
}

// help строка подсказки под панелью плеера
func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Previous, k.Mute, k.VolumeUp, k.VolumeDown, k.Quit}
}
