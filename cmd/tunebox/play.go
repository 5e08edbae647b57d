package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hazadus/go-tunebox/internal/controller"
	tuiapp "github.com/hazadus/go-tunebox/internal/tui/app"
	tuiPlayer "github.com/hazadus/go-tunebox/internal/tui/player"
	"github.com/hazadus/go-tunebox/internal/utils"
)

// playerAction действие, назначенное клавише
type playerAction int

const (
	actionToggle playerAction = iota + 1
	actionNext
	actionPrevious
	actionMute
	actionVolumeUp
	actionVolumeDown
	actionQuit
)

const (
	keyCtrlC  = 3
	keyEscape = 0x1b
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [number]",
		Short: "Play the playlist without TUI",
		Long:  `Play the playlist in the terminal starting from the track with the given number (1 by default).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("неверный номер трека: %s", args[0])
				}
				number = n
			}
			return app.playFrom(ctx, number)
		},
	}
}

func (app *Application) playFrom(ctx context.Context, number int) error {
	queue := tuiapp.NewErrorQueue(errorQueueSize, app.Logger)

	ctrl, eng, err := app.newController(queue)
	if err != nil {
		return err
	}
	defer eng.Close()
	defer ctrl.Close()

	if err := ctrl.SelectTrack(number - 1); err != nil {
		return fmt.Errorf("трек с номером %d не найден", number)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n/→] [p/←] - следующий/предыдущий трек\n")
	fmt.Printf("   [m] [+] [-] - громкость\n")
	fmt.Printf("   [q/Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	if err := ctrl.Play(); err != nil {
		app.Logger.Debug().Err(err).Msg("воспроизведение недоступно")
	}

	// Включаем raw режим для чтения одиночных клавиш
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("ошибка настройки терминала: %w", err)
		}
		defer term.Restore(fd, state)
	}

	return runPlayer(ctx, ctrl, queue.Errors(), os.Stdin, os.Stdout, app.keyActions())
}

// keyActions сопоставляет клавиши действиям с учетом клавиш громкости из конфигурации
func (app *Application) keyActions() map[byte]playerAction {
	actions := map[byte]playerAction{
		' ':      actionToggle,
		'n':      actionNext,
		'p':      actionPrevious,
		'q':      actionQuit,
		keyCtrlC: actionQuit,
	}

	bind := func(keys []string, action playerAction) {
		for _, k := range keys {
			if len(k) == 1 {
				actions[k[0]] = action
			}
		}
	}
	bind(app.Config.Keys.Mute, actionMute)
	bind(app.Config.Keys.VolumeUp, actionVolumeUp)
	bind(app.Config.Keys.VolumeDown, actionVolumeDown)

	return actions
}

// readKeys читает клавиши и отправляет действия в канал до конца ввода
func readKeys(ctx context.Context, in io.Reader, actions map[byte]playerAction, out chan<- playerAction) {
	defer close(out)

	send := func(action playerAction) bool {
		select {
		case out <- action:
			return true
		case <-ctx.Done():
			return false
		}
	}

	buf := make([]byte, 16)
	for {
		n, err := in.Read(buf)
		for i := 0; i < n; i++ {
			// Стрелки приходят как ESC [ C / ESC [ D
			if buf[i] == keyEscape && i+2 < n && buf[i+1] == '[' {
				action := playerAction(0)
				switch buf[i+2] {
				case 'C':
					action = actionNext
				case 'D':
					action = actionPrevious
				}
				if action != 0 && !send(action) {
					return
				}
				i += 2
				continue
			}
			if action, ok := actions[buf[i]]; ok && !send(action) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// runPlayer обрабатывает клавиши и выводит состояние, пока пользователь не выйдет
func runPlayer(ctx context.Context, ctrl *controller.Controller, errs <-chan error, in io.Reader, out io.Writer, actions map[byte]playerAction) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan playerAction)
	go readKeys(ctx, in, actions, keys)

	lastIndex := -1
	var lastProgress *controller.Progress
	printTrack := func() {
		snapshot := ctrl.Snapshot()
		if snapshot.Index == lastIndex {
			return
		}
		lastIndex = snapshot.Index
		lastProgress = nil
		fmt.Fprintf(out, "\r\033[K🎵 Сейчас играет: %d. %s\r\n", snapshot.Index+1, snapshot.Track.Title)
	}
	printTrack()

	for {
		select {
		case action, ok := <-keys:
			if !ok || action == actionQuit {
				fmt.Fprint(out, "\r\n⏹️  Воспроизведение остановлено пользователем\r\n")
				return nil
			}
			handleAction(ctrl, action)

		case _, ok := <-ctrl.Changes():
			if !ok {
				return nil
			}
			printTrack()
			displayStatus(out, ctrl.Snapshot(), lastProgress)

		case p, ok := <-ctrl.Progress():
			if !ok {
				return nil
			}
			if p.Index == lastIndex {
				lastProgress = &p
			}
			displayStatus(out, ctrl.Snapshot(), lastProgress)

		case err := <-errs:
			fmt.Fprintf(out, "\r\n❌ %v\r\n", err)

		case <-ctx.Done():
			fmt.Fprint(out, "\r\n🚫 Операция отменена\r\n")
			return ctx.Err()
		}
	}
}

func handleAction(ctrl *controller.Controller, action playerAction) {
	var err error
	switch action {
	case actionToggle:
		err = ctrl.TogglePlay()
	case actionNext:
		err = ctrl.Next()
	case actionPrevious:
		err = ctrl.Previous()
	case actionMute:
		ctrl.ToggleMute()
	case actionVolumeUp:
		ctrl.VolumeUp()
	case actionVolumeDown:
		ctrl.VolumeDown()
	}
	// Ошибки загрузки уже переданы в очередь ошибок
	if err != nil && !errors.Is(err, controller.ErrNoActiveSession) {
		fmt.Fprintf(os.Stderr, "\r\n❌ %v\r\n", err)
	}
}

// displayStatus выводит строку состояния поверх предыдущей
func displayStatus(out io.Writer, snapshot controller.Snapshot, p *controller.Progress) {
	timeText := "--:-- / --:--"
	if p != nil {
		timeText = fmt.Sprintf("%s / %s", utils.FormatSeconds(p.Position), utils.FormatSeconds(p.Duration))
	}

	fmt.Fprintf(out, "\r\033[K%s  %s | %s | %s %s",
		tuiPlayer.PlayGlyph(snapshot.Playing),
		snapshot.State,
		timeText,
		tuiPlayer.VolumeIcon(snapshot.Level),
		utils.FormatPercent(snapshot.Volume))
}
