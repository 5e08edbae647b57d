package main

import (
	"github.com/spf13/cobra"

	"github.com/hazadus/go-tunebox/internal/tui"
	tuiapp "github.com/hazadus/go-tunebox/internal/tui/app"
)

// Размер очереди ошибок для уведомлений TUI
const errorQueueSize = 16

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface with the playlist and player controls.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI()
		},
	}
}

func (app *Application) launchTUI() error {
	queue := tuiapp.NewErrorQueue(errorQueueSize, app.Logger)

	ctrl, eng, err := app.startController(queue)
	if err != nil {
		return err
	}
	defer eng.Close()

	keys := tuiapp.DefaultKeyMap().WithVolumeKeys(
		app.Config.Keys.Mute,
		app.Config.Keys.VolumeUp,
		app.Config.Keys.VolumeDown,
	)

	// Run закрывает контроллер после выхода
	return tui.NewApp(ctrl, queue, keys, app.Logger).Run()
}
