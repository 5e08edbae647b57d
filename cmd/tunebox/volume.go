package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/playlist"
	tuiPlayer "github.com/hazadus/go-tunebox/internal/tui/player"
	"github.com/hazadus/go-tunebox/internal/utils"
)

// createVolumeCommand создает команду volume с привязкой к экземпляру приложения
func (app *Application) createVolumeCommand() *cobra.Command {
	var mute bool

	cmd := &cobra.Command{
		Use:   "volume [value]",
		Short: "Show or change the saved volume",
		Long: `Show the saved volume or set a new one. The value is a number from 0 to 1
or a percentage (for example 0.5 or 50%). The --mute flag toggles mute.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.changeVolume(args, mute)
		},
	}
	cmd.Flags().BoolVar(&mute, "mute", false, "Toggle mute")

	return cmd
}

func (app *Application) changeVolume(args []string, mute bool) error {
	if mute && len(args) > 0 {
		return fmt.Errorf("нельзя одновременно указать громкость и --mute")
	}

	// Движок не нужен: контроллер только читает и сохраняет громкость
	ctrl := controller.New(playlist.Default(), nil, app.Store, controller.Options{
		Logger:       &app.Logger,
		PollInterval: -1,
	})
	defer ctrl.Close()

	switch {
	case mute:
		ctrl.ToggleMute()
	case len(args) == 1:
		v, err := parseVolume(args[0])
		if err != nil {
			return err
		}
		ctrl.SetVolume(v)
	}

	fmt.Printf("%s Громкость: %s\n", tuiPlayer.VolumeIcon(ctrl.VolumeLevel()), utils.FormatPercent(ctrl.Volume()))
	return nil
}

// parseVolume разбирает громкость в виде доли (0.5) или процентов (50%)
func parseVolume(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("неверное значение громкости: %s", s)
	}
	if percent {
		v /= 100
	}
	return v, nil
}
