package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-tunebox/internal/metadata"
	"github.com/hazadus/go-tunebox/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tracks of the playlist",
		Long:  `Display the playlist with track numbers, sources and durations of local files.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listTracks()
		},
	}
}

func (app *Application) listTracks() error {
	pl, err := app.newPlaylist()
	if err != nil {
		return err
	}

	extractor := metadata.NewExtractor()

	fmt.Printf("📚 Треков в плейлисте: %d\n\n", pl.Len())

	// Выводим заголовок таблицы
	fmt.Printf("%-4s %-40s %-12s %s\n", "№", "Название", "Длительность", "Источник")
	fmt.Println(strings.Repeat("-", 100))

	for i, track := range pl.Tracks() {
		duration := "N/A"
		if d, err := extractor.GetDuration(track.Source); err == nil {
			duration = utils.FormatDuration(d)
		}

		fmt.Printf("%-4d %-40s %-12s %s\n",
			i+1,
			utils.TruncateString(track.Title, 38),
			duration,
			track.Source)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'tunebox play [номер]' для воспроизведения трека")
	return nil
}
