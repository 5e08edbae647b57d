// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	ctrl   *controller.Controller
	errors *app.ErrorQueue
	keys   app.KeyMap
	log    zerolog.Logger
}

// NewApp создает новый экземпляр TUI приложения. Ошибки контроллера
// должны передаваться в errors (controller.Options.Reporter).
func NewApp(ctrl *controller.Controller, errors *app.ErrorQueue, keys app.KeyMap, logger zerolog.Logger) *App {
	return &App{
		ctrl:   ctrl,
		errors: errors,
		keys:   keys,
		log:    logger,
	}
}

// Run запускает TUI приложение и закрывает контроллер после выхода
func (tuiApp *App) Run() error {
	model := tuiApp.newModel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Останавливаем воспроизведение после завершения программы
	tuiApp.ctrl.Close()

	return err
}

func (tuiApp *App) newModel() *app.MainModel {
	var errs <-chan error
	if tuiApp.errors != nil {
		errs = tuiApp.errors.Errors()
	}
	return app.NewMainModel(tuiApp.ctrl, errs, tuiApp.keys, tuiApp.log)
}
