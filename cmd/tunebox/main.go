package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/hazadus/go-tunebox/internal/config"
	"github.com/hazadus/go-tunebox/internal/controller"
	"github.com/hazadus/go-tunebox/internal/engine"
	"github.com/hazadus/go-tunebox/internal/logging"
	"github.com/hazadus/go-tunebox/internal/metadata"
	"github.com/hazadus/go-tunebox/internal/playlist"
	"github.com/hazadus/go-tunebox/internal/settings"
)

const (
	defaultConfigPath = config.DefaultPath
)

// Application хранит зависимости, общие для всех команд
type Application struct {
	Config *config.Config
	Store  settings.Store
	Logger zerolog.Logger

	newEngine func() engine.Engine
}

// NewApplication создает приложение. Если файл настроек не читается,
// громкость хранится только в памяти до выхода.
func NewApplication(cfg *config.Config, logger zerolog.Logger) *Application {
	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	store, err := settings.OpenFileStore(cfg.SettingsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SettingsPath).Msg("настройки недоступны, используется хранилище в памяти")
		app.Store = settings.NewMemoryStore()
	} else {
		app.Store = store
	}

	app.newEngine = func() engine.Engine {
		return engine.NewBeepEngine(engine.BeepConfig{
			SampleRate: cfg.SampleRate,
			BufferSize: cfg.StreamBufferSize,
		}, logger)
	}

	return app
}

// newPlaylist создает плейлист из конфигурации, заполняя пустые названия
func (app *Application) newPlaylist() (*playlist.Playlist, error) {
	tracks := metadata.NewExtractor().FillTitles(app.Config.Tracks())
	pl, err := playlist.New(tracks)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания плейлиста: %w", err)
	}
	return pl, nil
}

// newController создает движок и контроллер плеера. Движок закрывается вызывающим.
func (app *Application) newController(reporter controller.Reporter) (*controller.Controller, engine.Engine, error) {
	pl, err := app.newPlaylist()
	if err != nil {
		return nil, nil, err
	}

	eng := app.newEngine()
	ctrl := controller.New(pl, eng, app.Store, controller.Options{
		Logger:       &app.Logger,
		Reporter:     reporter,
		PollInterval: app.Config.PollInterval,
		Streaming:    app.Config.Streaming,
		Preload:      app.Config.Preload,
	})
	return ctrl, eng, nil
}

// startController создает контроллер и сразу загружает выбранный трек,
// чтобы ошибка загрузки была видна до первой команды
func (app *Application) startController(reporter controller.Reporter) (*controller.Controller, engine.Engine, error) {
	ctrl, eng, err := app.newController(reporter)
	if err != nil {
		return nil, nil, err
	}
	if err := ctrl.LoadCurrent(); err != nil {
		// Ошибка уже передана reporter
		app.Logger.Debug().Err(err).Msg("трек не загружен при запуске")
	}
	return ctrl, eng, nil
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(logging.Options{
		File:  cfg.LogFile,
		Level: cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка настройки журнала: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := NewApplication(cfg, logger)
	rootCmd := app.createRootCommand(ctx)
	err = rootCmd.Execute()

	stop()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}
