package bootstrap

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	actioninadapter "devlaunch/internal/modules/action/adapter/in"
	actionoutadapter "devlaunch/internal/modules/action/adapter/out"
	actionservice "devlaunch/internal/modules/action/service"
	actionusecase "devlaunch/internal/modules/action/usecase"
	doctorinadapter "devlaunch/internal/modules/doctor/adapter/in"
	doctoroutadapter "devlaunch/internal/modules/doctor/adapter/out"
	doctorservice "devlaunch/internal/modules/doctor/service"
	doctorusecase "devlaunch/internal/modules/doctor/usecase"
	plugininadapter "devlaunch/internal/modules/plugin/adapter/in"
	pluginoutadapter "devlaunch/internal/modules/plugin/adapter/out"
	pluginservice "devlaunch/internal/modules/plugin/service"
	pluginusecase "devlaunch/internal/modules/plugin/usecase"
	runnerinadapter "devlaunch/internal/modules/runner/adapter/in"
	runneroutadapter "devlaunch/internal/modules/runner/adapter/out"
	runnerservice "devlaunch/internal/modules/runner/service"
	runnerusecase "devlaunch/internal/modules/runner/usecase"
	"devlaunch/internal/platform/clock"
	"devlaunch/internal/platform/config"
	"devlaunch/internal/platform/id"
	"devlaunch/internal/platform/logging"
	uiapp "devlaunch/internal/ui/app"
)

type App struct {
	RunnerCLI runnerinadapter.CLIHandler
	ActionCLI actioninadapter.CLIHandler
	PluginCLI plugininadapter.CLIHandler
	DoctorCLI doctorinadapter.CLIHandler

	Config config.Config
	Logger hclog.Logger

	closers []io.Closer
}

func New(cfg config.Config) (*App, error) {
	logger, logFile, err := logging.NewFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, closers: []io.Closer{logFile}}

	history, err := runneroutadapter.NewSQLiteHistoryStore(cfg.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new history store: %w", err)
	}
	if c, ok := history.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	runnerUC := runnerusecase.NewInteractor(runnerservice.NewBridge(
		runneroutadapter.NewExecSpawner(),
		history,
		clock.SystemClock{},
		id.UUID{},
		logger,
		runnerservice.Options{GracePeriod: cfg.GracePeriod},
	))

	pluginUC := pluginusecase.NewInteractor(pluginservice.NewPluginService(
		pluginoutadapter.NewFileManifestStore(cfg.PluginsPath, cfg.RootPath),
		pluginoutadapter.NewGRPCHost(logger),
	))

	actionSvc := actionservice.NewActionService(
		actionoutadapter.NewPathToolLocator(),
		actionoutadapter.NewOSFileChecker(),
		logger,
		actionoutadapter.NewYAMLTableStore(cfg.ConfigPath, cfg.RootPath),
		actionoutadapter.NewFSScriptCatalog(actionoutadapter.ScriptCatalogOptions{
			ScriptsDir: cfg.ScriptsDir,
			RootDir:    cfg.RootPath,
			ConfigPath: cfg.ConfigPath,
			Discovery: actionoutadapter.DiscoveryOptions{
				Denylist:          cfg.Denylist,
				DestructiveTokens: cfg.DestructiveTokens,
				NestedCategories:  cfg.NestedCategories,
			},
		}),
		actionoutadapter.NewPluginSource(pluginUC, cfg.RootPath, logger),
	)
	actionUC := actionusecase.NewInteractor(actionSvc, runnerUC)

	doctorUC := doctorusecase.NewInteractor(doctorservice.NewDoctorService(
		doctorservice.Options{
			Root:          cfg.RootPath,
			RequiredTools: cfg.RequiredTools,
			RequiredFiles: cfg.RequiredFiles,
			Ports:         cfg.Ports,
		},
		doctorservice.Dependencies{
			Tools:   doctoroutadapter.NewPathToolLocator(),
			Files:   doctoroutadapter.NewOSFileChecker(),
			Ports:   doctoroutadapter.NewGopsutilPortProbe(),
			Actions: actionUC,
			Plugins: pluginUC,
			Logger:  logger,
		},
	))

	app.RunnerCLI = runnerinadapter.NewCLIHandler(runnerUC)
	app.ActionCLI = actioninadapter.NewCLIHandler(actionUC)
	app.PluginCLI = plugininadapter.NewCLIHandler(pluginUC)
	app.DoctorCLI = doctorinadapter.NewCLIHandler(doctorUC)
	logger.Debug("app ready", "root", cfg.RootPath)
	return app, nil
}

// Close releases the history database and the log file, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Config.RootPath, app.Config.PollInterval, app.ActionCLI, app.RunnerCLI, app.DoctorCLI, app.PluginCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
