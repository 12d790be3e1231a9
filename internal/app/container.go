package app

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/doeshing/orbit-go/internal/application/config"
	"github.com/doeshing/orbit-go/internal/application/dispatch"
	"github.com/doeshing/orbit-go/internal/application/doctor"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/catalog"
	"github.com/doeshing/orbit-go/internal/infrastructure/config"
	"github.com/doeshing/orbit-go/internal/infrastructure/executor"
	"github.com/doeshing/orbit-go/internal/infrastructure/history"
	"github.com/doeshing/orbit-go/internal/infrastructure/render"
	"github.com/doeshing/orbit-go/internal/infrastructure/security"
	"github.com/doeshing/orbit-go/internal/pkg/logger"
	"github.com/doeshing/orbit-go/internal/ports"
)

// Options adjusts how the container is built.
type Options struct {
	Verbose    bool
	ConfigPath string
	// Confirm answers require_confirmation decisions. Nil makes them fail.
	Confirm security.ConfirmFunc
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Logger        ports.Logger
	Shield        *security.Shield
	Runner        *executor.ScriptRunner
	Renderer      *render.Renderer
	Control       *Control
	HistoryStore  ports.HistoryRepository
	DoctorService *doctor.Service
}

// BuildContainer constructs the dependency graph and registers the catalog.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", cfgLoader.Path(), err)
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, JSON: cfg.Logging.JSON})

	shield, err := security.BuildShield(cfg.Safety, opts.Confirm)
	if err != nil {
		return nil, err
	}

	runner, err := executor.NewScriptRunner(cfg.Execution.Interpreter, cfg.Execution.ScriptFlag)
	if err != nil {
		return nil, err
	}

	settings, err := dispatch.SettingsFromConfig(cfg.Execution)
	if err != nil {
		return nil, err
	}

	var historyStore ports.HistoryRepository
	if cfg.History.Enabled {
		historyStore = history.NewStore(cfg.History.Path)
		pruneHistory(historyStore, cfg.History.RetentionDays, log)
	}

	renderer := render.NewRenderer()
	control, err := NewControl(ControlConfig{
		Runner:   runner,
		Renderer: renderer,
		Policy:   shield,
		Logger:   log,
		History:  historyStore,
		Hint:     security.PermissionHint,
		Settings: settings,
	})
	if err != nil {
		return nil, err
	}

	actions, err := LoadCatalog(renderer, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	if err := control.RegisterMany(actions); err != nil {
		return nil, err
	}
	log.Debug("catalog registered", map[string]interface{}{"actions": len(actions)})

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Runner:         runner,
		Shield:         shield,
		Registry:       control.Registry(),
		HistoryStore:   historyStore,
		Lint:           lintMessages,
	}

	return &Container{
		Config:        cfg,
		ConfigLoader:  cfgLoader,
		Logger:        log,
		Shield:        shield,
		Runner:        runner,
		Renderer:      renderer,
		Control:       control,
		HistoryStore:  historyStore,
		DoctorService: doctorService,
	}, nil
}

// LoadCatalog reads the built-in catalog followed by every extra directory.
func LoadCatalog(renderer *render.Renderer, settings domain.CatalogSettings) ([]*domain.ActionDefinition, error) {
	loader := catalog.NewLoader(renderer, catalog.Options{DisabledCategories: settings.DisabledCategories})
	actions, err := loader.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	for _, dir := range settings.ExtraDirs {
		extra, err := loader.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", dir, err)
		}
		actions = append(actions, extra...)
	}
	return actions, nil
}

func pruneHistory(store ports.HistoryRepository, days int, log ports.Logger) {
	if days <= 0 {
		return
	}
	removed, err := store.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		log.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if removed > 0 {
		log.Debug("history pruned", map[string]interface{}{"removed": removed})
	}
}

func lintMessages(actions []*domain.ActionDefinition) []string {
	issues := catalog.Lint(actions)
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}
