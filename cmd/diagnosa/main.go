// Command diagnosa diagnoses chili nutrient deficiencies from observed
// symptoms using forward chaining with certainty factors.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/catalogue"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/watcher"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/services"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
	"github.com/custodia-labs/diagnosa-cli/internal/reporters"
)

// version is set at build time via -ldflags.
var version = "dev"

// errReported marks errors cobra has already printed.
var errReported = errors.New("command failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Zap().Sync() }()

	configDir, err := file.DefaultDir()
	if err != nil {
		return fmt.Errorf("locating config directory: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	cataloguePath := settings.Catalogue.Path
	if cataloguePath == "" {
		cataloguePath = filepath.Join(configDir, catalogue.DefaultFileName)
	}
	store := catalogue.NewStore(cataloguePath, catalogue.WithBackupDir(settings.Catalogue.BackupDir))

	registry := reporters.NewRegistry()
	reporters.RegisterDefaults(registry)

	knowledgeService := services.NewKnowledgeService(store, registry)
	if err := knowledgeService.Reload(ctx); err != nil {
		cli.SetLoadError(err)
	}

	var consultationLog driven.ConsultationLog
	if settings.Log.Enabled {
		db, err := sqlite.NewStore(filepath.Join(configDir, "data"))
		if err != nil {
			logger.Warn("Consultation log disabled: %v", err)
		} else {
			consultationLog = db.ConsultationLog()
			defer consultationLog.Close()
		}
	}

	if settings.Catalogue.Watch {
		w, err := watcher.New(cataloguePath)
		if err != nil {
			logger.Warn("Catalogue watching disabled: %v", err)
		} else {
			defer w.Close()
			go watchCatalogue(ctx, w, knowledgeService)
		}
	}

	var history *services.HistoryService
	if consultationLog != nil {
		history = services.NewHistoryService(consultationLog)
	}

	svc := cli.Services{
		Knowledge:    knowledgeService,
		Consultation: services.NewConsultationService(knowledgeService, settingsService, consultationLog),
		Explanation:  services.NewExplanationService(knowledgeService),
		Report:       services.NewReportService(registry),
		Settings:     settingsService,
		CatalogueInit: func(ctx context.Context) error {
			if err := store.Init(ctx); err != nil {
				return err
			}
			return knowledgeService.Reload(ctx)
		},
	}
	// A nil *HistoryService must not become a non-nil interface.
	if history != nil {
		svc.History = history
	}

	cli.SetVersion(version)
	cli.SetServices(svc)
	if err := cli.Execute(ctx); err != nil {
		return errReported
	}
	return nil
}

// watchCatalogue reloads the knowledge base whenever the catalogue file
// changes. A failed reload keeps the previous rules.
func watchCatalogue(ctx context.Context, w *watcher.Watcher, knowledge *services.KnowledgeService) {
	err := w.Watch(ctx, func() {
		if err := knowledge.Reload(ctx); err != nil {
			logger.Warn("Catalogue changed but could not be reloaded: %v", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, watcher.ErrClosed) {
		logger.Warn("Catalogue watcher stopped: %v", err)
	}
}
