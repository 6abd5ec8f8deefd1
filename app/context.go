// Package app wires configuration into the running services and tears them
// down once.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/config"
	"github.com/nrtkbb/adbfm/db"
	"github.com/nrtkbb/adbfm/device"
	"github.com/nrtkbb/adbfm/storage"
	"github.com/nrtkbb/adbfm/thumbnail"
	"github.com/nrtkbb/adbfm/transfer"
	"go.uber.org/zap"
)

type AppContext struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *sql.DB
	Ledger     *db.Ledger
	ADB        bridge.Runner
	FFmpeg     bridge.Runner
	Devices    *device.Service
	Transfers  *transfer.Service
	Storage    *storage.Storage
	Thumbnails *thumbnail.Generator
	Context    context.Context
	Cancel     context.CancelFunc
	Cleanup    sync.Once
}

// NewAppContext builds the services without a ledger; call OpenLedger when
// transfers should be recorded.
func NewAppContext(parentCtx context.Context, cfg *config.Config, logger *zap.Logger) *AppContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	adb := bridge.NewExecRunner(cfg.ADBPath, cfg.CommandTimeout, logger.Named("adb"))
	ffmpeg := bridge.NewExecRunner(cfg.FFmpegPath, cfg.CommandTimeout, logger.Named("ffmpeg"))

	return &AppContext{
		Config:     cfg,
		Logger:     logger,
		ADB:        adb,
		FFmpeg:     ffmpeg,
		Devices:    device.NewService(adb, logger.Named("device"), cfg.ScreenshotTimeout),
		Transfers:  transfer.NewService(adb, logger.Named("transfer"), nil, cfg.PullTimeout),
		Storage:    storage.New(cfg.StorageDir),
		Thumbnails: thumbnail.NewGenerator(ffmpeg, cfg.ThumbnailDir, logger.Named("thumbnail")),
		Context:    ctx,
		Cancel:     cancel,
	}
}

// OpenLedger opens the transfer database and makes the transfer service
// record into it.
func (app *AppContext) OpenLedger() error {
	if app.DB != nil {
		return nil
	}
	database, err := db.SetupDatabase(app.Config.DatabasePath, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to open transfer ledger: %w", err)
	}
	app.DB = database
	app.Ledger = db.NewLedger(database)
	app.Transfers = transfer.NewService(app.ADB, app.Logger.Named("transfer"), app.Ledger, app.Config.PullTimeout)
	return nil
}

func (app *AppContext) PerformCleanup() {
	app.Cleanup.Do(func() {
		app.Logger.Info("starting shutdown")
		app.Cancel()

		if app.DB != nil {
			// Force WAL checkpoint before closing
			if _, err := app.DB.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				app.Logger.Warn("wal checkpoint failed", zap.Error(err))
			}
			if err := app.DB.Close(); err != nil {
				app.Logger.Warn("closing database failed", zap.Error(err))
			}
		}

		app.Logger.Info("shutdown completed")
		_ = app.Logger.Sync()
	})
}
