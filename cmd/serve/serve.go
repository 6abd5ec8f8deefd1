package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/api"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Command struct {
	cfg *config.Config
}

func (*Command) Name() string     { return "serve" }
func (*Command) Synopsis() string { return "Start the HTTP file manager" }
func (*Command) Usage() string {
	return `serve [-listen <addr>] [-static <dir>] [-storage <dir>] [-db <database>]:
  Start an HTTP server that browses, pulls and pushes files on connected devices.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "address to listen on")
	f.StringVar(&c.cfg.StaticDir, "static", c.cfg.StaticDir, "directory with the web UI (empty serves the API only)")
	f.StringVar(&c.cfg.StorageDir, "storage", c.cfg.StorageDir, "directory for pulled files")
	f.StringVar(&c.cfg.ThumbnailDir, "thumbs", c.cfg.ThumbnailDir, "directory for generated thumbnails")
	f.StringVar(&c.cfg.DatabasePath, "db", c.cfg.DatabasePath, "transfer ledger database")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
	f.StringVar(&c.cfg.FFmpegPath, "ffmpeg", c.cfg.FFmpegPath, "ffmpeg executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	appCtx, err := app.Start(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()
	appCtx.HandleSignals()
	logger := appCtx.Logger

	if err := appCtx.Storage.Ensure(); err != nil {
		logger.Error("failed to create storage directory", zap.String("dir", c.cfg.StorageDir), zap.Error(err))
		return subcommands.ExitFailure
	}
	if err := appCtx.OpenLedger(); err != nil {
		logger.Error("failed to set up database", zap.Error(err))
		return subcommands.ExitFailure
	}

	h := api.NewHandler(api.Services{
		Devices:    appCtx.Devices,
		Transfers:  appCtx.Transfers,
		Storage:    appCtx.Storage,
		Thumbnails: appCtx.Thumbnails,
		Ledger:     appCtx.Ledger,
	})
	e := api.NewServer(h, logger.Named("http"), c.cfg.StaticDir)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", c.cfg.ListenAddr),
			zap.String("storage", c.cfg.StorageDir),
			zap.String("adb", c.cfg.ADBPath),
		)
		errCh <- e.Start(c.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			return subcommands.ExitFailure
		}
	case <-appCtx.Context.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}

	return subcommands.ExitSuccess
}
