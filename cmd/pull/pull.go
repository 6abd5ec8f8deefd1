package pull

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"go.uber.org/zap"
)

type Command struct {
	cfg      *config.Config
	serial   string
	category string
	thumb    bool
}

func (*Command) Name() string     { return "pull" }
func (*Command) Synopsis() string { return "Copy device files into the local cache" }
func (*Command) Usage() string {
	return `pull [-s <serial>] [-category <name>] [-thumb] <device path>...:
  Copy files into <storage>/<serial>/<category>/. Files already cached are not
  pulled again. With -thumb, also generate thumbnails.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "device serial (default: the only connected device)")
	f.StringVar(&c.category, "category", "file", "cache subdirectory")
	f.BoolVar(&c.thumb, "thumb", false, "generate a thumbnail for each file")
	f.StringVar(&c.cfg.StorageDir, "storage", c.cfg.StorageDir, "directory for pulled files")
	f.StringVar(&c.cfg.ThumbnailDir, "thumbs", c.cfg.ThumbnailDir, "directory for generated thumbnails")
	f.StringVar(&c.cfg.DatabasePath, "db", c.cfg.DatabasePath, "transfer ledger database")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	appCtx, err := app.Start(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()
	appCtx.HandleSignals()
	logger := appCtx.Logger

	if err := appCtx.OpenLedger(); err != nil {
		logger.Warn("transfers will not be recorded", zap.Error(err))
	}

	id, err := appCtx.ResolveDevice(appCtx.Context, c.serial)
	if err != nil {
		logger.Error("no device selected", zap.Error(err))
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, remote := range f.Args() {
		local, err := appCtx.Storage.LocalPath(id, c.category, remote, path.Base(remote))
		if err != nil {
			logger.Error("bad file name", zap.String("remote", remote), zap.Error(err))
			status = subcommands.ExitFailure
			continue
		}

		outcome, err := appCtx.Transfers.EnsureLocalCopy(appCtx.Context, id, remote, local)
		if err != nil {
			logger.Error("pull failed", zap.String("remote", remote), zap.Error(err))
			status = subcommands.ExitFailure
			if appCtx.Context.Err() != nil {
				break
			}
			continue
		}

		note := ""
		if outcome.Cached {
			note = " (cached)"
		}
		fmt.Printf("%s -> %s%s\n", remote, outcome.LocalPath, note)

		if !c.thumb {
			continue
		}
		thumb, err := appCtx.Thumbnails.Thumbnail(appCtx.Context, outcome.LocalPath)
		if err != nil {
			logger.Warn("thumbnail failed", zap.String("local", outcome.LocalPath), zap.Error(err))
			continue
		}
		fmt.Printf("  thumbnail: %s\n", thumb)
	}
	return status
}
