package push

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"go.uber.org/zap"
)

const defaultDir = "/sdcard/Download/"

type Command struct {
	cfg    *config.Config
	serial string
	dir    string
}

func (*Command) Name() string     { return "push" }
func (*Command) Synopsis() string { return "Copy local files onto a device" }
func (*Command) Usage() string {
	return `push [-s <serial>] [-dir <device dir>] <local file>...:
  Copy local files into a device directory, /sdcard/Download/ by default.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "device serial (default: the only connected device)")
	f.StringVar(&c.dir, "dir", defaultDir, "absolute device directory")
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
	for _, local := range f.Args() {
		remote, err := appCtx.Transfers.Push(appCtx.Context, id, local, c.dir)
		if err != nil {
			logger.Error("push failed", zap.String("local", local), zap.Error(err))
			status = subcommands.ExitFailure
			if appCtx.Context.Err() != nil {
				break
			}
			continue
		}
		fmt.Printf("%s -> %s\n", local, remote)
	}
	return status
}
