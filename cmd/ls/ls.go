package ls

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/api"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"github.com/nrtkbb/adbfm/device"
	"go.uber.org/zap"
)

type Command struct {
	cfg    *config.Config
	serial string
	asJSON bool
}

func (*Command) Name() string     { return "ls" }
func (*Command) Synopsis() string { return "List a directory on a device" }
func (*Command) Usage() string {
	return `ls [-s <serial>] [-json] [<path>]:
  List a device directory, /sdcard/ by default.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "device serial (default: the only connected device)")
	f.BoolVar(&c.asJSON, "json", false, "print JSON in the HTTP API shape")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	dir := device.DefaultDirectory
	if f.NArg() == 1 {
		dir = f.Arg(0)
	}

	appCtx, err := app.Start(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	id, err := appCtx.ResolveDevice(appCtx.Context, c.serial)
	if err != nil {
		appCtx.Logger.Error("no device selected", zap.Error(err))
		return subcommands.ExitFailure
	}

	entries, err := appCtx.Devices.ListDirectory(appCtx.Context, id, dir)
	if err != nil {
		appCtx.Logger.Error("failed to list directory", zap.String("path", dir), zap.Error(err))
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewFileItems(entries)); err != nil {
			appCtx.Logger.Error("failed to write output", zap.Error(err))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	defer w.Flush()
	for _, e := range entries {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		modified := "-"
		if e.ModifiedUnix > 0 {
			modified = time.Unix(e.ModifiedUnix, 0).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t %s\n", e.Permissions, e.SizeBytes, modified, name)
	}
	return subcommands.ExitSuccess
}
