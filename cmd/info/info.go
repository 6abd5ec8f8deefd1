package info

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"go.uber.org/zap"
)

type Command struct {
	cfg    *config.Config
	serial string
	asJSON bool
}

func (*Command) Name() string     { return "info" }
func (*Command) Synopsis() string { return "Show model, storage and battery of a device" }
func (*Command) Usage() string {
	return `info [-s <serial>] [-json]:
  Show the model name, storage usage and battery level of a device. Values the
  device does not report are shown as zero.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "device serial (default: the only connected device)")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	snap := appCtx.Devices.GetSnapshot(appCtx.Context, id)
	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			appCtx.Logger.Error("failed to write output", zap.Error(err))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	fmt.Printf("serial:    %s\n", id)
	fmt.Printf("model:     %s\n", snap.DisplayName)
	fmt.Printf("storage:   %.2f GB used of %.2f GB (%.2f GB free)\n",
		snap.StorageUsedGB, snap.StorageTotalGB, snap.StorageAvailableGB)
	fmt.Printf("battery:   %d%%\n", snap.BatteryPercent)
	return subcommands.ExitSuccess
}
