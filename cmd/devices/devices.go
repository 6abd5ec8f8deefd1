package devices

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"go.uber.org/zap"
)

type Command struct {
	cfg  *config.Config
	long bool
}

func (*Command) Name() string     { return "devices" }
func (*Command) Synopsis() string { return "List connected devices" }
func (*Command) Usage() string {
	return `devices [-l]:
  List devices in the "device" state. With -l, also show model, storage and battery.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.BoolVar(&c.long, "l", false, "show model, storage and battery for each device")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	appCtx, err := app.Start(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	list, err := appCtx.Devices.ListConnectedDevices(appCtx.Context)
	if err != nil {
		appCtx.Logger.Error("failed to list devices", zap.Error(err))
		return subcommands.ExitFailure
	}
	if !list.Connected {
		fmt.Println("no devices connected")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	if !c.long {
		for _, id := range list.DeviceIDs {
			fmt.Fprintln(w, id)
		}
		return subcommands.ExitSuccess
	}

	fmt.Fprintln(w, "SERIAL\tMODEL\tUSED GB\tTOTAL GB\tBATTERY")
	for _, id := range list.DeviceIDs {
		snap := appCtx.Devices.GetSnapshot(appCtx.Context, id)
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%d%%\n",
			id, snap.DisplayName, snap.StorageUsedGB, snap.StorageTotalGB, snap.BatteryPercent)
	}
	return subcommands.ExitSuccess
}
