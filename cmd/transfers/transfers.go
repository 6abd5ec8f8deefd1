package transfers

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
	"github.com/nrtkbb/adbfm/db"
	"go.uber.org/zap"
)

type Command struct {
	cfg    *config.Config
	serial string
	limit  int
	asJSON bool
}

func (*Command) Name() string     { return "transfers" }
func (*Command) Synopsis() string { return "Show the transfer history" }
func (*Command) Usage() string {
	return `transfers [-s <serial>] [-n <limit>] [-json]:
  Show recent pulls, pushes and deletes, newest first.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "only this device")
	f.IntVar(&c.limit, "n", db.DefaultListLimit, "maximum number of rows")
	f.BoolVar(&c.asJSON, "json", false, "print JSON in the HTTP API shape")
	f.StringVar(&c.cfg.DatabasePath, "db", c.cfg.DatabasePath, "transfer ledger database")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	appCtx, err := app.Start(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	if err := appCtx.OpenLedger(); err != nil {
		appCtx.Logger.Error("failed to open database", zap.Error(err))
		return subcommands.ExitFailure
	}

	records, err := appCtx.Ledger.ListTransfers(appCtx.Context, c.serial, c.limit)
	if err != nil {
		appCtx.Logger.Error("failed to read transfers", zap.Error(err))
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewTransferItems(records)); err != nil {
			appCtx.Logger.Error("failed to write output", zap.Error(err))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "TIME\tDEVICE\tDIRECTION\tSTATUS\tBYTES\tPATH\tDETAIL")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime),
			r.DeviceID, r.Direction, r.Status, r.SizeBytes, r.RemotePath, r.Detail)
	}
	return subcommands.ExitSuccess
}
