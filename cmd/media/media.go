package media

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/api"
	"github.com/nrtkbb/adbfm/app"
	"github.com/nrtkbb/adbfm/config"
	"github.com/nrtkbb/adbfm/device"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

type Command struct {
	cfg          *config.Config
	serial       string
	category     string
	documentType string
	asJSON       bool
}

func (*Command) Name() string     { return "media" }
func (*Command) Synopsis() string { return "Query the media index of a device" }
func (*Command) Usage() string {
	return `media [-s <serial>] [-category image|video|audio|document] [-type document|apk|zip] [-json]:
  List images, videos, audio or documents known to the device's media index.
  -type narrows document queries and is ignored otherwise.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	c.cfg = config.Load()
	f.StringVar(&c.serial, "s", "", "device serial (default: the only connected device)")
	f.StringVar(&c.category, "category", string(models.CategoryImage), "image, video, audio or document")
	f.StringVar(&c.documentType, "type", string(models.KindDocument), "document family: document, apk or zip")
	f.BoolVar(&c.asJSON, "json", false, "print JSON in the HTTP API shape")
	f.StringVar(&c.cfg.ADBPath, "adb", c.cfg.ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	category, err := device.ParseCategory(c.category)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	kind, err := device.ParseDocumentKind(c.documentType)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
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

	var entries []models.MediaEntry
	if category == models.CategoryDocument {
		entries, err = appCtx.Devices.ListDocuments(appCtx.Context, id, kind)
	} else {
		entries, err = appCtx.Devices.ListMedia(appCtx.Context, id, category)
	}
	if err != nil {
		appCtx.Logger.Error("media query failed", zap.String("category", string(category)), zap.Error(err))
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewMediaItems(entries)); err != nil {
			appCtx.Logger.Error("failed to write output", zap.Error(err))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tSIZE\tTYPE\tDIMENSIONS\tPATH")
	for _, e := range entries {
		dims := "-"
		if e.Dimensions != nil {
			dims = fmt.Sprintf("%dx%d", e.Dimensions.Width, e.Dimensions.Height)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", e.ID, e.SizeBytes, e.MimeType, dims, e.Path)
	}
	return subcommands.ExitSuccess
}
