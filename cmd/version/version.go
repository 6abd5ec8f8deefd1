package version

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/config"
)

var (
	// These variables are set by goreleaser
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type Command struct {
	adbPath  string
	checkADB bool
}

func (*Command) Name() string     { return "version" }
func (*Command) Synopsis() string { return "Print version information" }
func (*Command) Usage() string {
	return `version [-adb]:
  Print version, build commit, and build date information. With -adb, also
  report the version of the adb executable in use.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.checkADB, "adb", false, "also print the adb version")
	f.StringVar(&c.adbPath, "adb-path", config.Load().ADBPath, "adb executable")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Printf("adbfm version %s\n", Version)
	fmt.Printf("commit: %s\n", Commit)
	fmt.Printf("built: %s\n", Date)
	fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if !c.checkADB {
		return subcommands.ExitSuccess
	}
	runner := bridge.NewExecRunner(c.adbPath, 5*time.Second, nil)
	res, err := runner.Run(ctx, bridge.Command{Args: []string{"version"}})
	if err != nil {
		fmt.Printf("adb: unavailable (%v)\n", err)
		return subcommands.ExitFailure
	}
	first, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	fmt.Printf("adb: %s\n", first)
	return subcommands.ExitSuccess
}
