package migrate

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/config"
	"github.com/nrtkbb/adbfm/db"
	"github.com/nrtkbb/adbfm/logging"
	"go.uber.org/zap"
)

type Command struct {
	dbPath    string
	logLevel  string
	logFormat string
}

func (*Command) Name() string     { return "migrate" }
func (*Command) Synopsis() string { return "Run transfer ledger migrations" }
func (*Command) Usage() string {
	return `migrate [-db <database>]:
  Run database migrations on the transfer ledger.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	cfg := config.Load()
	c.logLevel, c.logFormat = cfg.LogLevel, cfg.LogFormat
	f.StringVar(&c.dbPath, "db", cfg.DatabasePath, "database file path")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dbPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	logger, err := logging.New(logging.Config{Level: c.logLevel, Format: c.logFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	logger.Info("running database migrations", zap.String("db", c.dbPath))
	if err := db.RunMigrations(c.dbPath); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		return subcommands.ExitFailure
	}
	logger.Info("database migrations completed")

	return subcommands.ExitSuccess
}
