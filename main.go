package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/adbfm/cmd/devices"
	"github.com/nrtkbb/adbfm/cmd/info"
	"github.com/nrtkbb/adbfm/cmd/ls"
	"github.com/nrtkbb/adbfm/cmd/media"
	"github.com/nrtkbb/adbfm/cmd/migrate"
	"github.com/nrtkbb/adbfm/cmd/pull"
	"github.com/nrtkbb/adbfm/cmd/push"
	"github.com/nrtkbb/adbfm/cmd/serve"
	"github.com/nrtkbb/adbfm/cmd/transfers"
	"github.com/nrtkbb/adbfm/cmd/version"
	"github.com/nrtkbb/adbfm/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// initTracer installs the tracer provider. Spans are exported to stdout only
// when asked for; otherwise they are sampled and dropped.
func initTracer(stdout bool) (*sdktrace.TracerProvider, error) {
	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("adbfm"),
		semconv.ServiceVersion(version.Version),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	}
	if stdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp, nil
}

func main() {
	tp, err := initTracer(config.Load().TraceStdout)
	if err != nil {
		log.Fatal(err)
	}

	// Register subcommands
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&serve.Command{}, "")
	subcommands.Register(&devices.Command{}, "device")
	subcommands.Register(&info.Command{}, "device")
	subcommands.Register(&ls.Command{}, "device")
	subcommands.Register(&media.Command{}, "device")
	subcommands.Register(&pull.Command{}, "transfer")
	subcommands.Register(&push.Command{}, "transfer")
	subcommands.Register(&transfers.Command{}, "transfer")
	subcommands.Register(&migrate.Command{}, "")
	subcommands.Register(&version.Command{}, "")

	// Set the default subcommand to help if no subcommand is specified
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	status := subcommands.Execute(ctx)

	if err := tp.Shutdown(context.Background()); err != nil {
		log.Printf("Error shutting down tracer provider: %v", err)
	}
	os.Exit(int(status))
}
