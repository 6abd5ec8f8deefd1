package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nrtkbb/adbfm/config"
	"github.com/nrtkbb/adbfm/logging"
	"go.uber.org/zap"
)

var (
	ErrNoDevice        = errors.New("no device connected")
	ErrAmbiguousDevice = errors.New("more than one device connected; pass -s <serial>")
)

// Start builds the logger from cfg and the services around it.
func Start(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewAppContext(ctx, cfg, logger), nil
}

// ResolveDevice returns serial, or the only connected device when serial is
// empty.
func (app *AppContext) ResolveDevice(ctx context.Context, serial string) (string, error) {
	if serial != "" {
		return serial, nil
	}
	list, err := app.Devices.ListConnectedDevices(ctx)
	if err != nil {
		return "", err
	}
	switch len(list.DeviceIDs) {
	case 0:
		return "", ErrNoDevice
	case 1:
		return list.DeviceIDs[0], nil
	default:
		return "", ErrAmbiguousDevice
	}
}

// HandleSignals cancels the app context on SIGINT or SIGTERM. A second
// signal within five seconds exits immediately.
func (app *AppContext) HandleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var forceQuit atomic.Bool

	go func() {
		for sig := range sigChan {
			app.Logger.Info("received signal", zap.String("signal", sig.String()))
			if forceQuit.Load() {
				app.Logger.Warn("forcing immediate shutdown")
				os.Exit(1)
			}

			forceQuit.Store(true)
			app.Logger.Info("press Ctrl+C again to force quit")
			app.Cancel()

			go func() {
				time.Sleep(5 * time.Second)
				forceQuit.Store(false)
			}()
		}
	}()
}
