package device

import (
	"context"
	"strings"
	"sync"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

// GetSnapshot collects model name, storage and battery level concurrently.
// Each part falls back to its zero value on failure, so the snapshot is
// always returned.
func (s *Service) GetSnapshot(ctx context.Context, deviceID string) models.DeviceSnapshot {
	var (
		wg      sync.WaitGroup
		name    string
		usage   bridge.DiskUsage
		battery int
	)
	wg.Add(3)

	go func() {
		defer wg.Done()
		res, err := s.runner.Run(ctx, bridge.Command{Device: deviceID, Args: []string{"shell", "getprop", "ro.product.model"}})
		if err != nil {
			s.logger.Warn("device model unavailable", zap.String("device", deviceID), zap.Error(err))
			return
		}
		name = strings.TrimSpace(res.Stdout)
	}()

	go func() {
		defer wg.Done()
		res, err := s.runner.Run(ctx, bridge.Command{Device: deviceID, Args: []string{"shell", "df", "/data"}})
		if err != nil {
			s.logger.Warn("storage usage unavailable", zap.String("device", deviceID), zap.Error(err))
			return
		}
		u, err := bridge.ParseDiskUsage(res.Stdout)
		if err != nil {
			s.logger.Warn("unreadable storage usage", zap.String("device", deviceID), zap.Error(err))
			return
		}
		usage = u
	}()

	go func() {
		defer wg.Done()
		res, err := s.runner.Run(ctx, bridge.Command{Device: deviceID, Args: []string{"shell", "dumpsys", "battery"}})
		if err != nil {
			s.logger.Warn("battery level unavailable", zap.String("device", deviceID), zap.Error(err))
			return
		}
		level, err := bridge.ParseBatteryLevel(res.Stdout)
		if err != nil {
			s.logger.Warn("unreadable battery level", zap.String("device", deviceID), zap.Error(err))
			return
		}
		battery = level
	}()

	wg.Wait()
	return models.DeviceSnapshot{
		DisplayName:        name,
		StorageTotalGB:     usage.TotalGB,
		StorageUsedGB:      usage.UsedGB,
		StorageAvailableGB: usage.AvailableGB,
		BatteryPercent:     battery,
	}
}
