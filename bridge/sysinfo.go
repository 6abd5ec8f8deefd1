package bridge

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nrtkbb/adbfm/models"
)

var batteryLevel = regexp.MustCompile(`level:\s*(\d+)`)

// DiskUsage is one filesystem line of `df`, in GB.
type DiskUsage struct {
	TotalGB     float64
	UsedGB      float64
	AvailableGB float64
}

// ParseDeviceList reads `adb devices` output. The first line is the
// "List of devices attached" header; only entries in the "device" state count
// as connected ("offline" and "unauthorized" do not).
func ParseDeviceList(raw string) models.DeviceList {
	list := models.DeviceList{DeviceIDs: []string{}}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[len(fields)-1] != "device" {
			continue
		}
		list.DeviceIDs = append(list.DeviceIDs, fields[0])
	}
	list.Connected = len(list.DeviceIDs) > 0
	return list
}

// ParseDiskUsage reads `df` output and reports the last filesystem line.
// Sizes are 1K blocks.
func ParseDiskUsage(raw string) (DiskUsage, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return DiskUsage{}, errors.New("df: no filesystem line")
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 5 {
		return DiskUsage{}, fmt.Errorf("df: short line %q", lines[len(lines)-1])
	}

	var kb [2]int64
	for i := range kb {
		v, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			return DiskUsage{}, fmt.Errorf("df: column %d: %w", i+2, err)
		}
		kb[i] = v
	}
	// Some df builds print "-" for Available; only total and used are required.
	avail, _ := strconv.ParseInt(fields[3], 10, 64)
	return DiskUsage{
		TotalGB:     kbToGB(kb[0]),
		UsedGB:      kbToGB(kb[1]),
		AvailableGB: kbToGB(avail),
	}, nil
}

func kbToGB(kb int64) float64 {
	return math.Round(float64(kb)/(1024*1024)*100) / 100
}

// ParseBatteryLevel extracts the percentage from `dumpsys battery`.
func ParseBatteryLevel(raw string) (int, error) {
	m := batteryLevel.FindStringSubmatch(raw)
	if m == nil {
		return 0, errors.New("dumpsys battery: no level line")
	}
	return strconv.Atoi(m[1])
}
