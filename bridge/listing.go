package bridge

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nrtkbb/adbfm/metrics"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

// One `ls -lh` line from toybox:
//
//	drwxrwx--x 3 root sdcard_rw 3.4K 2024-01-15 10:30 DCIM
//	-rw-rw---- 1 root sdcard_rw  12M 2024-01-15 10:31 My Video.mp4
var listingLine = regexp.MustCompile(
	`^([d-])([rwxsStT-]{9})\s+(\d+)\s+(\S+)\s+(\S+)\s+(\d+(?:\.\d+)?[KMGkmg]?B?)\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})\s+(.+)$`,
)

// NormalizeDir makes dir end with exactly one "/".
func NormalizeDir(dir string) string {
	return strings.TrimRight(dir, "/") + "/"
}

// ParseListing turns `ls -lh` output for dirPath into entries, in listing
// order. Lines that do not look like an entry are logged and dropped.
func ParseListing(raw, dirPath string, logger *zap.Logger) []models.DirectoryEntry {
	if logger == nil {
		logger = zap.NewNop()
	}
	dirPath = NormalizeDir(dirPath)

	var entries []models.DirectoryEntry
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := listingLine.FindStringSubmatch(line)
		if m == nil {
			metrics.RecordParseSkip("listing")
			if strings.HasPrefix(line, "total ") {
				logger.Debug("skipping listing header", zap.String("line", line))
			} else {
				logger.Warn("skipping unparseable listing line", zap.String("line", line), zap.String("dir", dirPath))
			}
			continue
		}

		entry := models.DirectoryEntry{
			Type:         models.EntryFile,
			Permissions:  m[2],
			SizeBytes:    ParseSize(m[6]),
			ModifiedUnix: parseListingTime(m[7], m[8]),
			Name:         m[9],
			FullPath:     dirPath + m[9],
			ParentDir:    dirPath,
		}
		if m[1] == "d" {
			entry.Type = models.EntryDirectory
			entry.MimeType = MimeDirectory
		} else {
			entry.MimeType = MimeType(entry.Name)
		}
		entries = append(entries, entry)
	}
	return entries
}

// ParseSize converts a human size such as "12.5K", "1M" or "4.0GB" to bytes.
// Anything unreadable is 0.
func ParseSize(token string) int64 {
	multiplier := 1.0
	upper := strings.ToUpper(strings.TrimSuffix(strings.TrimSuffix(token, "B"), "b"))
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = 1024
	case strings.HasSuffix(upper, "M"):
		multiplier = 1024 * 1024
	case strings.HasSuffix(upper, "G"):
		multiplier = 1024 * 1024 * 1024
	}

	numeric := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, token)
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || value < 0 {
		return 0
	}
	return int64(math.Round(value * multiplier))
}

func parseListingTime(date, clock string) int64 {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", date+"T"+clock+":00", time.Local)
	if err != nil {
		return 0
	}
	return t.Unix()
}
