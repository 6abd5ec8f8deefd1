package bridge

import (
	"testing"
	"time"

	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		token string
		want  int64
	}{
		{"0", 0},
		{"512", 512},
		{"512B", 512},
		{"12.5K", 12800},
		{"3.4k", 3482},
		{"1M", 1048576},
		{"2.5MB", 2621440},
		{"4.0G", 4294967296},
		{"1g", 1073741824},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ParseSize(tt.token); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.token, got, tt.want)
			}
		})
	}
}

const sampleListing = `total 48
drwxrwx--x 3 root sdcard_rw 3.4K 2024-01-15 10:30 DCIM
-rw-rw---- 1 root sdcard_rw  12M 2024-01-15 10:31 My Video.mp4
this line is not an entry
-rw-rw---- 1 u0_a123 sdcard_rw 12.5K 2024-02-01 08:05 notes.txt
lrwxrwxrwx 1 root root 21 2024-01-01 00:00 sdcard -> /storage/self/primary
-rw-rw---- 1 root sdcard_rw 1M 2024-13-45 99:99 broken-date.bin
`

func TestParseListing(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	entries := ParseListing(sampleListing, "/sdcard", zap.New(core))

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4: %+v", len(entries), entries)
	}

	dcim := entries[0]
	if dcim.Type != models.EntryDirectory || !dcim.IsDir() {
		t.Errorf("DCIM type = %q, want directory", dcim.Type)
	}
	if dcim.MimeType != MimeDirectory {
		t.Errorf("DCIM mime = %q, want %q", dcim.MimeType, MimeDirectory)
	}
	if dcim.Permissions != "rwxrwx--x" {
		t.Errorf("DCIM permissions = %q", dcim.Permissions)
	}
	if dcim.SizeBytes != 3482 {
		t.Errorf("DCIM size = %d, want 3482", dcim.SizeBytes)
	}
	wantTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local).Unix()
	if dcim.ModifiedUnix != wantTime {
		t.Errorf("DCIM modified = %d, want %d", dcim.ModifiedUnix, wantTime)
	}

	video := entries[1]
	if video.Name != "My Video.mp4" {
		t.Errorf("name = %q, want name with spaces kept", video.Name)
	}
	if video.FullPath != "/sdcard/My Video.mp4" || video.ParentDir != "/sdcard/" {
		t.Errorf("paths = %q / %q", video.FullPath, video.ParentDir)
	}
	if video.SizeBytes != 12*1024*1024 {
		t.Errorf("size = %d", video.SizeBytes)
	}
	if video.MimeType != "video/mp4" {
		t.Errorf("mime = %q", video.MimeType)
	}

	if entries[2].SizeBytes != 12800 || entries[2].MimeType != "text/plain" {
		t.Errorf("notes.txt = %+v", entries[2])
	}

	broken := entries[3]
	if broken.ModifiedUnix != 0 {
		t.Errorf("unparseable date should give 0, got %d", broken.ModifiedUnix)
	}

	for _, e := range entries {
		if e.ParentDir+e.Name != e.FullPath {
			t.Errorf("%q + %q != %q", e.ParentDir, e.Name, e.FullPath)
		}
	}

	if n := logs.FilterMessage("skipping unparseable listing line").Len(); n != 2 {
		t.Errorf("got %d warnings, want 2", n)
	}
	if n := logs.FilterMessage("skipping listing header").Len(); n != 1 {
		t.Errorf("got %d header debug lines, want 1", n)
	}
}

func TestParseListingMalformedOnly(t *testing.T) {
	entries := ParseListing("garbage\n\nmore garbage\n", "/", nil)
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

func TestNormalizeDir(t *testing.T) {
	tests := map[string]string{
		"/sdcard":    "/sdcard/",
		"/sdcard/":   "/sdcard/",
		"/sdcard//":  "/sdcard/",
		"/":          "/",
		"":           "/",
		"/a/b c/d":   "/a/b c/d/",
	}
	for in, want := range tests {
		if got := NormalizeDir(in); got != want {
			t.Errorf("NormalizeDir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":   "image/jpeg",
		"clip.mp4":    "video/mp4",
		"app.apk":     "application/vnd.android.package-archive",
		"README":      MimeUnknown,
		"archive.zzq": MimeUnknown,
	}
	for name, want := range tests {
		if got := MimeType(name); got != want {
			t.Errorf("MimeType(%q) = %q, want %q", name, got, want)
		}
	}
}
