package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPath(t *testing.T) {
	s := New("/cache")
	tests := []struct {
		device, category, remote, name string
		want                           string
	}{
		{"ABCD1234", "image", "/sdcard/DCIM/a.jpg", "a.jpg", filepath.Join("/cache", "ABCD1234", "image", RemoteKey("/sdcard/DCIM/a.jpg"), "a.jpg")},
		{"192.168.1.5:5555", "video", "/sdcard/clip.mp4", "clip.mp4", filepath.Join("/cache", "192.168.1.5_5555", "video", RemoteKey("/sdcard/clip.mp4"), "clip.mp4")},
		{"S", "image", "/x", "../../etc/passwd", filepath.Join("/cache", "S", "image", RemoteKey("/x"), "passwd")},
		{"S", "../image", "/y", "a b.jpg", filepath.Join("/cache", "S", "image", RemoteKey("/y"), "a b.jpg")},
	}
	for _, tt := range tests {
		got, err := s.LocalPath(tt.device, tt.category, tt.remote, tt.name)
		if err != nil {
			t.Errorf("LocalPath(%q, %q, %q, %q): %v", tt.device, tt.category, tt.remote, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LocalPath(%q, %q, %q, %q) = %q, want %q", tt.device, tt.category, tt.remote, tt.name, got, tt.want)
		}
	}

	for _, name := range []string{"", "..", "dir/"} {
		if _, err := s.LocalPath("S", "image", "/sdcard/a.jpg", name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("LocalPath with name %q: err = %v", name, err)
		}
	}
}

func TestLocalPathSeparatesDirectories(t *testing.T) {
	s := New("/cache")
	a, err := s.LocalPath("S", "image", "/sdcard/DCIM/a.jpg", "a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.LocalPath("S", "image", "/sdcard/Download/a.jpg", "a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("same name in two device directories shares %q", a)
	}
	if filepath.Base(a) != "a.jpg" || filepath.Base(b) != "a.jpg" {
		t.Errorf("file names not kept: %q, %q", a, b)
	}
	if len(RemoteKey("/sdcard/DCIM/a.jpg")) != 8 {
		t.Errorf("key = %q", RemoteKey("/sdcard/DCIM/a.jpg"))
	}
}

func TestUploadPath(t *testing.T) {
	s := New(t.TempDir())
	a, err := s.UploadPath("photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.UploadPath("photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("upload paths should be unique")
	}
	if filepath.Base(a) != "photo.jpg" {
		t.Errorf("base = %q", filepath.Base(a))
	}
	if info, err := os.Stat(filepath.Dir(a)); err != nil || !info.IsDir() {
		t.Errorf("staging dir not created: %v", err)
	}
}

func TestListCached(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	if got, err := s.ListCached("S"); err != nil || len(got) != 0 {
		t.Fatalf("empty cache = %+v, %v", got, err)
	}

	write := func(rel, content string) {
		t.Helper()
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o640); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(p, 0o640); err != nil {
			t.Fatal(err)
		}
	}
	write("S/image/a.jpg", "abc")
	write("S/audio/b.mp3", "abcdef")
	write("S/image/.hidden", "x")
	write("OTHER/image/c.jpg", "x")

	got, err := s.ListCached("S")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %+v", got)
	}
	byName := map[string]int64{}
	for _, e := range got {
		byName[e.Name] = e.SizeBytes
		if !strings.HasPrefix(e.FullPath, e.ParentDir) || e.Permissions != "rw-r-----" {
			t.Errorf("entry = %+v", e)
		}
	}
	if byName["a.jpg"] != 3 || byName["b.mp3"] != 6 {
		t.Errorf("sizes = %v", byName)
	}
}

func TestFormatFileMode(t *testing.T) {
	tests := []struct {
		mode os.FileMode
		want string
	}{
		{0o644, "-rw-r--r--"},
		{0o755 | os.ModeDir, "drwxr-xr-x"},
		{0o777 | os.ModeSymlink, "lrwxrwxrwx"},
		{0, "----------"},
	}
	for _, tt := range tests {
		if got := FormatFileMode(tt.mode); got != tt.want {
			t.Errorf("FormatFileMode(%v) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
