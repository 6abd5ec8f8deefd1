package bridge

import (
	"path"
	"strings"
	"testing"

	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const imageDump = `Row: 0 _id=101, _data=/storage/emulated/0/DCIM/Camera/IMG_1.jpg, mime_type=image/jpeg, _size=204800, _display_name=IMG_1.jpg, width=4000, height=3000, date_added=1705312200
Row: 1 _id=102, _data=/storage/emulated/0/Pictures/Screenshots/shot.png, mime_type=image/png, _size=1024, _display_name=NULL, width=1080, height=2400, date_added=1705312300
Row: 2 _id=103, _data=/storage/emulated/0/Download/cat picture.webp, mime_type=image/webp, _size=99, _display_name=cat picture.webp, width=640, height=480, date_added=1705312400
`

func TestParseRowsImages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	entries := ParseRows(imageDump, models.CategoryImage, zap.New(core))

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	first := entries[0]
	if first.ID != 101 || first.SizeBytes != 204800 || first.DateAdded != 1705312200 {
		t.Errorf("first = %+v", first)
	}
	if first.Dimensions == nil || first.Dimensions.Width != 4000 || first.Dimensions.Height != 3000 {
		t.Errorf("first dimensions = %+v", first.Dimensions)
	}

	nameless := entries[1]
	if nameless.DisplayName != "shot.png" {
		t.Errorf("NULL display name resolved to %q, want shot.png", nameless.DisplayName)
	}
	if nameless.DisplayName != path.Base(nameless.Path) {
		t.Errorf("display name %q is not the basename of %q", nameless.DisplayName, nameless.Path)
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.ParentDir, "/") || strings.HasSuffix(e.ParentDir, "//") {
			t.Errorf("parent dir %q must end in exactly one slash", e.ParentDir)
		}
		if !strings.HasPrefix(e.Path, e.ParentDir) {
			t.Errorf("parent dir %q is not a prefix of %q", e.ParentDir, e.Path)
		}
		if e.ParentDir+path.Base(e.Path) != e.Path {
			t.Errorf("%q does not rebuild %q", e.ParentDir, e.Path)
		}
		if e.Dimensions == nil {
			t.Errorf("%s: missing dimensions", e.Path)
		}
	}

	counted := logs.FilterMessage("parsed content rows").All()
	if len(counted) != 1 || counted[0].ContextMap()["count"] != int64(3) {
		t.Errorf("count log = %+v", counted)
	}
}

func TestParseRowsParentDirKeepsPath(t *testing.T) {
	tests := []struct {
		data, parent, name string
	}{
		{"/sdcard//DCIM/a.jpg", "/sdcard//DCIM/", "a.jpg"},
		{"/a.jpg", "/", "a.jpg"},
		{"relative.jpg", "/", "relative.jpg"},
	}
	for _, tt := range tests {
		dump := "Row: 0 _id=1, _data=" + tt.data + ", mime_type=image/jpeg, _size=1, _display_name=NULL, width=1, height=1, date_added=1\n"
		entries := ParseRows(dump, models.CategoryImage, zap.NewNop())
		if len(entries) != 1 {
			t.Fatalf("%s: got %d entries", tt.data, len(entries))
		}
		e := entries[0]
		if e.ParentDir != tt.parent || e.DisplayName != tt.name {
			t.Errorf("%s: parent %q name %q, want %q %q", tt.data, e.ParentDir, e.DisplayName, tt.parent, tt.name)
		}
		if strings.HasPrefix(tt.data, "/") && e.ParentDir+e.DisplayName != e.Path {
			t.Errorf("%q + %q does not rebuild %q", e.ParentDir, e.DisplayName, e.Path)
		}
	}
}

func TestParseRowsSkipsMalformed(t *testing.T) {
	raw := `Row: 0 _id=abc, _data=/sdcard/a.jpg, mime_type=image/jpeg, _size=1, _display_name=a.jpg, width=1, height=1, date_added=1
Row: 1 _id=2, _data=/sdcard/b.jpg, mime_type=image/jpeg, _size=big, _display_name=b.jpg, width=1, height=1, date_added=1
Row: 2 _id=3, _data=/sdcard/c.jpg, mime_type=image/jpeg, _size=10, _display_name=c.jpg, width=wide, height=1, date_added=1
No result found.
Row: 3 _id=4, _data=/sdcard/d.jpg, mime_type=NULL, _size=10, _display_name=d.jpg, width=NULL, height=NULL, date_added=NULL
`
	core, logs := observer.New(zapcore.WarnLevel)
	entries := ParseRows(raw, models.CategoryVideo, zap.New(core))

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(entries), entries)
	}
	e := entries[0]
	if e.ID != 4 || e.MimeType != MimeUnknown || e.DateAdded != 0 || e.Dimensions != nil {
		t.Errorf("entry = %+v", e)
	}
	if n := logs.FilterMessage("skipping malformed row").Len(); n != 3 {
		t.Errorf("malformed warnings = %d, want 3", n)
	}
	if n := logs.FilterMessage("skipping unmatched row").Len(); n != 1 {
		t.Errorf("unmatched warnings = %d, want 1", n)
	}
}

func TestParseRowsAudioLayout(t *testing.T) {
	raw := "Row: 0 _id=7, _data=/sdcard/Music/song.mp3, mime_type=audio/mpeg, _size=3145728, _display_name=song.mp3, date_added=1700000000\n" +
		// an image-shaped row does not fit the audio layout
		"Row: 1 _id=8, _data=/sdcard/x.jpg, mime_type=image/jpeg, _size=1, _display_name=x.jpg, width=1, height=1, date_added=1\n"

	entries := ParseRows(raw, models.CategoryAudio, nil)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Path != "/sdcard/Music/song.mp3" || e.ParentDir != "/sdcard/Music/" || e.Dimensions != nil {
		t.Errorf("entry = %+v", e)
	}
}

func TestProjection(t *testing.T) {
	if got := Projection(models.CategoryImage); got != "_id:_data:mime_type:_size:_display_name:width:height:date_added" {
		t.Errorf("image projection = %q", got)
	}
	if got := Projection(models.CategoryDocument); got != "_id:_data:mime_type:_size:_display_name:date_added" {
		t.Errorf("document projection = %q", got)
	}
}
