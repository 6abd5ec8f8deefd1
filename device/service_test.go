package device

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/bridge/bridgetest"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const imageRows = `Row: 0 _id=1, _data=/storage/emulated/0/DCIM/a.jpg, mime_type=image/jpeg, _size=10, _display_name=a.jpg, width=4, height=3, date_added=1700000000
Row: 1 _id=2, _data=/storage/emulated/0/DCIM/b.jpg, mime_type=image/jpeg, _size=20, _display_name=NULL, width=4, height=3, date_added=1700000001
`

func TestListMedia(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("shell content query --uri content://media/external/images/media", bridgetest.Response{Stdout: imageRows})
	svc := NewService(fake, nil, 0)

	entries, err := svc.ListMedia(context.Background(), "SERIAL1", models.CategoryImage)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].DisplayName != "b.jpg" {
		t.Fatalf("entries = %+v", entries)
	}

	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Device != "SERIAL1" {
		t.Fatalf("calls = %+v", calls)
	}
	want := []string{"shell", "content", "query", "--uri", "content://media/external/images/media",
		"--projection", "_id:_data:mime_type:_size:_display_name:width:height:date_added"}
	if !reflect.DeepEqual(calls[0].Args, want) {
		t.Errorf("args = %q", calls[0].Args)
	}
}

func TestListMediaUnsupportedCategory(t *testing.T) {
	fake := bridgetest.NewRunner()
	svc := NewService(fake, nil, 0)

	_, err := svc.ListMedia(context.Background(), "SERIAL1", models.Category("podcast"))
	var uerr *UnsupportedCategoryError
	if !errors.As(err, &uerr) || uerr.Value != "podcast" {
		t.Fatalf("err = %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("no command should run for an unsupported category")
	}
}

func TestListMediaPropagatesProcessError(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("shell content query", bridgetest.Response{ExitCode: 1, Stderr: "error: device 'X' not found"})
	svc := NewService(fake, nil, 0)

	_, err := svc.ListMedia(context.Background(), "X", models.CategoryAudio)
	var perr *bridge.ProcessError
	if !errors.As(err, &perr) || !strings.Contains(perr.Diagnostic(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	rows := `Row: 0 _id=5, _data=/sdcard/Download/report.pdf, mime_type=application/pdf, _size=100, _display_name=report.pdf, date_added=1
Row: 1 _id=6, _data=/sdcard/a.pdf.d/photo.jpg, mime_type=image/jpeg, _size=1, _display_name=photo.jpg, date_added=1
`
	fake := bridgetest.NewRunner().
		On("shell content query --uri content://media/external/file", bridgetest.Response{Stdout: rows})
	svc := NewService(fake, nil, 0)

	docs, err := svc.ListDocuments(context.Background(), "S", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Path != "/sdcard/Download/report.pdf" {
		t.Fatalf("docs = %+v", docs)
	}

	args := fake.Calls()[0].Args
	tail := strings.Join(args[len(args)-4:], " ")
	if tail != `| grep -iE '\.(pdf|doc|docx|xls|xlsx|ppt|pptx|txt|odt|ods|odp)'` {
		t.Errorf("filter = %s", tail)
	}
}

func TestListDocumentsUpperCaseExtension(t *testing.T) {
	rows := `Row: 0 _id=7, _data=/sdcard/Download/REPORT.PDF, mime_type=application/pdf, _size=100, _display_name=REPORT.PDF, date_added=1
`
	fake := bridgetest.NewRunner().
		On("shell content query --uri content://media/external/file", bridgetest.Response{Stdout: rows})
	svc := NewService(fake, nil, 0)

	docs, err := svc.ListDocuments(context.Background(), "S", models.KindDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].DisplayName != "REPORT.PDF" {
		t.Fatalf("docs = %+v", docs)
	}
	args := fake.Calls()[0].Args
	if flag := args[len(args)-2]; flag != "-iE" {
		t.Errorf("device grep flag = %q, want -iE", flag)
	}
}

func TestListDocumentsNoMatches(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("shell content query", bridgetest.Response{ExitCode: 1})
	svc := NewService(fake, nil, 0)

	docs, err := svc.ListDocuments(context.Background(), "S", models.KindAPK)
	if err != nil {
		t.Fatalf("grep finding nothing should not fail: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %#v, want empty slice", docs)
	}
}

func TestListDocumentsUnsupportedKind(t *testing.T) {
	fake := bridgetest.NewRunner()
	svc := NewService(fake, nil, 0)

	_, err := svc.ListDocuments(context.Background(), "S", models.DocumentKind("exe; rm -rf /"))
	var uerr *UnsupportedCategoryError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("no command should run for an unsupported kind")
	}
}

func TestListDirectory(t *testing.T) {
	listing := "total 8\ndrwxrwx--x 2 root sdcard_rw 4.0K 2024-01-15 10:30 Camera\n-rw-rw---- 1 root sdcard_rw 1M 2024-01-15 10:31 it's here.jpg\n"
	fake := bridgetest.NewRunner().On("shell ls -lh", bridgetest.Response{Stdout: listing})
	svc := NewService(fake, nil, 0)

	entries, err := svc.ListDirectory(context.Background(), "S", "/sdcard/DCIM")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[1].FullPath != "/sdcard/DCIM/it's here.jpg" || entries[1].SizeBytes != 1048576 {
		t.Errorf("entry = %+v", entries[1])
	}
	if got := fake.Calls()[0].Args[3]; got != `'/sdcard/DCIM/'` {
		t.Errorf("quoted path = %s", got)
	}

	if _, err := svc.ListDirectory(context.Background(), "S", ""); err != nil {
		t.Fatal(err)
	}
	if got := fake.Calls()[1].Args[3]; got != `'/sdcard/'` {
		t.Errorf("default path = %s", got)
	}
}

func TestListDirectoryPartial(t *testing.T) {
	listing := "-rw-rw---- 1 root sdcard_rw 12 2024-01-15 10:31 ok.txt\n"
	fake := bridgetest.NewRunner().
		On("shell ls -lh", bridgetest.Response{Stdout: listing, Stderr: "ls: secret: Permission denied", ExitCode: 1})
	svc := NewService(fake, nil, 0)

	entries, err := svc.ListDirectory(context.Background(), "S", "/sdcard")
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, err = %v", entries, err)
	}
}

func TestListDirectoryRejectsRelativePath(t *testing.T) {
	fake := bridgetest.NewRunner()
	svc := NewService(fake, nil, 0)

	if _, err := svc.ListDirectory(context.Background(), "S", "sdcard"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("err = %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("no command should run")
	}
}

func TestListConnectedDevices(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.DeviceList
	}{
		{"connected", "List of devices attached\nABCD1234\tdevice\n", models.DeviceList{Connected: true, DeviceIDs: []string{"ABCD1234"}}},
		{"none", "List of devices attached\n", models.DeviceList{Connected: false, DeviceIDs: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := bridgetest.NewRunner().On("devices", bridgetest.Response{Stdout: tt.raw})
			got, err := NewService(fake, nil, 0).ListConnectedDevices(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if fake.Calls()[0].Device != "" {
				t.Error("devices must not target a device")
			}
		})
	}
}

const dfOutput = "Filesystem 1K-blocks Used Available Use% Mounted on\n/dev/block/dm-5 115164944 52428800 62736144 46% /data\n"

func TestGetSnapshot(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("shell getprop ro.product.model", bridgetest.Response{Stdout: "Pixel 7\n"}).
		On("shell df /data", bridgetest.Response{Stdout: dfOutput}).
		On("shell dumpsys battery", bridgetest.Response{Stdout: "  level: 64\n  scale: 100\n"})

	got := NewService(fake, nil, 0).GetSnapshot(context.Background(), "S")
	want := models.DeviceSnapshot{
		DisplayName:        "Pixel 7",
		StorageTotalGB:     109.83,
		StorageUsedGB:      50,
		StorageAvailableGB: 59.83,
		BatteryPercent:     64,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetSnapshotDiskFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fake := bridgetest.NewRunner().
		On("shell getprop ro.product.model", bridgetest.Response{Stdout: "Pixel 7\n"}).
		On("shell df /data", bridgetest.Response{ExitCode: 1, Stderr: "df: /data: Permission denied"}).
		On("shell dumpsys battery", bridgetest.Response{Stdout: "level: 64\n"})

	got := NewService(fake, zap.New(core), 0).GetSnapshot(context.Background(), "S")
	if got.StorageTotalGB != 0 || got.StorageUsedGB != 0 {
		t.Errorf("storage should fall back to zero: %+v", got)
	}
	if got.DisplayName != "Pixel 7" || got.BatteryPercent != 64 {
		t.Errorf("other fields should survive: %+v", got)
	}
	if logs.FilterMessage("storage usage unavailable").Len() != 1 {
		t.Error("the failed sub-query should be logged")
	}
}

func TestGetSnapshotAllFail(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("shell", bridgetest.Response{Err: bridgetest.Timeout("shell")})

	got := NewService(fake, nil, 0).GetSnapshot(context.Background(), "S")
	if got != (models.DeviceSnapshot{}) {
		t.Errorf("got %+v, want zero snapshot", got)
	}
}

func TestScreenshot(t *testing.T) {
	png := "\x89PNG\r\n\x1a\nrest"
	fake := bridgetest.NewRunner().On("exec-out screencap -p", bridgetest.Response{Stdout: png})

	got, err := NewService(fake, nil, 0).Screenshot(context.Background(), "S")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != png {
		t.Errorf("bytes = %q", got)
	}
	if fake.Calls()[0].Timeout != defaultScreenshotTimeout {
		t.Errorf("timeout = %s", fake.Calls()[0].Timeout)
	}
}

func TestScreenshotTimeout(t *testing.T) {
	fake := bridgetest.NewRunner().
		On("exec-out", bridgetest.Response{Err: bridgetest.Timeout("exec-out", "screencap", "-p")})

	_, err := NewService(fake, nil, 0).Screenshot(context.Background(), "S")
	if !errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	fake := bridgetest.NewRunner().On("shell rm -f", bridgetest.Response{})
	svc := NewService(fake, nil, 0)

	if err := svc.DeleteFile(context.Background(), "S", "/sdcard/Download/a b.txt"); err != nil {
		t.Fatal(err)
	}
	if got := fake.Calls()[0].Args[3]; got != `'/sdcard/Download/a b.txt'` {
		t.Errorf("quoted path = %s", got)
	}

	for _, bad := range []string{"", "relative.txt", "/", "/sdcard/a\nb", "/sdcard/.."} {
		if err := svc.DeleteFile(context.Background(), "S", bad); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("DeleteFile(%q) = %v, want ErrInvalidPath", bad, err)
		}
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("invalid paths ran commands: %+v", fake.Calls())
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("Image"); err != nil || c != models.CategoryImage {
		t.Errorf("ParseCategory(Image) = %q, %v", c, err)
	}
	if _, err := ParseCategory("photos"); err == nil {
		t.Error("expected an error")
	}
	if k, err := ParseDocumentKind(""); err != nil || k != models.KindDocument {
		t.Errorf("ParseDocumentKind(\"\") = %q, %v", k, err)
	}
}
