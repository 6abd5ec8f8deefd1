package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nrtkbb/adbfm/models"
)

func setupLedger(t *testing.T) *Ledger {
	t.Helper()
	conn, err := SetupDatabase(filepath.Join(t.TempDir(), "nested", "transfers.db"), nil)
	if err != nil {
		t.Fatalf("SetupDatabase: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewLedger(conn)
}

func TestLedgerRecordAndList(t *testing.T) {
	ctx := context.Background()
	ledger := setupLedger(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.TransferRecord{
		{DeviceID: "A", Direction: models.DirectionPull, RemotePath: "/sdcard/a.jpg", LocalPath: "storage/A/image/a.jpg", SizeBytes: 10, Status: models.StatusOK, CreatedAt: base},
		{DeviceID: "B", Direction: models.DirectionPush, RemotePath: "/sdcard/Music/b.mp3", SizeBytes: 20, Status: models.StatusOK, CreatedAt: base.Add(time.Minute)},
		{DeviceID: "A", Direction: models.DirectionDelete, RemotePath: "/sdcard/c.txt", Status: models.StatusFailed, Detail: "rm: Permission denied", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := ledger.RecordTransfer(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := ledger.ListTransfers(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].RemotePath != "/sdcard/c.txt" {
		t.Fatalf("all = %+v", all)
	}

	onlyA, err := ledger.ListTransfers(ctx, "A", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("device A = %+v", onlyA)
	}
	latest := onlyA[0]
	if latest.Direction != models.DirectionDelete || latest.Status != models.StatusFailed || latest.Detail != "rm: Permission denied" {
		t.Errorf("latest = %+v", latest)
	}
	if !latest.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created at = %s", latest.CreatedAt)
	}
	if latest.ID == 0 {
		t.Error("id not populated")
	}

	limited, err := ledger.ListTransfers(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d rows", len(limited))
	}
}

func TestLedgerRejectsUnknownDirection(t *testing.T) {
	ledger := setupLedger(t)
	err := ledger.RecordTransfer(context.Background(), models.TransferRecord{
		DeviceID: "A", Direction: "sideways", RemotePath: "/x", Status: models.StatusOK,
	})
	if err == nil {
		t.Fatal("expected the check constraint to reject the row")
	}
}

func TestSetupDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfers.db")
	for i := 0; i < 2; i++ {
		conn, err := SetupDatabase(path, nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if NeedsMigration(conn) {
			t.Errorf("open %d: schema missing", i)
		}
		conn.Close()
	}
}
