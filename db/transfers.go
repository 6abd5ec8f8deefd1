package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nrtkbb/adbfm/models"
)

const DefaultListLimit = 100

// Ledger records pulls, pushes and deletes. It is history only and is never
// consulted to decide whether a file exists.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) RecordTransfer(ctx context.Context, rec models.TransferRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transfers (
			device_id, direction, remote_path, local_path,
			size_bytes, status, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.DeviceID, string(rec.Direction), rec.RemotePath, rec.LocalPath,
		rec.SizeBytes, string(rec.Status), rec.Detail, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

// ListTransfers returns the newest records first. An empty deviceID lists all
// devices; limit <= 0 means DefaultListLimit.
func (l *Ledger) ListTransfers(ctx context.Context, deviceID string, limit int) ([]models.TransferRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT transfer_id, device_id, direction, remote_path, local_path,
			size_bytes, status, detail, created_at
		FROM transfers
		WHERE (? = '' OR device_id = ?)
		ORDER BY created_at DESC, transfer_id DESC
		LIMIT ?
	`, deviceID, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	records := []models.TransferRecord{}
	for rows.Next() {
		var (
			rec       models.TransferRecord
			direction string
			status    string
			created   int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.DeviceID, &direction, &rec.RemotePath, &rec.LocalPath,
			&rec.SizeBytes, &status, &rec.Detail, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to read transfer: %w", err)
		}
		rec.Direction = models.TransferDirection(direction)
		rec.Status = models.TransferStatus(status)
		rec.CreatedAt = time.Unix(created, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transfers: %w", err)
	}
	return records, nil
}
