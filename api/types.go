package api

import (
	"strconv"
	"time"

	"github.com/nrtkbb/adbfm/models"
)

// MediaItem is one content-query row as the UI expects it.
type MediaItem struct {
	ID          int64  `json:"_id"`
	Data        string `json:"_data"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"_size"`
	DisplayName string `json:"_display_name"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
	DateAdded   int64  `json:"date_added"`
	Path        string `json:"path"`
}

// FileItem is one directory-listing row. DateAdded is epoch seconds as a string.
type FileItem struct {
	Data        string `json:"_data"`
	DisplayName string `json:"_display_name"`
	Size        int64  `json:"_size"`
	DateAdded   string `json:"date_added"`
	MimeType    string `json:"mime_type"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Permissions string `json:"permissions"`
}

// DeviceStatus is the body of /api/get_device.
type DeviceStatus struct {
	Connected bool     `json:"connected"`
	Devices   []string `json:"devices"`
}

// DeviceInfo is the body of /api/device_info.
type DeviceInfo struct {
	CoverImg             string  `json:"cover_img"`
	PhoneName            string  `json:"phone_name"`
	StorageTotalSize     float64 `json:"storage_total_size"`
	StorageUseSize       float64 `json:"storage_use_size"`
	StorageAvailableSize float64 `json:"storage_available_size"`
	BatteryUse           int     `json:"battery_use"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
	PhoneDir string `json:"phonedir"`
}

type DeleteResponse struct {
	Deleted string `json:"deleted"`
}

type StorageDirResponse struct {
	StorageDir string `json:"storage_dir"`
}

// TransferItem is one ledger row.
type TransferItem struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"device_id"`
	Direction  string    `json:"direction"`
	RemotePath string    `json:"remote_path"`
	LocalPath  string    `json:"local_path,omitempty"`
	Size       int64     `json:"size"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMediaItems converts content rows; the result is never nil.
func NewMediaItems(entries []models.MediaEntry) []MediaItem {
	items := make([]MediaItem, 0, len(entries))
	for _, e := range entries {
		item := MediaItem{
			ID:          e.ID,
			Data:        e.Path,
			MimeType:    e.MimeType,
			Size:        e.SizeBytes,
			DisplayName: e.DisplayName,
			DateAdded:   e.DateAdded,
			Path:        e.ParentDir,
		}
		if e.Dimensions != nil {
			w, h := e.Dimensions.Width, e.Dimensions.Height
			item.Width, item.Height = &w, &h
		}
		items = append(items, item)
	}
	return items
}

// NewFileItems converts listing rows; the result is never nil.
func NewFileItems(entries []models.DirectoryEntry) []FileItem {
	items := make([]FileItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, FileItem{
			Data:        e.FullPath,
			DisplayName: e.Name,
			Size:        e.SizeBytes,
			DateAdded:   strconv.FormatInt(e.ModifiedUnix, 10),
			MimeType:    e.MimeType,
			Path:        e.ParentDir,
			Type:        string(e.Type),
			Permissions: e.Permissions,
		})
	}
	return items
}

func NewTransferItems(records []models.TransferRecord) []TransferItem {
	items := make([]TransferItem, 0, len(records))
	for _, r := range records {
		items = append(items, TransferItem{
			ID:         r.ID,
			DeviceID:   r.DeviceID,
			Direction:  string(r.Direction),
			RemotePath: r.RemotePath,
			LocalPath:  r.LocalPath,
			Size:       r.SizeBytes,
			Status:     string(r.Status),
			Detail:     r.Detail,
			CreatedAt:  r.CreatedAt,
		})
	}
	return items
}
