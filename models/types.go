package models

import "time"

// Category selects which content-provider table a media query reads and
// which fields its rows carry.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryDocument Category = "document"
)

// HasDimensions reports whether rows of this category carry width/height.
func (c Category) HasDimensions() bool {
	return c == CategoryImage || c == CategoryVideo
}

// DocumentKind narrows a document query to a family of file extensions.
type DocumentKind string

const (
	KindDocument DocumentKind = "document"
	KindAPK      DocumentKind = "apk"
	KindZip      DocumentKind = "zip"
)

type Dimensions struct {
	Width  int
	Height int
}

// MediaEntry is one row of a content-provider query.
type MediaEntry struct {
	ID          int64
	Path        string
	DisplayName string
	MimeType    string
	SizeBytes   int64
	DateAdded   int64
	Dimensions  *Dimensions // image and video rows only
	ParentDir   string
}

type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// DirectoryEntry is one row of a long-format directory listing.
type DirectoryEntry struct {
	Type         EntryType
	Permissions  string
	SizeBytes    int64
	ModifiedUnix int64
	Name         string
	FullPath     string
	ParentDir    string
	MimeType     string
}

func (e DirectoryEntry) IsDir() bool {
	return e.Type == EntryDirectory
}

// DeviceSnapshot is recomputed on every request and never stored.
type DeviceSnapshot struct {
	DisplayName        string
	StorageTotalGB     float64
	StorageUsedGB      float64
	StorageAvailableGB float64
	BatteryPercent     int
}

type DeviceList struct {
	Connected bool
	DeviceIDs []string
}

type TransferDirection string

const (
	DirectionPull   TransferDirection = "pull"
	DirectionPush   TransferDirection = "push"
	DirectionDelete TransferDirection = "delete"
)

type TransferStatus string

const (
	StatusOK     TransferStatus = "ok"
	StatusCached TransferStatus = "cached"
	StatusFailed TransferStatus = "failed"
)

// TransferRecord is one row of the transfer ledger.
type TransferRecord struct {
	ID         int64
	DeviceID   string
	Direction  TransferDirection
	RemotePath string
	LocalPath  string
	SizeBytes  int64
	Status     TransferStatus
	Detail     string
	CreatedAt  time.Time
}
