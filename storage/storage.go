// Package storage lays out the local cache of files pulled from devices.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/models"
)

const uploadsDir = ".uploads"

// ErrInvalidName is returned for names that cannot be used as a path component.
var ErrInvalidName = errors.New("invalid file name")

// Storage is rooted at Root:
//
//	<root>/<device>/<category>/<remote hash>/<file name>
//	<root>/.uploads/<random>/<file name>
type Storage struct {
	Root string
}

func New(root string) *Storage {
	return &Storage{Root: root}
}

// Ensure creates the root directory.
func (s *Storage) Ensure() error {
	return os.MkdirAll(s.Root, 0o755)
}

// LocalPath returns where the device file remotePath is cached. Every
// component is reduced to a single safe path element. Files sharing a name in
// different device directories get different hash directories.
func (s *Storage) LocalPath(deviceID, category, remotePath, fileName string) (string, error) {
	dev, err := component(deviceDirName(deviceID))
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}
	cat, err := component(category)
	if err != nil {
		return "", fmt.Errorf("category: %w", err)
	}
	name, err := component(fileName)
	if err != nil {
		return "", fmt.Errorf("file name: %w", err)
	}
	return filepath.Join(s.Root, dev, cat, RemoteKey(remotePath), name), nil
}

// RemoteKey is the first 8 hex characters of the sha256 of remotePath.
func RemoteKey(remotePath string) string {
	sum := sha256.Sum256([]byte(remotePath))
	return hex.EncodeToString(sum[:4])
}

// UploadPath returns a fresh staging path for an upload named fileName. The
// base name is kept so the device copy gets the same name.
func (s *Storage) UploadPath(fileName string) (string, error) {
	name, err := component(fileName)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, uploadsDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ListCached describes every cached file for deviceID. A device with no cache
// yields an empty list.
func (s *Storage) ListCached(deviceID string) ([]models.DirectoryEntry, error) {
	dev, err := component(deviceDirName(deviceID))
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	base := filepath.Join(s.Root, dev)

	entries := []models.DirectoryEntry{}
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == base {
				return filepath.SkipDir
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != base {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, describe(path, info))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func describe(path string, info os.FileInfo) models.DirectoryEntry {
	dir := filepath.Dir(path) + string(filepath.Separator)
	return models.DirectoryEntry{
		Type:         models.EntryFile,
		Permissions:  FormatFileMode(info.Mode())[1:],
		SizeBytes:    info.Size(),
		ModifiedUnix: info.ModTime().Unix(),
		Name:         info.Name(),
		FullPath:     path,
		ParentDir:    dir,
		MimeType:     bridge.MimeType(info.Name()),
	}
}

// FormatFileMode renders mode the way `ls -l` does: a type character followed
// by nine permission characters.
func FormatFileMode(mode os.FileMode) string {
	var b strings.Builder
	switch {
	case mode&os.ModeDir != 0:
		b.WriteByte('d')
	case mode&os.ModeSymlink != 0:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}

	const rwx = "rwx"
	perm := mode & os.ModePerm
	for i := 8; i >= 0; i-- {
		if perm&(1<<uint(i)) != 0 {
			b.WriteByte(rwx[(8-i)%3])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// deviceDirName keeps serials like "192.168.1.5:5555" usable as directory names.
func deviceDirName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func component(s string) (string, error) {
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return s, nil
}
