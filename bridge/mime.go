package bridge

import (
	"mime"
	"path"
	"strings"
)

const (
	MimeDirectory = "inode/directory"
	MimeUnknown   = "application/octet-stream"
)

// Common device file types. The host MIME registry varies by OS, so the
// types the file manager previews are pinned here.
var knownTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".bmp":  "image/bmp",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".3gp":  "video/3gpp",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".amr":  "audio/amr",
	".txt":  "text/plain",
	".log":  "text/plain",
	".pdf":  "application/pdf",
	".apk":  "application/vnd.android.package-archive",
	".zip":  "application/zip",
}

// MimeType guesses a content type from the extension of name.
func MimeType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return MimeUnknown
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return MimeUnknown
}
