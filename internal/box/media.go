package box

import (
	"path/filepath"
	"strings"
)

// MediaType classifies catalog entries by filename extension.
type MediaType string

const (
	// MediaNone marks files the catalog does not manage.
	MediaNone  MediaType = ""
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// mediaExtensions maps lowercased filename extensions to media types.
// Classification is by name only; file content is never inspected.
var mediaExtensions = map[string]MediaType{
	".jpg":  MediaPhoto,
	".jpeg": MediaPhoto,
	".png":  MediaPhoto,
	".gif":  MediaPhoto,
	".bmp":  MediaPhoto,
	".tiff": MediaPhoto,
	".webp": MediaPhoto,
	".mp4":  MediaVideo,
	".mov":  MediaVideo,
	".avi":  MediaVideo,
	".mkv":  MediaVideo,
	".webm": MediaVideo,
	".flv":  MediaVideo,
}

// MediaTypeOf classifies a filename by its extension, case-insensitively.
// Unknown extensions and files without one map to MediaNone.
func MediaTypeOf(name string) MediaType {
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}
