package metadata

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// videoFields reads container metadata from MP4-family videos. Other
// video containers (AVI, MKV, WebM, FLV) carry no atom metadata the tag
// parser understands and yield nil.
func videoFields(path string) map[string]string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov":
	default:
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}

	fields := map[string]string{
		"Format":   string(m.Format()),
		"FileType": string(m.FileType()),
	}
	if title := m.Title(); title != "" {
		fields["Title"] = title
	}
	if year := m.Year(); year != 0 {
		fields["Year"] = strconv.Itoa(year)
	}
	return fields
}
