// Package metadata extracts sidecar metadata from media files. Extraction
// is strictly best-effort: files with no metadata, truncated headers, or
// unparseable containers yield nil and are cataloged without a sidecar.
package metadata

import (
	"encoding/json"

	"shoebox/internal/box"
)

// Extractor implements box.MetadataExtractor for photos and videos.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the file's metadata as a JSON object of string fields,
// or nil when nothing could be extracted.
func (e *Extractor) Extract(path string, mediaType box.MediaType) []byte {
	var fields map[string]string
	switch mediaType {
	case box.MediaPhoto:
		fields = exifFields(path)
	case box.MediaVideo:
		fields = videoFields(path)
	}
	if len(fields) == 0 {
		return nil
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return data
}

// Compile-time check that Extractor implements box.MetadataExtractor
var _ box.MetadataExtractor = (*Extractor)(nil)
