package testutil

import (
	"shoebox/internal/box"
)

// StubExtractor returns the same sidecar bytes for every file. The zero
// value extracts nothing, like a media file with no metadata.
type StubExtractor struct {
	Sidecar []byte
}

func (e *StubExtractor) Extract(path string, mediaType box.MediaType) []byte {
	return e.Sidecar
}

// Compile-time check
var _ box.MetadataExtractor = (*StubExtractor)(nil)
