package box

// MetadataExtractor pulls descriptive metadata out of a media file for the
// catalog sidecar. Extraction is best-effort: a file that cannot be parsed
// yields nil rather than an error, and never blocks an import.
type MetadataExtractor interface {
	// Extract returns sidecar JSON for the file at path, or nil when the
	// file carries no extractable metadata.
	Extract(path string, mediaType MediaType) []byte
}
