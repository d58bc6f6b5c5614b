package metadata

import (
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifFields decodes the EXIF block of a photo into a flat field map.
// Photos without EXIF data (PNGs, stripped JPEGs) yield nil.
func exifFields(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}

	fields := make(fieldCollector)
	if err := x.Walk(fields); err != nil {
		return nil
	}
	return fields
}

// fieldCollector gathers EXIF tags during an exif.Walk.
type fieldCollector map[string]string

func (c fieldCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	// ASCII tag values come back quoted.
	c[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}
