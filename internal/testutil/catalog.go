package testutil

import (
	"testing"

	"shoebox/internal/box"
	"shoebox/internal/catalog"
)

// NewTestCatalog creates an in-memory catalog with the schema applied.
// The catalog is automatically closed when the test completes.
func NewTestCatalog(t *testing.T) box.Catalog {
	t.Helper()

	c, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
	})

	return c
}
