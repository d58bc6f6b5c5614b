package transfer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shoebox/internal/transfer"
)

func TestFileSystemTransfer_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("writes content into the target directory", func(t *testing.T) {
		root := t.TempDir()
		tr, err := transfer.NewFileSystemTransfer("drive", root)
		if err != nil {
			t.Fatalf("NewFileSystemTransfer() error = %v", err)
		}

		if err := tr.Send(ctx, "pic.jpg", strings.NewReader("image bytes"), 11); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		got, err := os.ReadFile(filepath.Join(root, "pic.jpg"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !bytes.Equal(got, []byte("image bytes")) {
			t.Errorf("stored content = %q, want %q", got, "image bytes")
		}
	})

	t.Run("creates the target directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "drive")

		if _, err := transfer.NewFileSystemTransfer("drive", root); err != nil {
			t.Fatalf("NewFileSystemTransfer() error = %v", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !info.IsDir() {
			t.Error("target root is not a directory")
		}
	})

	t.Run("resending an existing key leaves the file alone", func(t *testing.T) {
		root := t.TempDir()
		tr, err := transfer.NewFileSystemTransfer("drive", root)
		if err != nil {
			t.Fatalf("NewFileSystemTransfer() error = %v", err)
		}

		if err := tr.Send(ctx, "pic.jpg", strings.NewReader("image bytes"), 11); err != nil {
			t.Fatalf("first Send() error = %v", err)
		}
		before, err := os.Stat(filepath.Join(root, "pic.jpg"))
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}

		if err := tr.Send(ctx, "pic.jpg", strings.NewReader("image bytes"), 11); err != nil {
			t.Fatalf("second Send() error = %v", err)
		}
		after, err := os.Stat(filepath.Join(root, "pic.jpg"))
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !after.ModTime().Equal(before.ModTime()) {
			t.Error("existing file was rewritten on resend")
		}
	})

	t.Run("rejects a size mismatch and leaves nothing behind", func(t *testing.T) {
		root := t.TempDir()
		tr, err := transfer.NewFileSystemTransfer("drive", root)
		if err != nil {
			t.Fatalf("NewFileSystemTransfer() error = %v", err)
		}

		if err := tr.Send(ctx, "pic.jpg", strings.NewReader("short"), 9999); err == nil {
			t.Fatal("Send() error = nil, want error for size mismatch")
		}

		if _, err := os.Stat(filepath.Join(root, "pic.jpg")); !os.IsNotExist(err) {
			t.Error("destination exists after failed Send()")
		}
		leftovers, err := filepath.Glob(filepath.Join(root, ".tmp-*"))
		if err != nil {
			t.Fatalf("Glob() error = %v", err)
		}
		if len(leftovers) != 0 {
			t.Errorf("temp files left behind: %v", leftovers)
		}
	})
}
