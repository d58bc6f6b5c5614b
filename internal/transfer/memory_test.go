package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"shoebox/internal/transfer"
)

func TestMemoryTransfer_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("stores content under the key", func(t *testing.T) {
		tr := transfer.NewMemoryTransfer("backup")

		err := tr.Send(ctx, "pic.jpg", strings.NewReader("image bytes"), 11)
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		got, ok := tr.Object("pic.jpg")
		if !ok {
			t.Fatal("Object() not found after Send()")
		}
		if !bytes.Equal(got, []byte("image bytes")) {
			t.Errorf("Object() = %q, want %q", got, "image bytes")
		}
		if tr.Len() != 1 {
			t.Errorf("Len() = %d, want 1", tr.Len())
		}
	})

	t.Run("rejects a size mismatch", func(t *testing.T) {
		tr := transfer.NewMemoryTransfer("backup")

		err := tr.Send(ctx, "pic.jpg", strings.NewReader("short"), 9999)
		if err == nil {
			t.Fatal("Send() error = nil, want error for size mismatch")
		}
		if _, ok := tr.Object("pic.jpg"); ok {
			t.Error("Object() found after failed Send()")
		}
	})

	t.Run("returns the configured error", func(t *testing.T) {
		tr := transfer.NewMemoryTransfer("backup")
		want := errors.New("connection reset")
		tr.FailWith("pic.jpg", want)

		err := tr.Send(ctx, "pic.jpg", strings.NewReader("image"), 5)
		if !errors.Is(err, want) {
			t.Errorf("Send() error = %v, want %v", err, want)
		}

		// Other keys are unaffected.
		if err := tr.Send(ctx, "other.jpg", strings.NewReader("image"), 5); err != nil {
			t.Errorf("Send(other.jpg) error = %v", err)
		}
	})

	t.Run("honors a canceled context", func(t *testing.T) {
		tr := transfer.NewMemoryTransfer("backup")
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		err := tr.Send(canceled, "pic.jpg", strings.NewReader("image"), 5)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Send() error = %v, want context.Canceled", err)
		}
	})
}
