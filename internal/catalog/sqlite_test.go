package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shoebox/internal/box"
)

func openTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()

	cat, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

// testFile builds a managed file whose content ID is derived from content,
// the same way the import engine derives it.
func testFile(name, content string) *box.ManagedFile {
	sum := sha256.Sum256([]byte(content))
	return &box.ManagedFile{
		ContentID:    hex.EncodeToString(sum[:]),
		OriginalName: name,
		StoredName:   name,
		SourcePath:   filepath.Join("/import", name),
		StoredPath:   filepath.Join("/media/shoebox", name),
		SizeBytes:    int64(len(content)),
		MediaType:    box.MediaTypeOf(name),
		AddedAt:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func mustCommit(t *testing.T, cat *SQLiteCatalog, f *box.ManagedFile) {
	t.Helper()

	result, err := cat.Commit(context.Background(), f)
	if err != nil {
		t.Fatalf("Commit(%s) error = %v", f.StoredName, err)
	}
	if result != box.CommitInserted {
		t.Fatalf("Commit(%s) = %v, want CommitInserted", f.StoredName, result)
	}
}

func TestSQLiteCatalog_Commit(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a new file", func(t *testing.T) {
		cat := openTestCatalog(t)
		f := testFile("pic.jpg", "image bytes")
		mustCommit(t, cat, f)

		managed, err := cat.Contains(ctx, f.ContentID)
		if err != nil {
			t.Fatalf("Contains() error = %v", err)
		}
		if !managed {
			t.Error("Contains() = false after commit, want true")
		}

		got, err := cat.FindByContentID(ctx, f.ContentID)
		if err != nil {
			t.Fatalf("FindByContentID() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindByContentID() = nil after commit")
		}
		if got.ContentID != f.ContentID || got.OriginalName != f.OriginalName ||
			got.StoredName != f.StoredName || got.SourcePath != f.SourcePath ||
			got.StoredPath != f.StoredPath || got.SizeBytes != f.SizeBytes ||
			got.MediaType != f.MediaType {
			t.Errorf("FindByContentID() = %+v, want %+v", got, f)
		}
		if !got.AddedAt.Equal(f.AddedAt) {
			t.Errorf("AddedAt = %v, want %v", got.AddedAt, f.AddedAt)
		}
	})

	t.Run("same content id is a duplicate, not an error", func(t *testing.T) {
		cat := openTestCatalog(t)
		first := testFile("first.jpg", "shared bytes")
		mustCommit(t, cat, first)

		second := testFile("second.jpg", "shared bytes")
		result, err := cat.Commit(ctx, second)
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if result != box.CommitDuplicate {
			t.Errorf("Commit() = %v, want CommitDuplicate", result)
		}

		// The first row is untouched.
		got, err := cat.FindByContentID(ctx, first.ContentID)
		if err != nil {
			t.Fatalf("FindByContentID() error = %v", err)
		}
		if got.StoredName != "first.jpg" {
			t.Errorf("StoredName = %q, want first.jpg", got.StoredName)
		}
	})

	t.Run("stored name collision is an error", func(t *testing.T) {
		cat := openTestCatalog(t)
		mustCommit(t, cat, testFile("pic.jpg", "one"))

		clash := testFile("pic.jpg", "two")
		if _, err := cat.Commit(ctx, clash); err == nil {
			t.Fatal("Commit() error = nil, want error for stored name collision")
		}
	})

	t.Run("round-trips the sidecar", func(t *testing.T) {
		cat := openTestCatalog(t)
		f := testFile("pic.jpg", "image bytes")
		f.Sidecar = []byte(`{"Make":"Canon","DateTime":"2024:01:15 10:30:00"}`)
		mustCommit(t, cat, f)

		got, err := cat.FindByContentID(ctx, f.ContentID)
		if err != nil {
			t.Fatalf("FindByContentID() error = %v", err)
		}
		if string(got.Sidecar) != string(f.Sidecar) {
			t.Errorf("Sidecar = %q, want %q", got.Sidecar, f.Sidecar)
		}

		// The stored column holds compressed bytes, not the raw JSON.
		var stored []byte
		err = cat.db.QueryRow(`SELECT sidecar FROM files WHERE content_id = ?`, f.ContentID).Scan(&stored)
		if err != nil {
			t.Fatalf("reading raw sidecar: %v", err)
		}
		if string(stored) == string(f.Sidecar) {
			t.Error("sidecar was stored uncompressed")
		}
	})

	t.Run("stores an empty sidecar as NULL", func(t *testing.T) {
		cat := openTestCatalog(t)
		f := testFile("pic.jpg", "image bytes")
		mustCommit(t, cat, f)

		var isNull bool
		err := cat.db.QueryRow(`SELECT sidecar IS NULL FROM files WHERE content_id = ?`, f.ContentID).Scan(&isNull)
		if err != nil {
			t.Fatalf("reading sidecar: %v", err)
		}
		if !isNull {
			t.Error("empty sidecar was not stored as NULL")
		}

		got, err := cat.FindByContentID(ctx, f.ContentID)
		if err != nil {
			t.Fatalf("FindByContentID() error = %v", err)
		}
		if got.Sidecar != nil {
			t.Errorf("Sidecar = %q, want nil", got.Sidecar)
		}
	})
}

func TestSQLiteCatalog_FindByContentID(t *testing.T) {
	t.Run("returns nil for unknown content", func(t *testing.T) {
		cat := openTestCatalog(t)

		got, err := cat.FindByContentID(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")
		if err != nil {
			t.Fatalf("FindByContentID() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindByContentID() = %+v, want nil", got)
		}
	})
}

func TestSQLiteCatalog_MarkUploaded(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the file from the pending list", func(t *testing.T) {
		cat := openTestCatalog(t)
		f := testFile("pic.jpg", "image bytes")
		mustCommit(t, cat, f)

		if err := cat.MarkUploaded(ctx, f.ContentID, "backup"); err != nil {
			t.Fatalf("MarkUploaded() error = %v", err)
		}

		pending, err := cat.ListUnuploaded(ctx, "backup")
		if err != nil {
			t.Fatalf("ListUnuploaded() error = %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("len(pending) = %d, want 0", len(pending))
		}
	})

	t.Run("marking twice is a no-op", func(t *testing.T) {
		cat := openTestCatalog(t)
		f := testFile("pic.jpg", "image bytes")
		mustCommit(t, cat, f)

		if err := cat.MarkUploaded(ctx, f.ContentID, "backup"); err != nil {
			t.Fatalf("first MarkUploaded() error = %v", err)
		}
		if err := cat.MarkUploaded(ctx, f.ContentID, "backup"); err != nil {
			t.Fatalf("second MarkUploaded() error = %v", err)
		}

		stats, err := cat.Stats(ctx, []string{"backup"})
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.UploadedByTarget["backup"] != 1 {
			t.Errorf("UploadedByTarget = %d, want 1", stats.UploadedByTarget["backup"])
		}
	})

	t.Run("unknown content id wraps ErrNotFound", func(t *testing.T) {
		cat := openTestCatalog(t)

		err := cat.MarkUploaded(ctx, "deadbeef", "backup")
		if err == nil {
			t.Fatal("MarkUploaded() error = nil, want error for unknown content id")
		}
		if !errors.Is(err, box.ErrNotFound) {
			t.Errorf("MarkUploaded() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteCatalog_ListUnuploaded(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by time added regardless of insert order", func(t *testing.T) {
		cat := openTestCatalog(t)
		oldest := testFile("a.jpg", "content a")
		oldest.AddedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		middle := testFile("b.jpg", "content b")
		middle.AddedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		newest := testFile("c.jpg", "content c")
		newest.AddedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		mustCommit(t, cat, newest)
		mustCommit(t, cat, oldest)
		mustCommit(t, cat, middle)

		pending, err := cat.ListUnuploaded(ctx, "backup")
		if err != nil {
			t.Fatalf("ListUnuploaded() error = %v", err)
		}
		if len(pending) != 3 {
			t.Fatalf("len(pending) = %d, want 3", len(pending))
		}
		want := []string{"a.jpg", "b.jpg", "c.jpg"}
		for i, f := range pending {
			if f.StoredName != want[i] {
				t.Errorf("pending[%d] = %s, want %s", i, f.StoredName, want[i])
			}
		}
	})

	t.Run("breaks timestamp ties by content id", func(t *testing.T) {
		cat := openTestCatalog(t)
		a := testFile("a.jpg", "content a")
		b := testFile("b.jpg", "content b")
		b.AddedAt = a.AddedAt
		mustCommit(t, cat, b)
		mustCommit(t, cat, a)

		pending, err := cat.ListUnuploaded(ctx, "backup")
		if err != nil {
			t.Fatalf("ListUnuploaded() error = %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("len(pending) = %d, want 2", len(pending))
		}
		wantFirst := a.ContentID
		if b.ContentID < a.ContentID {
			wantFirst = b.ContentID
		}
		if pending[0].ContentID != wantFirst {
			t.Errorf("pending[0] = %s, want %s", pending[0].ContentID, wantFirst)
		}
	})

	t.Run("empty target list yields nothing", func(t *testing.T) {
		cat := openTestCatalog(t)
		mustCommit(t, cat, testFile("a.jpg", "content a"))

		pending, err := cat.ListUnuploaded(ctx)
		if err != nil {
			t.Fatalf("ListUnuploaded() error = %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("len(pending) = %d, want 0", len(pending))
		}
	})

	t.Run("a file is pending until it reached every target", func(t *testing.T) {
		cat := openTestCatalog(t)
		everywhere := testFile("everywhere.jpg", "content 1")
		partial := testFile("partial.jpg", "content 2")
		nowhere := testFile("nowhere.jpg", "content 3")
		mustCommit(t, cat, everywhere)
		mustCommit(t, cat, partial)
		mustCommit(t, cat, nowhere)

		for _, target := range []string{"primary", "offsite"} {
			if err := cat.MarkUploaded(ctx, everywhere.ContentID, target); err != nil {
				t.Fatalf("MarkUploaded(%s) error = %v", target, err)
			}
		}
		if err := cat.MarkUploaded(ctx, partial.ContentID, "primary"); err != nil {
			t.Fatalf("MarkUploaded() error = %v", err)
		}

		pending, err := cat.ListUnuploaded(ctx, "primary", "offsite")
		if err != nil {
			t.Fatalf("ListUnuploaded() error = %v", err)
		}
		names := make(map[string]bool)
		for _, f := range pending {
			names[f.StoredName] = true
		}
		if len(pending) != 2 || !names["partial.jpg"] || !names["nowhere.jpg"] {
			t.Errorf("pending = %v, want partial.jpg and nowhere.jpg", names)
		}

		pending, err = cat.ListUnuploaded(ctx, "primary")
		if err != nil {
			t.Fatalf("ListUnuploaded(primary) error = %v", err)
		}
		if len(pending) != 1 || pending[0].StoredName != "nowhere.jpg" {
			t.Errorf("primary pending = %d files, want just nowhere.jpg", len(pending))
		}
	})
}

func TestSQLiteCatalog_Stats(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	photo1 := testFile("a.jpg", "aaaa")
	photo2 := testFile("b.png", "bbbbbb")
	photo2.Sidecar = []byte(`{"Make":"Nikon"}`)
	video := testFile("c.mp4", "cccccccc")
	mustCommit(t, cat, photo1)
	mustCommit(t, cat, photo2)
	mustCommit(t, cat, video)
	if err := cat.MarkUploaded(ctx, photo1.ContentID, "backup"); err != nil {
		t.Fatalf("MarkUploaded() error = %v", err)
	}

	stats, err := cat.Stats(ctx, []string{"backup", "offsite"})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", stats.TotalFiles)
	}
	if want := int64(4 + 6 + 8); stats.TotalBytes != want {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, want)
	}
	if stats.ByMediaType[box.MediaPhoto] != 2 || stats.ByMediaType[box.MediaVideo] != 1 {
		t.Errorf("ByMediaType = %v, want 2 photos, 1 video", stats.ByMediaType)
	}
	if stats.WithSidecar != 1 {
		t.Errorf("WithSidecar = %d, want 1", stats.WithSidecar)
	}
	if stats.UploadedByTarget["backup"] != 1 {
		t.Errorf("UploadedByTarget[backup] = %d, want 1", stats.UploadedByTarget["backup"])
	}
	if stats.UploadedByTarget["offsite"] != 0 {
		t.Errorf("UploadedByTarget[offsite] = %d, want 0", stats.UploadedByTarget["offsite"])
	}
}

func TestSQLiteCatalog_Runs(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns an id and opens the run", func(t *testing.T) {
		cat := openTestCatalog(t)

		run, err := cat.CreateRun(ctx, "import", "/import")
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		if !run.Persisted() {
			t.Error("Persisted() = false after create")
		}
		if run.Operation != "import" || run.Parameters != "/import" || run.Status != "running" {
			t.Errorf("run = %+v, want running import of /import", run)
		}
	})

	t.Run("finish records status and counters", func(t *testing.T) {
		cat := openTestCatalog(t)
		run, err := cat.CreateRun(ctx, "import", "/import")
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		if err := cat.FinishRun(ctx, run.ID, "success", 5, 2, 1); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}

		runs, err := cat.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("len(runs) = %d, want 1", len(runs))
		}
		got := runs[0]
		if got.Status != "success" || got.Added != 5 || got.Duplicates != 2 || got.Failures != 1 {
			t.Errorf("run = %+v, want success with 5/2/1", got)
		}
		if !got.FinishedAt.Valid {
			t.Error("FinishedAt not set after finish")
		}
	})

	t.Run("list returns newest first and honors the limit", func(t *testing.T) {
		cat := openTestCatalog(t)
		for _, op := range []string{"init", "import", "upload"} {
			if _, err := cat.CreateRun(ctx, op, ""); err != nil {
				t.Fatalf("CreateRun(%s) error = %v", op, err)
			}
		}

		runs, err := cat.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("len(runs) = %d, want 2", len(runs))
		}
		if runs[0].Operation != "upload" || runs[1].Operation != "import" {
			t.Errorf("runs = [%s, %s], want [upload, import]", runs[0].Operation, runs[1].Operation)
		}
		if runs[0].ID <= runs[1].ID {
			t.Errorf("run ids not descending: %d then %d", runs[0].ID, runs[1].ID)
		}
	})
}
