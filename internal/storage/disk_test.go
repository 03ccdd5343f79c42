package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "postal.db")
	if err := os.WriteFile(db, []byte("main!"), 0644); err != nil {
		t.Fatal(err)
	}
	wal := db + "-wal"
	if err := os.WriteFile(wal, []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DiskUsageBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("single file: got %d bytes, want 5", got)
	}

	got, err = DiskUsageBytes(db, wal)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("file plus sidecar: got %d bytes, want 8", got)
	}

	// The -shm sidecar does not exist; it must contribute zero.
	got, err = DiskUsageBytes(sidecarPaths(db)...)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("with missing sidecar: got %d bytes, want 8", got)
	}

	got, err = DiskUsageBytes("", db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("with empty path: got %d bytes, want 5", got)
	}
}
