package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/taskman/internal/store"
	"github.com/nhle/taskman/tests/testutil"
)

func TestGetStringMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	value, ok, err := s.GetString(context.Background(), "task_list")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if ok || value != "" {
		t.Errorf("GetString() = %q, %v, want empty, false", value, ok)
	}
}

func TestSetAndGetString(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SetString(ctx, "task_list", "[]"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	if err := s.SetString(ctx, "task_list", `[{"id":1}]`); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}

	value, ok, err := s.GetString(ctx, "task_list")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if !ok || value != `[{"id":1}]` {
		t.Errorf("GetString() = %q, %v, want latest value", value, ok)
	}
}

func TestSetStringRecordsHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "b", "c"} {
		if err := s.SetString(ctx, "k", v); err != nil {
			t.Fatalf("SetString(%q) error: %v", v, err)
		}
	}

	revs, err := s.History(ctx, "k", 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	// "a" and "b" were overwritten; rewriting "b" with itself adds nothing.
	if len(revs) != 2 {
		t.Fatalf("len(History) = %d, want 2: %+v", len(revs), revs)
	}
	if revs[0].Value != "b" || revs[1].Value != "a" {
		t.Errorf("History values = %q, %q, want newest first", revs[0].Value, revs[1].Value)
	}

	rev, err := s.Revision(ctx, revs[1].ID)
	if err != nil {
		t.Fatalf("Revision() error: %v", err)
	}
	if rev.Value != "a" || rev.Key != "k" {
		t.Errorf("Revision = %+v", rev)
	}
}

func TestHistoryIsTrimmed(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.SetHistoryLimit(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := s.SetString(ctx, "k", fmt.Sprint(i)); err != nil {
			t.Fatal(err)
		}
	}

	revs, err := s.History(ctx, "k", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(revs))
	}
	if revs[0].Value != "8" || revs[2].Value != "6" {
		t.Errorf("History = %q..%q, want 8..6", revs[0].Value, revs[2].Value)
	}
}

func TestRevisionNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.Revision(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Revision(42) err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SetString(ctx, "k", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetString(ctx, "k", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, ok, _ := s.GetString(ctx, "k"); ok {
		t.Error("key still present after Delete")
	}
	if revs, _ := s.History(ctx, "k", 10); len(revs) != 0 {
		t.Errorf("history survived Delete: %+v", revs)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskman.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	if err := s.SetString(ctx, "task_list", "[]"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	value, ok, err := s.GetString(ctx, "task_list")
	if err != nil || !ok || value != "[]" {
		t.Errorf("GetString() after reopen = %q, %v, %v", value, ok, err)
	}
}

func TestWriteFileAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.json")

	if err := store.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if err := store.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile() overwrite error: %v", err)
	}

	data, err := store.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("ReadFile() = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the export", len(entries))
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := store.ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) err = %v, want os.ErrNotExist", err)
	}
}
