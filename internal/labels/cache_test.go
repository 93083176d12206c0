package labels

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/jsonl"
)

func writeRecords(t *testing.T, path string, records ...any) {
	t.Helper()
	w, err := jsonl.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestCache(t *testing.T) (*Cache, *FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenFileStore(filepath.Join(dir, "dumps"))
	if err != nil {
		t.Fatal(err)
	}
	return New(store, config.Default().Cache, nil), store, dir
}

func TestParseGender(t *testing.T) {
	for _, s := range []string{"male", "female", " male "} {
		if _, err := ParseGender(s); err != nil {
			t.Errorf("ParseGender(%q): %v", s, err)
		}
	}
	if _, err := ParseGender("unknown"); err == nil {
		t.Error("expected error for unknown gender")
	}
	if Male.Target() != 1 || Female.Target() != -1 {
		t.Error("targets must be male=1, female=-1")
	}
}

func TestLoadGendersBuildsThenHitsCache(t *testing.T) {
	ctx := context.Background()
	cache, store, dir := newTestCache(t)
	src := filepath.Join(dir, "public.jsonlines.gz")
	writeRecords(t, src,
		map[string]any{"author": 1, "gender": "male"},
		map[string]any{"author": 2, "gender": "female"},
		map[string]any{"author": 1, "gender": "male"},
	)

	genders, err := cache.LoadGenders(ctx, src)
	if err != nil {
		t.Fatalf("LoadGenders: %v", err)
	}
	if len(genders) != 2 {
		t.Fatalf("len = %d, want 2", len(genders))
	}
	if g, ok := genders.Lookup(2); !ok || g != Female {
		t.Errorf("Lookup(2) = %v, %v", g, ok)
	}
	if _, err := os.Stat(store.Location(config.Default().Cache.GendersName)); err != nil {
		t.Fatalf("dump not written: %v", err)
	}

	// The source is gone; the second load must come from the dump.
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}
	again, err := cache.LoadGenders(ctx, src)
	if err != nil {
		t.Fatalf("cached LoadGenders: %v", err)
	}
	if len(again) != 2 || again[1] != Male {
		t.Errorf("cached genders = %v", again)
	}
}

func TestLoadTestAuthorsBuildsThenHitsCache(t *testing.T) {
	ctx := context.Background()
	cache, _, dir := newTestCache(t)
	src := filepath.Join(dir, "private.jsonlines.gz")
	writeRecords(t, src,
		map[string]any{"author": 10},
		map[string]any{"author": 11},
		map[string]any{"author": 10},
	)

	set, err := cache.LoadTestAuthors(ctx, src)
	if err != nil {
		t.Fatalf("LoadTestAuthors: %v", err)
	}
	if len(set) != 2 || !set.Contains(10) || !set.Contains(11) {
		t.Fatalf("set = %v", set)
	}

	os.Remove(src)
	again, err := cache.LoadTestAuthors(ctx, src)
	if err != nil {
		t.Fatalf("cached LoadTestAuthors: %v", err)
	}
	if len(again) != 2 || !again.Contains(11) {
		t.Errorf("cached set = %v", again)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	ctx := context.Background()
	cache, _, dir := newTestCache(t)
	src := filepath.Join(dir, "public.jsonlines.gz")
	writeRecords(t, src, map[string]any{"author": 1, "gender": "male"})
	if _, err := cache.LoadGenders(ctx, src); err != nil {
		t.Fatal(err)
	}

	writeRecords(t, src,
		map[string]any{"author": 1, "gender": "male"},
		map[string]any{"author": 3, "gender": "female"},
	)
	stale, _ := cache.LoadGenders(ctx, src)
	if len(stale) != 1 {
		t.Fatalf("expected stale cached map of 1, got %d", len(stale))
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	fresh, err := cache.LoadGenders(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != 2 {
		t.Errorf("rebuilt map has %d entries, want 2", len(fresh))
	}
}

func TestLoadGendersRejectsUnknownLabel(t *testing.T) {
	cache, _, dir := newTestCache(t)
	src := filepath.Join(dir, "public.jsonlines.gz")
	writeRecords(t, src, map[string]any{"author": 1, "gender": "robot"})

	_, err := cache.LoadGenders(context.Background(), src)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestLoadMissingSource(t *testing.T) {
	cache, _, dir := newTestCache(t)
	_, err := cache.LoadTestAuthors(context.Background(), filepath.Join(dir, "nope.gz"))
	if !errors.Is(err, apperrors.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestCorruptDump(t *testing.T) {
	ctx := context.Background()
	cache, store, dir := newTestCache(t)
	src := filepath.Join(dir, "public.jsonlines.gz")
	writeRecords(t, src, map[string]any{"author": 1, "gender": "male"})
	if _, err := cache.LoadGenders(ctx, src); err != nil {
		t.Fatal(err)
	}

	path := store.Location(config.Default().Cache.GendersName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[HeaderSize] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = cache.LoadGenders(ctx, src)
	if !errors.Is(err, apperrors.ErrCacheCorrupt) {
		t.Fatalf("err = %v, want ErrCacheCorrupt", err)
	}
}

func TestDumpKindMismatch(t *testing.T) {
	data, err := encodeDump(KindAuthorSet, 1, []int64{5})
	if err != nil {
		t.Fatal(err)
	}
	var genders Genders
	if _, err := decodeDump(data, KindGenders, &genders); !errors.Is(err, apperrors.ErrCacheCorrupt) {
		t.Fatalf("err = %v, want ErrCacheCorrupt", err)
	}
	var ids []int64
	header, err := decodeDump(data, KindAuthorSet, &ids)
	if err != nil {
		t.Fatal(err)
	}
	if header.Count != 1 || len(ids) != 1 || ids[0] != 5 {
		t.Errorf("header=%+v ids=%v", header, ids)
	}
}

func TestFileStoreMissAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "x"); !errors.Is(err, apperrors.ErrCacheMiss) {
		t.Fatalf("Get on empty store: %v", err)
	}
	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete of missing entry: %v", err)
	}
	if err := store.Put(ctx, "x", []byte("blob")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "x")
	if err != nil || string(got) != "blob" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if _, err := os.Stat(store.Location("x") + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
