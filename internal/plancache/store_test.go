package plancache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reelprep/internal/config"
	"reelprep/internal/logging"
	"reelprep/internal/media/cropdetect"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()

	store, err := Open(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store == nil {
		t.Fatal("expected a store")
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testKey() Key {
	return Key{Path: "/media/movie.mkv", SizeBytes: 1 << 30, ModifiedUnix: 1700000000}
}

func TestOpenDisabledCacheReturnsNil(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false

	store, err := Open(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store != nil {
		t.Fatal("expected nil store for disabled cache")
	}
}

func TestNilStoreAlwaysMisses(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if _, hit, err := store.ProbeJSON(ctx, testKey()); err != nil || hit {
		t.Fatalf("nil store probe lookup: hit=%v err=%v", hit, err)
	}
	if err := store.SaveProbe(ctx, testKey(), []byte("{}")); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("nil store close: %v", err)
	}
}

func TestProbeRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := testKey()

	if _, hit, err := store.ProbeJSON(ctx, key); err != nil || hit {
		t.Fatalf("expected miss, hit=%v err=%v", hit, err)
	}

	payload := []byte(`{"streams": []}`)
	if err := store.SaveProbe(ctx, key, payload); err != nil {
		t.Fatalf("SaveProbe: %v", err)
	}

	got, hit, err := store.ProbeJSON(ctx, key)
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestChangedFileIdentityMisses(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := testKey()

	if err := store.SaveProbe(ctx, key, []byte("{}")); err != nil {
		t.Fatalf("SaveProbe: %v", err)
	}

	touched := key
	touched.ModifiedUnix++
	if _, hit, err := store.ProbeJSON(ctx, touched); err != nil || hit {
		t.Fatalf("expected miss for changed mtime, hit=%v err=%v", hit, err)
	}

	// Saving under the new identity evicts the stale row for the path.
	if err := store.SaveProbe(ctx, touched, []byte("{}")); err != nil {
		t.Fatalf("SaveProbe: %v", err)
	}
	if _, hit, err := store.ProbeJSON(ctx, key); err != nil || hit {
		t.Fatalf("expected stale entry evicted, hit=%v err=%v", hit, err)
	}
}

func TestCropRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := testKey()

	detected := &cropdetect.Geometry{W: 1888, H: 800, X: 16, Y: 140}
	if err := store.SaveCrop(ctx, key, detected); err != nil {
		t.Fatalf("SaveCrop: %v", err)
	}

	got, hit, err := store.Crop(ctx, key)
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if *got != *detected {
		t.Fatalf("geometry mismatch: %+v", got)
	}
}

func TestClearAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveProbe(ctx, testKey(), []byte("{}")); err != nil {
		t.Fatalf("SaveProbe: %v", err)
	}
	if err := store.SaveCrop(ctx, testKey(), &cropdetect.Geometry{W: 1, H: 1}); err != nil {
		t.Fatalf("SaveCrop: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ProbeEntries != 1 || stats.CropEntries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ProbeEntries != 0 || stats.CropEntries != 0 {
		t.Fatalf("expected empty cache, got %+v", stats)
	}
}

func TestPruneEvictsOldestWhenLowOnSpace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		key := testKey()
		key.Path = filepath.Join("/media", "movie"+string(rune('a'+i))+".mkv")
		if err := store.SaveProbe(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("SaveProbe: %v", err)
		}
	}

	calls := 0
	store.statfs = func(string) (uint64, uint64, error) {
		calls++
		if calls == 1 {
			// First check: nearly full filesystem forces an eviction round.
			return 1000, 10, nil
		}
		return 1000, 500, nil
	}

	if err := store.Prune(ctx, 0); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ProbeEntries != 0 {
		t.Fatalf("expected eviction batch to drain small cache, got %+v", stats)
	}
}

func TestFileKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mkv")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	key, err := FileKey(path)
	if err != nil {
		t.Fatalf("FileKey: %v", err)
	}
	if key.SizeBytes != 4 || key.Path == "" || key.ModifiedUnix == 0 {
		t.Fatalf("unexpected key: %+v", key)
	}

	if _, err := FileKey(filepath.Join(dir, "missing.mkv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
