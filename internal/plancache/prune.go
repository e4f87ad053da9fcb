package plancache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"reelprep/internal/logging"
)

// freeSpaceFloor is the minimum free-space ratio allowed before pruning
// (0.05 => prune when the filesystem is more than 95% full).
const freeSpaceFloor = 0.05

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

func realStatfs(path string) (uint64, uint64, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(fs.Bsize)
	return fs.Blocks * blockSize, fs.Bavail * blockSize, nil
}

// Stats describes current cache usage.
type Stats struct {
	ProbeEntries int     `json:"probe_entries"`
	CropEntries  int     `json:"crop_entries"`
	DBBytes      int64   `json:"db_bytes"`
	FreeRatio    float64 `json:"free_ratio"`
	Path         string  `json:"path"`
}

// Stats reports entry counts, database size, and filesystem headroom.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if s == nil {
		return Stats{}, nil
	}
	stats := Stats{Path: s.path}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM probe_results").Scan(&stats.ProbeEntries); err != nil {
		return Stats{}, fmt.Errorf("count probe results: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM crop_results").Scan(&stats.CropEntries); err != nil {
		return Stats{}, fmt.Errorf("count crop results: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.DBBytes = info.Size()
	}
	if total, free, err := s.statfs(filepath.Dir(s.path)); err == nil && total > 0 {
		stats.FreeRatio = float64(free) / float64(total)
	}
	return stats, nil
}

// Prune drops the oldest cached results while the database exceeds maxBytes
// or the filesystem's free-space ratio sits below the floor. Eviction is
// oldest-first by creation time.
func (s *Store) Prune(ctx context.Context, maxBytes int64) error {
	if s == nil {
		return nil
	}
	for {
		stats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		overBudget := maxBytes > 0 && stats.DBBytes > maxBytes
		lowSpace := stats.FreeRatio > 0 && stats.FreeRatio < freeSpaceFloor
		if !overBudget && !lowSpace {
			return nil
		}
		if stats.ProbeEntries == 0 && stats.CropEntries == 0 {
			return nil
		}

		evicted := 0
		for _, table := range []string{"probe_results", "crop_results"} {
			result, err := s.db.ExecContext(ctx,
				"DELETE FROM "+table+" WHERE created_at IN (SELECT created_at FROM "+table+" ORDER BY created_at ASC LIMIT 16)")
			if err != nil {
				return fmt.Errorf("prune %s: %w", table, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				evicted += int(n)
			}
		}
		if evicted == 0 {
			return nil
		}
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum cache: %w", err)
		}
		if s.logger != nil {
			s.logger.Debug("pruned cache entries", logging.Int("evicted", evicted))
		}
	}
}
