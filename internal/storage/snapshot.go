package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultSnapshotsKept is how many automatic snapshots survive cleanup.
const DefaultSnapshotsKept = 5

// Snapshot writes a consistent copy of the database to dir and prunes older
// snapshots with the same prefix so that at most keep remain. It returns the
// path of the new snapshot.
func (s *SQLiteStorage) Snapshot(ctx context.Context, dir, prefix string, keep int) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return "", err
	}
	if dir == "" {
		dir = filepath.Join(filepath.Dir(s.dbPath), "snapshots")
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.db", prefix, time.Now().UTC().Format("20060102-150405.000"))
	dest := filepath.Join(dir, name)

	// VACUUM INTO takes a literal path, so refuse anything that could break
	// out of the quoted string.
	if strings.ContainsAny(dest, `'";`) {
		return "", fmt.Errorf("invalid snapshot path: contains forbidden characters")
	}

	if s.dbPath != ":memory:" {
		if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return "", fmt.Errorf("failed to checkpoint WAL: %w", err)
		}
	}
	// #nosec G201 - dest is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Created database snapshot", "path", dest)

	if keep > 0 {
		if err := pruneSnapshots(dir, prefix, keep); err != nil {
			slog.Warn("Failed to prune old snapshots", "error", err)
		}
	}
	return dest, nil
}

func pruneSnapshots(dir, prefix string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"-*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	// Names embed a sortable timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, old := range matches[keep:] {
		if err := os.Remove(old); err != nil {
			slog.Debug("Failed to delete old snapshot", "path", old, "error", err)
		}
	}
	return nil
}
