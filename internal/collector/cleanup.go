package collector

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mobilenet/amaribridge/pkg/log"
)

// Retention bounds the size of a snapshot directory. When the total size
// exceeds High, the oldest snapshots are removed until it is at or below Low.
// Snapshots of the protected day are never removed.
type Retention struct {
	High int64
	Low  int64
}

// NewRetention returns a Retention pruning down to three quarters of max.
// A non-positive max disables pruning.
func NewRetention(max int64) Retention {
	if max <= 0 {
		return Retention{}
	}
	return Retention{High: max, Low: max / 4 * 3}
}

// Enabled reports whether pruning is configured.
func (r Retention) Enabled() bool {
	return r.High > 0
}

type snapshotFile struct {
	path string
	day  string
	unix int64
	size int64
}

// Prune applies r to the store, keeping every snapshot of protect's day.
// It returns the number of bytes removed.
func (s *SnapshotStore) Prune(ctx context.Context, r Retention, protect time.Time, logger log.Logger) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	logger = log.OrNoop(logger)

	cur, err := dirSize(s.dir)
	if err != nil {
		return 0, err
	}
	if cur <= r.High {
		return 0, nil
	}

	files, err := s.orderedSnapshots(protect.Format(dateLayout))
	if err != nil {
		return 0, err
	}

	var freed int64
	for _, f := range files {
		if ctx.Err() != nil {
			return freed, ctx.Err()
		}
		if cur <= r.Low {
			break
		}
		if err := os.Remove(f.path); err != nil {
			logger.Error("remove snapshot failed", log.String("path", f.path), log.Err(err))
			continue
		}
		cur -= f.size
		freed += f.size
		// Drop the day directory once empty; failure means it still has files.
		_ = os.Remove(filepath.Dir(f.path))
	}

	if freed > 0 {
		logger.Info("snapshot cleanup completed", log.Int64("freed_bytes", freed), log.Int64("size", cur))
	}
	return freed, nil
}

// orderedSnapshots lists snapshots oldest first, skipping protectDay and
// anything after it.
func (s *SnapshotStore) orderedSnapshots(protectDay string) ([]snapshotFile, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var files []snapshotFile
	for _, e := range ents {
		if !e.IsDir() || !isDayDir(e.Name()) || e.Name() >= protectDay {
			continue
		}
		dayEnts, err := os.ReadDir(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range dayEnts {
			path := filepath.Join(s.dir, e.Name(), f.Name())
			ts, ok := snapshotUnix(path)
			if f.IsDir() || !ok {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, err
			}
			files = append(files, snapshotFile{path: path, day: e.Name(), unix: ts, size: info.Size()})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].day != files[j].day {
			return files[i].day < files[j].day
		}
		return files[i].unix < files[j].unix
	})
	return files, nil
}

func isDayDir(name string) bool {
	_, err := time.Parse(dateLayout, name)
	return err == nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
