package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mobilenet/amaribridge/pkg/bridge"
)

const (
	snapshotPrefix = "Stats_"
	snapshotSuffix = ".json"
	dateLayout     = "2006-01-02"
)

// Snapshot is one collection round as written to disk.
type Snapshot struct {
	Round      string                   `json:"round"`
	CapturedAt time.Time                `json:"captured_at"`
	Entities   map[string]bridge.Result `json:"entities"`
}

// SnapshotStore writes snapshots under <dir>/<YYYY-MM-DD>/Stats_<unix>.json.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Dir returns the root directory.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// PathFor returns the file a snapshot captured at t is written to. Names
// have one-second resolution: a second snapshot captured within the same
// second replaces the first.
func (s *SnapshotStore) PathFor(t time.Time) string {
	name := snapshotPrefix + strconv.FormatInt(t.Unix(), 10) + snapshotSuffix
	return filepath.Join(s.dir, t.Format(dateLayout), name)
}

// Save persists snap atomically (temp file, then rename) and returns its path.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.PathFor(snap.CapturedAt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return path, nil
}

func snapshotUnix(path string) (int64, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), snapshotPrefix), snapshotSuffix)
	ts, err := strconv.ParseInt(name, 10, 64)
	return ts, err == nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
