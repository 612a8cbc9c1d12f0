package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/envelope"
)

func TestSnapshotStore_PathFor(t *testing.T) {
	s := NewSnapshotStore("/data")
	at := time.Date(2025, 3, 7, 10, 0, 0, 0, time.Local)

	want := filepath.Join("/data", "2025-03-07", "Stats_"+strconv.FormatInt(at.Unix(), 10)+".json")
	if got := s.PathFor(at); got != want {
		t.Errorf("PathFor() = %s, want %s", got, want)
	}
}

func TestSnapshotStore_SaveWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotStore(dir)
	at := time.Unix(1741341600, 0)

	env, _ := envelope.Parse(`{"message":"stats","cells":{}}`)
	snap := Snapshot{
		CapturedAt: at,
		Entities: map[string]bridge.Result{
			"enb": {Entity: "enb", Envelope: env},
		},
	}

	path, err := s.Save(context.Background(), snap)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != s.PathFor(at) {
		t.Errorf("path = %s, want %s", path, s.PathFor(at))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded struct {
		Entities map[string]struct {
			Status   bool           `json:"status"`
			Response map[string]any `json:"response"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := decoded.Entities["enb"]
	if !got.Status || got.Response["message"] != "stats" {
		t.Errorf("decoded entity = %+v", got)
	}
}

func TestSnapshotStore_SaveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSnapshotStore(t.TempDir()).Save(ctx, Snapshot{CapturedAt: time.Now()}); err == nil {
		t.Error("expected error for canceled context")
	}
}
