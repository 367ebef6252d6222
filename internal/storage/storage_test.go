package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"libraStats/internal/model"
)

func sampleSnapshots(t *testing.T) []model.Snapshot {
	t.Helper()
	at := time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC)
	tvl, err := model.NewSnapshot("56", model.KindTVL, map[string]string{"total": "1853524.99999999999995"}, at)
	if err != nil {
		t.Fatalf("tvl snapshot: %v", err)
	}
	apr, err := model.NewSnapshot("56", model.KindAPR, map[string]string{"basePoolAPR": "0.073"}, at)
	if err != nil {
		t.Fatalf("apr snapshot: %v", err)
	}
	return []model.Snapshot{tvl, apr}
}

func readLines(t *testing.T, path string) []model.Snapshot {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var out []model.Snapshot
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var snap model.Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		out = append(out, snap)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.jsonl")
	s := NewJsonlStorage(path)
	snaps := sampleSnapshots(t)

	if err := s.PutSnapshots(context.Background(), snaps); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.PutSnapshots(context.Background(), snaps[:1]); err != nil {
		t.Fatalf("second put: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0].Kind != model.KindTVL || lines[1].Kind != model.KindAPR || lines[2].Kind != model.KindTVL {
		t.Fatalf("unexpected order: %+v", lines)
	}
	if lines[0].ComputedAt != "2023-11-15T12:00:00Z" {
		t.Fatalf("computed_at = %s", lines[0].ComputedAt)
	}
	if string(lines[0].Payload) != `{"total":"1853524.99999999999995"}` {
		t.Fatalf("payload = %s", lines[0].Payload)
	}
}

func TestJsonlStorageEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := NewJsonlStorage(path).PutSnapshots(context.Background(), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create file, stat err = %v", err)
	}
}

type failingSink struct{ err error }

func (f failingSink) PutSnapshots(context.Context, []model.Snapshot) error { return f.err }

func TestFanoutWritesAllSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	boom := errors.New("db down")
	sinks := Fanout{failingSink{err: boom}, NewJsonlStorage(path)}

	err := sinks.PutSnapshots(context.Background(), sampleSnapshots(t))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got := len(readLines(t, path)); got != 2 {
		t.Fatalf("jsonl lines = %d, later sinks must still be written", got)
	}
}
