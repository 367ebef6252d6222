package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"libraStats/internal/model"
)

// JsonlStorage appends snapshots to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSnapshots appends a batch of snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshots(_ context.Context, snapshots []model.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, snapshot := range snapshots {
		line, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal %s snapshot: %w", snapshot.Kind, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
