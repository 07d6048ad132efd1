package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"rangeScope/internal/model"
)

// JsonlStorage appends computed rows to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSnapshot appends the pool snapshot as one JSON line.
func (s *JsonlStorage) PutSnapshot(_ context.Context, snapshot model.PoolSnapshot) error {
	return s.appendLines([]any{snapshot})
}

// PutRangeBatch appends a batch of range rows as JSON lines.
func (s *JsonlStorage) PutRangeBatch(_ context.Context, rows []model.RangeRow) error {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]any, len(rows))
	for i, row := range rows {
		lines[i] = row
	}
	return s.appendLines(lines)
}

// PutPositionBatch appends a batch of position rows as JSON lines.
func (s *JsonlStorage) PutPositionBatch(_ context.Context, rows []model.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]any, len(rows))
	for i, row := range rows {
		lines[i] = row
	}
	return s.appendLines(lines)
}

func (s *JsonlStorage) appendLines(records []any) error {
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
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
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
