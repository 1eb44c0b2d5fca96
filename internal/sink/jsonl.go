package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
)

// JSONL appends one JSON object per line to a file. Each line is flushed to
// the file before Write returns.
type JSONL struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

// OpenJSONL opens path for appending, creating parent directories as
// needed. With truncate set, any existing file is removed first.
func OpenJSONL(path string, truncate bool) (*JSONL, error) {
	if truncate {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing previous output %s: %w", path, err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	return &JSONL{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (j *JSONL) Name() string { return "jsonl" }

func (j *JSONL) Write(_ context.Context, match record.Match) error {
	line, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("encoding match %q: %w", match.ProductName, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return fmt.Errorf("writing %s: file closed", j.path)
	}
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("writing %s: %w", j.path, err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", j.path, err)
	}
	return nil
}

func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	flushErr := j.w.Flush()
	closeErr := j.f.Close()
	j.f = nil
	return errors.Join(flushErr, closeErr)
}
