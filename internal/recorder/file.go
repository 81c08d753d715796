package recorder

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileRecorder appends one text line per trade to a file.
type FileRecorder struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewFileRecorder opens (or creates) path for appending.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trade log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	log.Printf("[INFO] trade log opened: %s", path)
	return &FileRecorder{f: f, path: path}, nil
}

func (r *FileRecorder) Record(_ context.Context, rec TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return fmt.Errorf("trade log %s is closed", r.path)
	}
	if _, err := r.f.WriteString(rec.Line() + "\n"); err != nil {
		return fmt.Errorf("append trade log: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Further records fail.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	log.Printf("[INFO] closing trade log: %s", r.path)
	syncErr := r.f.Sync()
	closeErr := r.f.Close()
	r.f = nil
	if syncErr != nil {
		return fmt.Errorf("sync trade log: %w", syncErr)
	}
	return closeErr
}
