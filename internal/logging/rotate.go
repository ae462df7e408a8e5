package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// RotatingFileWriter is an io.WriteCloser with size-based rotation. Once
// the active file would grow past the size limit it is renamed to <path>.1,
// existing backups shift up by one, and backups beyond maxFiles are removed.
//
// Safe for concurrent use.
type RotatingFileWriter struct {
	mu       sync.Mutex
	path     string
	limit    int64
	maxFiles int
	size     int64
	file     *os.File
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)

// NewRotatingFileWriter opens (appending to) or creates path. maxSizeMB is
// clamped to at least 1; maxFiles to at least 0, where 0 keeps no backups.
func NewRotatingFileWriter(path string, maxSizeMB, maxFiles int) (*RotatingFileWriter, error) {
	maxSizeMB = max(maxSizeMB, 1)
	maxFiles = max(maxFiles, 0)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("logging: mkdir %s: %w", dir, err)
		}
	}

	f, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("logging: stat %s: %w", path, err)
	}

	return &RotatingFileWriter{
		path:     path,
		limit:    int64(maxSizeMB) << 20,
		maxFiles: maxFiles,
		size:     info.Size(),
		file:     f,
	}, nil
}

// Write rotates before p would overflow the limit, so a record is never
// split across files. A record larger than the limit gets a file to itself.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("logging: rotate %s: %w", w.path, err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// rotate must be called with mu held.
func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	// highest first, so nothing is overwritten
	backups := w.backups()
	slices.Reverse(backups)
	for _, n := range backups {
		if n+1 > w.maxFiles {
			_ = os.Remove(w.backupPath(n))
		} else {
			_ = os.Rename(w.backupPath(n), w.backupPath(n+1))
		}
	}
	if w.maxFiles > 0 {
		_ = os.Rename(w.path, w.backupPath(1))
	} else {
		_ = os.Remove(w.path)
	}

	f, err := openAppend(w.path)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *RotatingFileWriter) backupPath(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// backups lists the existing backup numbers in ascending order.
func (w *RotatingFileWriter) backups() []int {
	entries, err := os.ReadDir(filepath.Dir(w.path))
	if err != nil {
		return nil
	}
	prefix := filepath.Base(w.path) + "."
	var nums []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 1 {
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
