package logging

import (
	"fmt"
	"os"
	"sync"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
	bytesPerMegabyte = 1 << 20
)

// rotatingWriter is a small stdlib os.File-backed io.Writer that rotates the
// target file once it exceeds maxSizeMB, keeping at most maxFiles old
// generations (path, path.1, path.2, ...). No rotation library exists in
// the dependency pack, so this is hand-rolled rather than imported.
type rotatingWriter struct {
	mu          sync.Mutex
	path        string
	maxSizeByte int64
	maxFiles    int

	file    *os.File
	written int64
}

func newRotatingWriter(path string, maxSizeMB, maxFiles int) (*rotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	w := &rotatingWriter{
		path:        path,
		maxSizeByte: int64(maxSizeMB) * bytesPerMegabyte,
		maxFiles:    maxFiles,
	}
	if err := w.openCurrent(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) openCurrent() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stating log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

// Write implements io.Writer. Rotation happens before a write that would
// cross the size threshold, never mid-write, so every log line stays intact
// in one generation.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSizeByte {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing log file before rotation: %w", err)
	}

	for i := w.maxFiles - 1; i >= 1; i-- {
		src := w.generationPath(i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		os.Rename(src, w.generationPath(i+1))
	}
	if err := os.Rename(w.path, w.generationPath(1)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotating log file: %w", err)
	}

	return w.openCurrent()
}

func (w *rotatingWriter) generationPath(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}
