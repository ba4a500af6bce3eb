package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_WritesWithoutRotationUnderThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	w, err := newRotatingWriter(path, 10, 3)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}

	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file content = %q, want to contain %q", data, "hello")
	}
}

func TestRotatingWriter_RotatesAtSizeThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	// maxSizeMB is clamped to >=1MB internally; use a tiny line count
	// relative to a deliberately small file to force multiple rotations.
	w, err := newRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	w.maxSizeByte = 16 // override for the test so rotation triggers quickly

	line := []byte("0123456789\n")
	for i := 0; i < 5; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() %d error = %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated generation %s.1 to exist, stat error = %v", path, err)
	}
}

func TestRotatingWriter_CapsGenerationCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	w, err := newRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	w.maxSizeByte = 16

	line := []byte("0123456789\n")
	for i := 0; i < 20; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() %d error = %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected generation 3 to not exist with maxFiles=2, stat error = %v", err)
	}
}
