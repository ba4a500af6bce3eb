package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// snapshotStore persists a Snapshot to a single JSON file using a
// write-temp-then-rename sequence so readers never observe a partial write.
type snapshotStore struct {
	path string
}

func newSnapshotStore(path string) *snapshotStore {
	return &snapshotStore{path: path}
}

// write atomically replaces the snapshot file's contents with snap.
func (s *snapshotStore) write(snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".devices-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// read loads the snapshot file. A missing file returns (nil, nil): there is
// no prior snapshot, not an error.
func (s *snapshotStore) read() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
