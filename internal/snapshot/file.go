package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FilePersister stores the snapshot as a single JSON file. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated snapshot behind.
type FilePersister struct {
	path string
}

func NewFile(path string) *FilePersister {
	if path == "" {
		path = StorageKey + ".json"
	}
	return &FilePersister{path: path}
}

func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) (*State, error) {
	payload, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", p.path, err)
	}
	if state.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("snapshot %s has schema version %d, this build supports up to %d", p.path, state.SchemaVersion, SchemaVersion)
	}
	return &state, nil
}

func (p *FilePersister) Save(_ context.Context, state State) error {
	state.SchemaVersion = SchemaVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}
