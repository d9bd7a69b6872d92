package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSaveDir is used when no save directory is configured.
const DefaultSaveDir = ".saves"

const snapshotFile = "state.yaml"

// ErrNoSnapshot is returned when the named snapshot does not exist.
var ErrNoSnapshot = errors.New("snapshot not found")

// Save writes the snapshot to <dir>/<name>/state.yaml.
func (s *RunState) Save(dir, name string) error {
	target := filepath.Join(dir, name)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// temp file + rename keeps the previous snapshot intact on failure
	tmp := filepath.Join(target, snapshotFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(target, snapshotFile)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot and default-fills missing fields.
func LoadSnapshot(dir, name string, templateIDs []string) (*RunState, error) {
	data, err := os.ReadFile(filepath.Join(dir, name, snapshotFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var state RunState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	state.ApplyDefaults(templateIDs)
	return &state, nil
}

// DeleteSnapshot removes a saved snapshot. Missing snapshots are not an error.
func DeleteSnapshot(dir, name string) error {
	if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}

// ListSnapshots returns the names of saved snapshots under dir.
func ListSnapshots(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			// state.yaml marks a valid snapshot
			if _, err := os.Stat(filepath.Join(dir, entry.Name(), snapshotFile)); err == nil {
				names = append(names, entry.Name())
			}
		}
	}
	return names, nil
}
