// Package checkpoint persists per-target scrape progress so an
// interrupted run can resume from its cursor instead of starting over.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records where a scrape of one target left off.
type Checkpoint struct {
	Target      string    `json:"target"`
	IsUser      bool      `json:"is_user"`
	Mode        string    `json:"mode"`
	After       string    `json:"after"`
	PostsSeen   int       `json:"posts_seen"`
	LastPostID  string    `json:"last_post_id"`
	LastUpdated time.Time `json:"last_updated"`
}

// Manager loads and saves checkpoints under a target's data directory.
type Manager struct {
	path string
}

// NewManager returns a manager writing to baseDir/checkpoint.json.
func NewManager(baseDir string) *Manager {
	return &Manager{path: filepath.Join(baseDir, "checkpoint.json")}
}

// Load reads the saved checkpoint. It returns nil without error when
// none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically via a temp file rename.
func (m *Manager) Save(cp *Checkpoint) error {
	cp.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint after a run completes.
func (m *Manager) Clear() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
