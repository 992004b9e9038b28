package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CursorStore persists the block number of the last synced event.
type CursorStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

// Checkpoint is the on-disk cursor format.
type Checkpoint struct {
	LatestBlock uint64 `json:"latest_block"`
	UpdatedAt   string `json:"updated_at"`
}

// FileCursorStore keeps the cursor in a local JSON file.
type FileCursorStore struct {
	path    string
	enabled bool
}

func NewFileCursorStore(path string, enabled bool) *FileCursorStore {
	return &FileCursorStore{path: path, enabled: enabled}
}

func (c *FileCursorStore) Load(context.Context) (uint64, bool, error) {
	if !c.enabled || c.path == "" {
		return 0, false, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp.LatestBlock, true, nil
}

func (c *FileCursorStore) Save(_ context.Context, block uint64) error {
	if !c.enabled || c.path == "" {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		LatestBlock: block,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// StateStore is a named key/block store such as the Postgres syncer_state table.
type StateStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

// DBCursorStore keeps the cursor in a StateStore row.
type DBCursorStore struct {
	Store StateStore
	Name  string
}

func (s *DBCursorStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBCursorStore) Save(ctx context.Context, block uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, block)
}
