package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HunRotation/umato/pkg/errors"
)

// FileStore persists runs as JSON files in a directory, one file per run.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a run. Saving an existing ID overwrites it.
func (s *FileStore) Save(ctx context.Context, run *Run) error {
	if err := errors.ValidateRunID(run.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encode run %s", run.ID)
	}
	if err := os.WriteFile(s.path(run.ID), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write run %s", run.ID)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := errors.ValidateRunID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read run %s", id)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode run %s", id)
	}
	return &run, nil
}

// List returns summaries of all runs, newest first.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list runs")
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		run, err := s.Get(ctx, id)
		if err != nil {
			// Unreadable entries are skipped, not fatal: one corrupt file
			// should not hide the rest of the history.
			continue
		}
		out = append(out, Summary{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			Dataset:   run.DatasetPath,
			Points:    len(run.Embedding),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a run. Deleting a missing run is not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete run %s", id)
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
