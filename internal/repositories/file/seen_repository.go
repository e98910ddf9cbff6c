package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"roomspot-sniper/internal/model"
)

// SeenRepository keeps the seen-set as a JSON array of ids in one file.
type SeenRepository struct {
	path string
}

func NewSeenRepository(path string) *SeenRepository {
	return &SeenRepository{path: path}
}

func (r *SeenRepository) Load(_ context.Context) (*model.SeenSet, error) {
	content, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewSeenSet(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(content, &ids); err != nil {
		return nil, fmt.Errorf("decode seen file %s: %w", r.path, err)
	}
	return model.NewSeenSet(ids), nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so a failed write leaves the previous content intact.
func (r *SeenRepository) Save(_ context.Context, seen *model.SeenSet) error {
	content, err := json.Marshal(seen.IDs())
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create seen dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp seen file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write seen file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync seen file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close seen file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace seen file: %w", err)
	}
	return nil
}
