package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

const defaultFileMode fs.FileMode = 0o644

// FileStore keeps the snapshot as one JSON document at a fixed path.
// Writes go to a temporary file that is renamed over the target, so a
// crash mid-write leaves the previous snapshot intact.
type FileStore struct {
	path string
	mode fs.FileMode
	log  logger.Logger
}

// NewFileStore creates a store for path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		mode: defaultFileMode,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot location.
func (s *FileStore) Path() string { return s.path }

// Load reads and validates the snapshot.
func (s *FileStore) Load(ctx context.Context) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.State{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return model.State{}, fmt.Errorf("%w: read %s: %w", ErrCorruptSnapshot, s.path, err)
	}
	return decode(data)
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(ctx context.Context, st model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWriteSnapshot, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteSnapshot, err)
	}

	s.log.Debug(ctx, "snapshot saved", logger.String("path", s.path), logger.Int("bytes", len(data)))
	return nil
}

func decode(data []byte) (model.State, error) {
	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if err := st.Validate(); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return st.Normalize(), nil
}
