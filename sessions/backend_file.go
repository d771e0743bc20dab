package sessions

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/jrsteele09/go-webadmin/internal/errors"
)

var _ Backend = (*FileBackend)(nil)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileBackend keeps one file per key in a private folder
type FileBackend struct {
	folder string
}

func NewFileBackend(folder string) (*FileBackend, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrapf(err, "[FileBackend New] create %s", folder)
	}
	return &FileBackend{folder: folder}, nil
}

func (b *FileBackend) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.Wrapf(errors.ErrInvalidConfig, "invalid storage key %q", key)
	}
	return filepath.Join(b.folder, key+".json"), nil
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return data, nil
}

// Set writes through a temporary file so a crash never leaves a torn record behind
func (b *FileBackend) Set(key string, value []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.folder, key+".*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}
