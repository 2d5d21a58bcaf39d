package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotRegular is returned when a path exists but is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

// Storage provides a simple file-based storage backend.
// It stores files directly under a base directory on the local filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a new Storage rooted at basePath.
// The directory is created if it does not exist yet.
func NewStorage(basePath string) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", basePath, err)
	}

	return &Storage{basePath: basePath}, nil
}

// Dir returns the base directory of the storage.
func (s *Storage) Dir() string {
	return s.basePath
}

// Path returns the location of filename inside the storage.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// Save writes src to filename, replacing any existing file.
// Returns the full path of the stored file.
func (s *Storage) Save(filename string, src io.Reader) (string, error) {
	dstPath := s.Path(filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", dstPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to save file %s: %w", dstPath, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", dstPath, err)
	}

	return dstPath, nil
}

// Copy copies the regular file at srcPath into the storage as filename,
// overwriting any previous copy. Returns the full path of the copy.
// When srcPath already is the stored file, nothing is written.
func (s *Storage) Copy(srcPath, filename string) (string, error) {
	dstPath := s.Path(filename)

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat source %s: %w", srcPath, err)
	}
	if dstInfo, err := os.Stat(dstPath); err == nil && os.SameFile(srcInfo, dstInfo) {
		return dstPath, nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source %s: %w", srcPath, err)
	}
	defer src.Close()

	return s.Save(filename, src)
}

// Open opens a regular file from the storage.
func (s *Storage) Open(filename string) (*os.File, error) {
	path := s.Path(filename)

	if _, err := Stat(path); err != nil {
		return nil, err
	}

	return os.Open(path)
}

// Stat returns file info for path if it names a regular file.
// A missing file yields an error matching fs.ErrNotExist, anything else that is
// not a regular file yields ErrNotRegular.
func Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	return info, nil
}
