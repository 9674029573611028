package virtualfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// DiskFS stores programs as files in one directory. The owner is ignored.
type DiskFS struct {
	dir     string
	maxSize int
}

var _ tinybasic.FileSystem = (*DiskFS)(nil)

// NewDiskFS uses dir, creating it if needed.
func NewDiskFS(dir string) (*DiskFS, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create program directory: %w", err)
	}
	return &DiskFS{dir: dir, maxSize: MaxProgramSize()}, nil
}

// resolve finds the file for name, ignoring case when there is no exact
// match.
func (d *DiskFS) resolve(name string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	exact := filepath.Join(d.dir, name)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return exact, nil
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(d.dir, e.Name()), nil
		}
	}
	return exact, nil
}

// ReadFile returns the content of a program.
func (d *DiskFS) ReadFile(name string, _ string) (string, error) {
	p, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile creates or replaces a program.
func (d *DiskFS) WriteFile(name, content string, _ string) error {
	if d.maxSize > 0 && len(content) > d.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(content), d.maxSize)
	}
	p, err := d.resolve(name)
	if err != nil {
		return err
	}
	vfsDebugLog("DiskFS write %s (%d bytes)", p, len(content))
	return os.WriteFile(p, []byte(content), 0644)
}

// Exists reports whether a program file is present.
func (d *DiskFS) Exists(name string, _ string) bool {
	p, err := d.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// ListDirProgramFiles returns the program files of the directory, sorted.
func (d *DiskFS) ListDirProgramFiles(_ string) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isProgramFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Remove deletes a program file.
func (d *DiskFS) Remove(name string, _ string) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
