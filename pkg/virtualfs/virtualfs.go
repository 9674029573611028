package virtualfs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// Helper function for VFS debug logging that respects configuration
func vfsDebugLog(format string, args ...interface{}) {
	logger.Debug(logger.AreaFileSystem, format, args...)
}

// GuestOwner owns the files of anonymous sessions. They live in memory only.
// Web sessions use GuestOwner + ":" + session id so guests stay apart.
const GuestOwner = "guest"

// IsGuestOwner reports whether owner is GuestOwner or one of its session
// scoped variants.
func IsGuestOwner(owner string) bool {
	return owner == GuestOwner || strings.HasPrefix(owner, GuestOwner+":")
}

// MaxNameLength limits program names.
const MaxNameLength = 64

var (
	// ErrInvalidName is returned for empty names and names with path parts.
	ErrInvalidName = errors.New("invalid file name")
	// ErrFileTooLarge is returned when content exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// VirtualFile is one stored program.
type VirtualFile struct {
	Name    string
	Content []byte
	ModTime time.Time
}

// VFS stores programs per owner in SQLite. Guests and a VFS without database
// keep their files in memory.
type VFS struct {
	db      *sql.DB
	mu      sync.RWMutex
	memory  map[string]map[string]*VirtualFile // owner -> lower-case name
	maxSize int
}

var _ tinybasic.FileSystem = (*VFS)(nil)

// New creates a VFS on db. db may be nil.
func New(db *sql.DB) *VFS {
	return &VFS{
		db:      db,
		memory:  make(map[string]map[string]*VirtualFile),
		maxSize: MaxProgramSize(),
	}
}

// MaxProgramSize returns the configured size limit in bytes.
func MaxProgramSize() int {
	return configuration.GetInt("Storage", "max_program_size_kb", 256) * 1024
}

// normalizeName cleans a program name. Names are flat: no directories.
func normalizeName(name string) (string, error) {
	name = tinybasic.NormalizeProgramName(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || len(name) > MaxNameLength || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// isProgramFile reports whether name carries the program extension.
func isProgramFile(name string) bool {
	return strings.EqualFold(path.Ext(name), tinybasic.ProgramExtension)
}

func normalizeOwner(owner string) string {
	if owner = strings.TrimSpace(owner); owner == "" {
		return GuestOwner
	}
	return owner
}

// inMemory reports whether the files of owner bypass the database.
func (vfs *VFS) inMemory(owner string) bool {
	return vfs.db == nil || IsGuestOwner(owner)
}

func (vfs *VFS) checkFileSizeLimit(content string) error {
	if vfs.maxSize > 0 && len(content) > vfs.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(content), vfs.maxSize)
	}
	return nil
}

// ReadFile returns the content of a program.
func (vfs *VFS) ReadFile(name string, owner string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	owner = normalizeOwner(owner)
	vfsDebugLog("ReadFile: name=%s, owner=%s", name, owner)

	if vfs.inMemory(owner) {
		vfs.mu.RLock()
		defer vfs.mu.RUnlock()
		if f, ok := vfs.memory[owner][strings.ToLower(name)]; ok {
			return string(f.Content), nil
		}
		return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}

	var content []byte
	err = vfs.db.QueryRow("SELECT content FROM programs WHERE owner = ? AND name = ?", owner, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	if err != nil {
		logger.Error(logger.AreaDatabase, "read %s for %s: %v", name, owner, err)
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(content), nil
}

// WriteFile creates or replaces a program.
func (vfs *VFS) WriteFile(name, content string, owner string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := vfs.checkFileSizeLimit(content); err != nil {
		logger.Warn(logger.AreaSecurity, "file size limit exceeded: %v", err)
		return err
	}
	owner = normalizeOwner(owner)
	now := time.Now()
	vfsDebugLog("WriteFile: name=%s, owner=%s, %d bytes", name, owner, len(content))

	if vfs.inMemory(owner) {
		vfs.mu.Lock()
		defer vfs.mu.Unlock()
		files := vfs.memory[owner]
		if files == nil {
			files = make(map[string]*VirtualFile)
			vfs.memory[owner] = files
		}
		files[strings.ToLower(name)] = &VirtualFile{Name: name, Content: []byte(content), ModTime: now}
		return nil
	}

	_, err = vfs.db.Exec(`INSERT INTO programs (owner, name, content, mod_time) VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, name) DO UPDATE SET content = excluded.content, mod_time = excluded.mod_time`,
		owner, name, []byte(content), now.Unix())
	if err != nil {
		logger.Error(logger.AreaDatabase, "write %s for %s: %v", name, owner, err)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a program is stored.
func (vfs *VFS) Exists(name string, owner string) bool {
	name, err := normalizeName(name)
	if err != nil {
		return false
	}
	owner = normalizeOwner(owner)

	if vfs.inMemory(owner) {
		vfs.mu.RLock()
		defer vfs.mu.RUnlock()
		_, ok := vfs.memory[owner][strings.ToLower(name)]
		return ok
	}

	var n int
	if err := vfs.db.QueryRow("SELECT COUNT(*) FROM programs WHERE owner = ? AND name = ?", owner, name).Scan(&n); err != nil {
		logger.Error(logger.AreaDatabase, "exists %s for %s: %v", name, owner, err)
		return false
	}
	return n > 0
}

// ListDirProgramFiles returns the sorted program names of owner.
func (vfs *VFS) ListDirProgramFiles(owner string) ([]string, error) {
	owner = normalizeOwner(owner)
	var names []string

	if vfs.inMemory(owner) {
		vfs.mu.RLock()
		for _, f := range vfs.memory[owner] {
			names = append(names, f.Name)
		}
		vfs.mu.RUnlock()
	} else {
		rows, err := vfs.db.Query("SELECT name FROM programs WHERE owner = ?", owner)
		if err != nil {
			logger.Error(logger.AreaDatabase, "list programs for %s: %v", owner, err)
			return nil, fmt.Errorf("list programs: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, fmt.Errorf("list programs: %w", err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list programs: %w", err)
		}
	}

	programs := names[:0]
	for _, name := range names {
		if isProgramFile(name) {
			programs = append(programs, name)
		}
	}
	sort.Slice(programs, func(i, j int) bool {
		return strings.ToLower(programs[i]) < strings.ToLower(programs[j])
	})
	return programs, nil
}

// Remove deletes a program.
func (vfs *VFS) Remove(name string, owner string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	owner = normalizeOwner(owner)

	if vfs.inMemory(owner) {
		vfs.mu.Lock()
		defer vfs.mu.Unlock()
		key := strings.ToLower(name)
		if _, ok := vfs.memory[owner][key]; !ok {
			return fmt.Errorf("%s: %w", name, os.ErrNotExist)
		}
		delete(vfs.memory[owner], key)
		return nil
	}

	res, err := vfs.db.Exec("DELETE FROM programs WHERE owner = ? AND name = ?", owner, name)
	if err != nil {
		logger.Error(logger.AreaDatabase, "remove %s for %s: %v", name, owner, err)
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return nil
}

// CleanupGuestVFS drops the in-memory files of owner when its session ends.
func (vfs *VFS) CleanupGuestVFS(owner string) {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	delete(vfs.memory, normalizeOwner(owner))
}
