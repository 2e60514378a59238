package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MemFS implements FS entirely in memory for tests. Paths are treated as
// opaque slash-separated strings; parent directories are created implicitly
// when files are added.
type MemFS struct {
	files map[string][]byte
	dirs  map[string]bool

	// FailRename, when set, is consulted before every Rename; returning a
	// non-nil error simulates a move failure (e.g. EXDEV).
	FailRename func(oldPath, newPath string) error
}

// NewMemFS creates an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile creates a file with the given content, creating parents.
func (m *MemFS) AddFile(path string, content []byte) {
	m.files[clean(path)] = append([]byte(nil), content...)
	m.addParents(path)
}

// AddDir creates a directory, creating parents.
func (m *MemFS) AddDir(path string) {
	m.dirs[clean(path)] = true
	m.addParents(path)
}

// Content returns the content of a file and whether it exists.
func (m *MemFS) Content(path string) ([]byte, bool) {
	data, ok := m.files[clean(path)]
	return data, ok
}

func (m *MemFS) addParents(path string) {
	dir := filepath.Dir(clean(path))
	for dir != "." && dir != string(filepath.Separator) && dir != filepath.VolumeName(dir)+string(filepath.Separator) {
		if m.dirs[dir] {
			break
		}
		m.dirs[dir] = true
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
}

func clean(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	for len(cleaned) > 1 && cleaned[len(cleaned)-1] == filepath.Separator {
		cleaned = cleaned[:len(cleaned)-1]
	}
	return cleaned
}

// Stat returns file info for files and directories.
func (m *MemFS) Stat(path string) (os.FileInfo, error) {
	p := clean(path)
	if data, ok := m.files[p]; ok {
		return &memFileInfo{name: filepath.Base(p), size: int64(len(data))}, nil
	}
	if m.dirs[p] {
		return &memFileInfo{name: filepath.Base(p), isDir: true}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
}

// Lstat is identical to Stat; MemFS has no symlinks.
func (m *MemFS) Lstat(path string) (os.FileInfo, error) {
	return m.Stat(path)
}

// Exists checks if a path exists.
func (m *MemFS) Exists(path string) (bool, error) {
	p := clean(path)
	_, isFile := m.files[p]
	return isFile || m.dirs[p], nil
}

// MkdirAll creates a directory and all parent directories.
func (m *MemFS) MkdirAll(path string, perm os.FileMode) error {
	m.AddDir(path)
	return nil
}

// Rename moves a file or directory subtree.
func (m *MemFS) Rename(oldPath, newPath string) error {
	src, dst := clean(oldPath), clean(newPath)
	if m.FailRename != nil {
		if err := m.FailRename(src, dst); err != nil {
			return err
		}
	}

	if data, ok := m.files[src]; ok {
		m.files[dst] = data
		delete(m.files, src)
		m.addParents(dst)
		return nil
	}

	if m.dirs[src] {
		prefix := src + string(filepath.Separator)
		for path, data := range m.files {
			if strings.HasPrefix(path, prefix) {
				m.files[dst+string(filepath.Separator)+path[len(prefix):]] = data
				delete(m.files, path)
			}
		}
		for path := range m.dirs {
			if strings.HasPrefix(path, prefix) {
				m.dirs[dst+string(filepath.Separator)+path[len(prefix):]] = true
				delete(m.dirs, path)
			}
		}
		delete(m.dirs, src)
		m.dirs[dst] = true
		m.addParents(dst)
		return nil
	}

	return &os.PathError{Op: "rename", Path: oldPath, Err: os.ErrNotExist}
}

// Remove removes a file or an empty directory.
func (m *MemFS) Remove(path string) error {
	p := clean(path)
	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		return nil
	}
	if m.dirs[p] {
		entries, err := m.ReadDir(p)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return fmt.Errorf("remove %s: directory not empty", path)
		}
		delete(m.dirs, p)
		return nil
	}
	return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
}

// RemoveAll removes a path and all its contents.
func (m *MemFS) RemoveAll(path string) error {
	p := clean(path)
	prefix := p + string(filepath.Separator)
	delete(m.files, p)
	delete(m.dirs, p)
	for candidate := range m.files {
		if strings.HasPrefix(candidate, prefix) {
			delete(m.files, candidate)
		}
	}
	for candidate := range m.dirs {
		if strings.HasPrefix(candidate, prefix) {
			delete(m.dirs, candidate)
		}
	}
	return nil
}

// Copy copies a file or directory subtree.
func (m *MemFS) Copy(src, dst string) error {
	s, d := clean(src), clean(dst)
	if data, ok := m.files[s]; ok {
		m.AddFile(d, data)
		return nil
	}
	if m.dirs[s] {
		m.AddDir(d)
		prefix := s + string(filepath.Separator)
		for path, data := range m.files {
			if strings.HasPrefix(path, prefix) {
				m.AddFile(d+string(filepath.Separator)+path[len(prefix):], data)
			}
		}
		for path := range m.dirs {
			if strings.HasPrefix(path, prefix) {
				m.AddDir(d + string(filepath.Separator) + path[len(prefix):])
			}
		}
		return nil
	}
	return &os.PathError{Op: "copy", Path: src, Err: os.ErrNotExist}
}

// AtomicWrite writes data to path.
func (m *MemFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	m.AddFile(path, data)
	return nil
}

// ReadFile reads the entire contents of a file.
func (m *MemFS) ReadFile(path string) ([]byte, error) {
	if data, ok := m.files[clean(path)]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

// ReadDir lists the entries directly under a directory.
func (m *MemFS) ReadDir(path string) ([]os.DirEntry, error) {
	p := clean(path)
	if !m.dirs[p] {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}

	prefix := p + string(filepath.Separator)
	seen := make(map[string]bool)
	var entries []os.DirEntry
	for candidate := range m.files {
		if strings.HasPrefix(candidate, prefix) {
			rest := candidate[len(prefix):]
			if !strings.Contains(rest, string(filepath.Separator)) && !seen[rest] {
				seen[rest] = true
				entries = append(entries, &memDirEntry{name: rest})
			}
		}
	}
	for candidate := range m.dirs {
		if strings.HasPrefix(candidate, prefix) {
			rest := candidate[len(prefix):]
			if !strings.Contains(rest, string(filepath.Separator)) && !seen[rest] {
				seen[rest] = true
				entries = append(entries, &memDirEntry{name: rest, isDir: true})
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

type memFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi *memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *memFileInfo) IsDir() bool        { return fi.isDir }
func (fi *memFileInfo) Sys() interface{}   { return nil }

type memDirEntry struct {
	name  string
	isDir bool
}

func (e *memDirEntry) Name() string               { return e.name }
func (e *memDirEntry) IsDir() bool                { return e.isDir }
func (e *memDirEntry) Type() os.FileMode          { return 0 }
func (e *memDirEntry) Info() (os.FileInfo, error) { return &memFileInfo{name: e.name, isDir: e.isDir}, nil }
