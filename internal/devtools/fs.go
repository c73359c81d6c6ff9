package devtools

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ReadFile returns the contents of path as a string.
func (w *Workspace) ReadFile(path string) (string, error) {
	p, err := w.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile writes content to path, creating parent directories as needed.
func (w *Workspace) WriteFile(path, content string) error {
	p, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(content), 0o644)
}

// AppendFile appends content to path, creating the file if missing.
func (w *Workspace) AppendFile(path, content string) error {
	p, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// DeleteFile removes a single file inside the workspace.
func (w *Workspace) DeleteFile(path string) error {
	p, err := w.Resolve(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("devtools: %s is a directory, use delete_directory", path)
	}
	return os.Remove(p)
}

// DeleteDirectory removes a directory inside the workspace. Without
// recursive the directory must be empty. The workspace root itself cannot
// be deleted.
func (w *Workspace) DeleteDirectory(path string, recursive bool) error {
	p, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if p == w.root {
		return fmt.Errorf("devtools: refusing to delete the workspace root")
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("devtools: %s is not a directory", path)
	}
	if recursive {
		return os.RemoveAll(p)
	}
	return os.Remove(p)
}

// CopyFile copies src to dst, both inside the workspace. Directories are
// copied recursively. The destination parent directory is created if
// missing.
func (w *Workspace) CopyFile(src, dst string) error {
	from, err := w.Resolve(src)
	if err != nil {
		return err
	}
	to, err := w.Resolve(dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	info, err := os.Stat(from)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyTree(from, to)
	}
	return copyRegular(from, to, info.Mode())
}

func copyRegular(from, to string, mode fs.FileMode) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, mode.Perm())
}

func copyTree(from, to string) error {
	return filepath.WalkDir(from, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyRegular(path, target, info.Mode())
	})
}

// Info describes a file or directory inside the workspace.
type Info struct {
	Path    string
	Dir     bool
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	Lines   int // newline-terminated line count; -1 for directories and binary files
}

// FileInfo stats path and, for files that decode as UTF-8, counts its
// lines.
func (w *Workspace) FileInfo(path string) (Info, error) {
	p, err := w.Resolve(path)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Path:    path,
		Dir:     st.IsDir(),
		Size:    st.Size(),
		Mode:    st.Mode(),
		ModTime: st.ModTime(),
		Lines:   -1,
	}
	if st.Mode().IsRegular() {
		if data, err := os.ReadFile(p); err == nil && utf8.Valid(data) {
			info.Lines = bytes.Count(data, []byte("\n"))
			if len(data) > 0 && data[len(data)-1] != '\n' {
				info.Lines++
			}
		}
	}
	return info, nil
}

// ListDirectory lists the entries of path, directories suffixed with "/",
// sorted by name.
func (w *Workspace) ListDirectory(path string) ([]string, error) {
	if path == "" {
		path = "."
	}
	p, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateDirectory makes path (and parents) inside the workspace.
func (w *Workspace) CreateDirectory(path string) error {
	p, err := w.Resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// MoveFile renames src to dst, both inside the workspace. The destination
// parent directory is created if missing.
func (w *Workspace) MoveFile(src, dst string) error {
	from, err := w.Resolve(src)
	if err != nil {
		return err
	}
	to, err := w.Resolve(dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

// SearchFiles walks root recursively and returns workspace-relative paths
// whose base name matches pattern (standard filepath.Match syntax: *.go,
// *.json, etc.). Inaccessible directories are silently skipped.
func (w *Workspace) SearchFiles(root, pattern string) ([]string, error) {
	if root == "" {
		root = "."
	}
	base, err := w.Resolve(root)
	if err != nil {
		return nil, err
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("devtools: bad pattern %q: %w", pattern, err)
	}

	var matches []string
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			return nil
		}
		matched, _ := filepath.Match(pattern, d.Name())
		if matched {
			if rel, err := filepath.Rel(w.root, path); err == nil {
				matches = append(matches, rel)
			}
		}
		return nil
	})
	return matches, err
}

// JoinLines returns paths as a newline-separated string, ready to be
// returned as a tool result.
func JoinLines(paths []string) string {
	return strings.Join(paths, "\n")
}
