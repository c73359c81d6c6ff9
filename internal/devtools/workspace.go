// Package devtools implements the development tool server the agent talks
// to over MCP stdio: file operations, command execution, and git queries,
// all confined to one workspace directory.
package devtools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the directory every tool operates within. Paths that would
// escape it are rejected before any filesystem access.
type Workspace struct {
	root string
}

// DefaultRoot returns the workspace directory to use when none is given.
// Reads $STRIDE_WORKSPACE; defaults to ~/stride_workspace.
func DefaultRoot() string {
	if env := os.Getenv("STRIDE_WORKSPACE"); env != "" {
		return ExpandHome(env)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "stride_workspace")
}

// NewWorkspace creates the workspace directory if needed and returns it.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = DefaultRoot()
	}
	abs, err := filepath.Abs(ExpandHome(root))
	if err != nil {
		return nil, fmt.Errorf("devtools: resolve workspace %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("devtools: create workspace: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a tool-supplied path to an absolute path inside the
// workspace. Relative paths are joined to the root; absolute paths must
// already be under it.
//
// Expectations:
//   - "notes.md" → "<root>/notes.md"
//   - "src/../notes.md" → "<root>/notes.md"
//   - "../outside" → error
//   - "<root>/sub/file" → unchanged
//   - "/etc/passwd" → error
func (w *Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("devtools: empty path")
	}
	p := ExpandHome(path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("devtools: path %q escapes workspace", path)
	}
	return p, nil
}

// ExpandHome replaces a leading "~/" or a bare "~" with the user's home
// directory. Returns path unchanged if it does not start with "~".
func ExpandHome(path string) string {
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
