package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CorruptStateError reports a state file that exists but cannot be decoded
// into the AgentMemory schema. It is distinct from a missing file — missing
// state is a first run, not an error, while silently discarding corrupt
// state would lose history.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("memory: corrupt state file %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// Store persists one AgentMemory aggregate to a JSON file. The file path is
// the store's identity: two stores with the same path address the same
// agent state.
type Store struct {
	path string
}

// NewStore creates a store bound to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load deserializes the persisted aggregate. A missing file yields a fresh
// empty AgentMemory and no error; a present but undecodable file yields a
// *CorruptStateError.
func (s *Store) Load() (*AgentMemory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read state: %w", err)
	}

	var m AgentMemory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &CorruptStateError{Path: s.path, Err: err}
	}
	m.normalize()
	return &m, nil
}

// Save serializes the full aggregate, replacing any prior content. The
// write goes to a temp file in the same directory followed by a rename, so
// a crash mid-write never leaves a half-written file at the store's path.
func (s *Store) Save(m *AgentMemory) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("memory: create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "memory-*.json.tmp")
	if err != nil {
		return fmt.Errorf("memory: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("memory: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("memory: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("memory: rename temp file: %w", err)
	}
	return nil
}
