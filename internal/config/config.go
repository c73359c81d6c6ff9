// Package config resolves runtime settings from the environment. A .env
// file loaded at startup (via godotenv) feeds the same variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds everything the agent needs at startup.
type Config struct {
	// MemoryFile is the JSON memory snapshot path.
	MemoryFile string
	// ArchiveDir is the LevelDB transcript archive directory. Empty
	// disables archiving.
	ArchiveDir string
	// TaskLogDir is the per-task JSONL log directory. Empty disables
	// task logs.
	TaskLogDir string
	// DebugLog is the file the standard logger is redirected to.
	DebugLog string

	// HistoryKeep / ErrorKeep bound how much conversation history and
	// error log survive a compaction pass. Zero means keep everything.
	HistoryKeep int
	ErrorKeep   int

	// ToolsCommand launches the MCP tool server over stdio. Empty runs
	// the agent without tools.
	ToolsCommand string
	ToolsArgs    []string
}

// Load resolves the configuration. Defaults place all state under
// ~/.cache/stride.
func Load() Config {
	homeDir, _ := os.UserHomeDir()
	cacheDir := filepath.Join(homeDir, ".cache", "stride")

	cfg := Config{
		MemoryFile:  getenv("STRIDE_MEMORY_FILE", filepath.Join(cacheDir, "memory.json")),
		ArchiveDir:  getenv("STRIDE_ARCHIVE_DIR", filepath.Join(cacheDir, "archive")),
		TaskLogDir:  getenv("STRIDE_TASKLOG_DIR", filepath.Join(cacheDir, "tasklogs")),
		DebugLog:    getenv("STRIDE_DEBUG_LOG", filepath.Join(cacheDir, "debug.log")),
		HistoryKeep: getint("STRIDE_HISTORY_KEEP", 0),
		ErrorKeep:   getint("STRIDE_ERRORLOG_KEEP", 0),
	}

	if cmd := os.Getenv("STRIDE_TOOLS_CMD"); cmd != "" {
		parts := strings.Fields(cmd)
		cfg.ToolsCommand = parts[0]
		cfg.ToolsArgs = parts[1:]
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
