package config

import (
	"strings"
	"testing"
)

func TestLoad_DefaultsUnderCacheDir(t *testing.T) {
	// With no env set, all state lands under ~/.cache/stride.
	for _, key := range []string{
		"STRIDE_MEMORY_FILE", "STRIDE_ARCHIVE_DIR", "STRIDE_TASKLOG_DIR",
		"STRIDE_DEBUG_LOG", "STRIDE_HISTORY_KEEP", "STRIDE_ERRORLOG_KEEP",
		"STRIDE_TOOLS_CMD",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if !strings.Contains(cfg.MemoryFile, ".cache/stride") {
		t.Errorf("unexpected default memory file %q", cfg.MemoryFile)
	}
	if cfg.HistoryKeep != 0 || cfg.ErrorKeep != 0 {
		t.Error("expected keep-all retention by default")
	}
	if cfg.ToolsCommand != "" {
		t.Error("expected no tool server by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STRIDE_MEMORY_FILE", "/tmp/custom/mem.json")
	t.Setenv("STRIDE_HISTORY_KEEP", "50")
	t.Setenv("STRIDE_ERRORLOG_KEEP", "10")
	cfg := Load()
	if cfg.MemoryFile != "/tmp/custom/mem.json" {
		t.Errorf("unexpected memory file %q", cfg.MemoryFile)
	}
	if cfg.HistoryKeep != 50 || cfg.ErrorKeep != 10 {
		t.Errorf("unexpected retention %d/%d", cfg.HistoryKeep, cfg.ErrorKeep)
	}
}

func TestLoad_ToolsCommandSplitsArgs(t *testing.T) {
	t.Setenv("STRIDE_TOOLS_CMD", "devtools /srv/workspace")
	cfg := Load()
	if cfg.ToolsCommand != "devtools" {
		t.Errorf("unexpected command %q", cfg.ToolsCommand)
	}
	if len(cfg.ToolsArgs) != 1 || cfg.ToolsArgs[0] != "/srv/workspace" {
		t.Errorf("unexpected args %v", cfg.ToolsArgs)
	}
}

func TestGetint_InvalidFallsBack(t *testing.T) {
	t.Setenv("STRIDE_HISTORY_KEEP", "not-a-number")
	if got := getint("STRIDE_HISTORY_KEEP", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
}

func TestGetint_NegativeFallsBack(t *testing.T) {
	t.Setenv("STRIDE_HISTORY_KEEP", "-3")
	if got := getint("STRIDE_HISTORY_KEEP", 0); got != 0 {
		t.Errorf("expected fallback 0, got %d", got)
	}
}
