package devtools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 30 * time.Second

// ExecuteCommand runs cmd in a bash shell with the workspace as working
// directory and a default 30s timeout. Returns combined stdout and stderr;
// a non-zero exit is reported in the output rather than as an error so the
// model sees what the command printed.
func (w *Workspace) ExecuteCommand(ctx context.Context, cmd string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	c := exec.CommandContext(ctx, "bash", "-c", cmd)
	c.Dir = w.root

	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf

	runErr := c.Run()

	var sb strings.Builder
	if outBuf.Len() > 0 {
		sb.WriteString(outBuf.String())
	}
	if errBuf.Len() > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("stderr:\n")
		sb.WriteString(errBuf.String())
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return sb.String(), fmt.Errorf("devtools: command timed out after %v", defaultCommandTimeout)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "exit: %v", runErr)
	}
	if sb.Len() == 0 {
		return "(no output)", nil
	}
	return sb.String(), nil
}

// GitStatus returns `git status --short --branch` for the workspace.
func (w *Workspace) GitStatus(ctx context.Context) (string, error) {
	return w.git(ctx, "status", "--short", "--branch")
}

// GitDiff returns the unstaged diff, optionally limited to one path.
func (w *Workspace) GitDiff(ctx context.Context, path string) (string, error) {
	args := []string{"diff"}
	if path != "" {
		rel, err := w.Resolve(path)
		if err != nil {
			return "", err
		}
		args = append(args, "--", rel)
	}
	return w.git(ctx, args...)
}

func (w *Workspace) git(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	c := exec.CommandContext(ctx, "git", append([]string{"-C", w.root}, args...)...)
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("devtools: git %s: %s", args[0], msg)
	}
	out := outBuf.String()
	if strings.TrimSpace(out) == "" {
		return "(clean)", nil
	}
	return out, nil
}
