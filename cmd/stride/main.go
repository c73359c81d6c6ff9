package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/cwhuang/stride/internal/archive"
	"github.com/cwhuang/stride/internal/chat"
	"github.com/cwhuang/stride/internal/config"
	"github.com/cwhuang/stride/internal/evaluator"
	"github.com/cwhuang/stride/internal/events"
	"github.com/cwhuang/stride/internal/executor"
	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/orchestrator"
	"github.com/cwhuang/stride/internal/planner"
	"github.com/cwhuang/stride/internal/tasklog"
	"github.com/cwhuang/stride/internal/toolbox"
	"github.com/cwhuang/stride/internal/ui"
)

func main() {
	// Load env
	_ = godotenv.Load(".env")
	cfg := config.Load()

	// The standard logger is the debug channel; keep it off the terminal.
	if f := openDebugLog(cfg.DebugLog); f != nil {
		defer f.Close()
		log.SetOutput(f)
	}

	// Memory — the one aggregate everything shares
	store := memory.NewStore(cfg.MemoryFile)
	mem, err := store.Load()
	if err != nil {
		var corrupt *memory.CorruptStateError
		if errors.As(err, &corrupt) {
			fmt.Fprintf(os.Stderr, "error: memory file %s is corrupt: %v\n", corrupt.Path, corrupt.Err)
			fmt.Fprintln(os.Stderr, "move it aside to start fresh; it will not be overwritten")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: load memory: %v\n", err)
		os.Exit(1)
	}
	if cfg.HistoryKeep > 0 || cfg.ErrorKeep > 0 {
		mem.Compact(cfg.HistoryKeep, cfg.ErrorKeep)
	}

	// Transcript archive — optional, the agent runs fine without it
	arch, err := archive.Open(cfg.ArchiveDir)
	if err != nil {
		log.Printf("[main] WARNING: archive unavailable: %v", err)
	}
	defer arch.Close()

	// Context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nstride: shutting down")
		cancel()
	}()

	// LLM client — shared by planner, executor, and evaluator
	llmClient := llm.New()

	// MCP tool server — optional
	var tools *toolbox.Toolbox
	if cfg.ToolsCommand != "" {
		tools, err = toolbox.Connect(ctx, cfg.ToolsCommand, cfg.ToolsArgs...)
		if err != nil {
			log.Printf("[main] WARNING: tool server unavailable: %v", err)
			tools = nil
		} else {
			defer tools.Close()
		}
	}

	// Progress display reads from the event stream
	stream := events.NewStream()
	display := ui.New(stream.Subscribe())
	go display.Run(ctx)

	orch := orchestrator.New(orchestrator.Config{
		Planner:   planner.New(llmClient, store),
		Executor:  executor.New(llmClient, tools),
		Evaluator: evaluator.New(llmClient, store),
		Memory:    mem,
		Store:     store,
		Logs:      tasklog.NewRegistry(cfg.TaskLogDir),
		Archive:   arch,
		Stream:    stream,
	})
	session := chat.New(llmClient, orch, mem, store, tools, arch)

	// REPL or one-shot
	if len(os.Args) > 1 && os.Args[1] != "" {
		input := strings.Join(os.Args[1:], " ")
		reply, _, err := session.Handle(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			saveOnExit(store, mem)
			os.Exit(1)
		}
		// Let the display drain its pipeline box before the reply.
		time.Sleep(200 * time.Millisecond)
		fmt.Println(reply)
		saveOnExit(store, mem)
		return
	}
	runREPL(ctx, session, display, cfg)
	saveOnExit(store, mem)
}

func runREPL(ctx context.Context, session *chat.Session, display *ui.Display, cfg config.Config) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "stride> ",
		HistoryFile:     filepath.Join(filepath.Dir(cfg.MemoryFile), "repl_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: readline: %v\n", err)
		return
	}
	defer rl.Close()

	fmt.Println("stride — software engineering agent (/help for commands)")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			display.Abort()
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			return
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		display.Resume()
		reply, quit, err := session.Handle(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		// Give the display a beat to close its pipeline box.
		time.Sleep(150 * time.Millisecond)
		if reply != "" {
			fmt.Println(reply)
		}
		if quit {
			return
		}
	}
}

func openDebugLog(path string) *os.File {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return f
}

func saveOnExit(store *memory.Store, mem *memory.AgentMemory) {
	if err := store.Save(mem); err != nil {
		log.Printf("[main] WARNING: save on exit: %v", err)
	}
}
