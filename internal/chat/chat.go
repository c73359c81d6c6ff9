// Package chat is the conversational surface of the agent. It routes each
// input three ways: slash commands are handled locally, inputs that look
// like work requests go through the task orchestrator, and everything else
// is answered directly by the LLM.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cwhuang/stride/internal/archive"
	"github.com/cwhuang/stride/internal/executor"
	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/orchestrator"
	"github.com/cwhuang/stride/internal/toolbox"
	"github.com/cwhuang/stride/internal/types"
	"github.com/cwhuang/stride/internal/ui"
)

// taskVerbs mark an input as a work request rather than a question.
// Matching is case-insensitive on whole words.
var taskVerbs = []string{
	"create", "build", "implement", "write", "develop",
	"fix", "debug", "refactor", "test", "deploy",
	"setup", "install", "configure",
}

// IsTaskRequest reports whether input should be routed through the task
// loop instead of being answered directly.
func IsTaskRequest(input string) bool {
	for _, word := range strings.Fields(strings.ToLower(input)) {
		word = strings.Trim(word, ".,!?;:'\"")
		for _, verb := range taskVerbs {
			if word == verb {
				return true
			}
		}
	}
	return false
}

const qaHistoryWindow = 3

// Session routes one user's inputs. Not safe for concurrent use.
type Session struct {
	llm   llm.Chatter
	orch  *orchestrator.Orchestrator
	mem   *memory.AgentMemory
	store *memory.Store
	tools *toolbox.Toolbox
	arch  *archive.Archive
}

// New creates a Session. arch may be nil when no task archive is open.
func New(chatter llm.Chatter, orch *orchestrator.Orchestrator, mem *memory.AgentMemory, store *memory.Store, tools *toolbox.Toolbox, arch *archive.Archive) *Session {
	return &Session{llm: chatter, orch: orch, mem: mem, store: store, tools: tools, arch: arch}
}

// Handle processes one input line. quit is true when the user asked to
// leave the session. A non-nil error means the LLM was unreachable; the
// session itself stays usable.
func (s *Session) Handle(ctx context.Context, input string) (reply string, quit bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false, nil
	}
	if strings.HasPrefix(input, "/") {
		return s.command(ctx, input)
	}
	if IsTaskRequest(input) {
		report, err := s.orch.ExecuteTask(ctx, input)
		if err != nil {
			return "", false, err
		}
		return summarize(report), false, nil
	}
	return s.answer(ctx, input)
}

// answer is the plain Q&A path: persona + recent history, no task loop.
func (s *Session) answer(ctx context.Context, input string) (string, bool, error) {
	recent := s.mem.RecentConversation(qaHistoryWindow)
	s.mem.AppendConversation(types.RoleUser, input)

	messages := []llm.Message{{Role: "system", Content: executor.Instruction}}
	for _, entry := range recent {
		messages = append(messages, llm.Message{Role: string(entry.Role), Content: entry.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: input})

	content, _, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", false, err
	}
	content = llm.StripThinkBlocks(content)
	s.mem.AppendConversation(types.RoleAssistant, content)
	if err := s.store.Save(s.mem); err != nil {
		log.Printf("[chat] WARNING: persist after answer: %v", err)
	}
	return content, false, nil
}

func (s *Session) command(ctx context.Context, input string) (string, bool, error) {
	cmd := strings.ToLower(strings.Fields(input)[0])
	switch cmd {
	case "/exit", "/quit":
		if err := s.store.Save(s.mem); err != nil {
			return fmt.Sprintf("goodbye (memory not saved: %v)", err), true, nil
		}
		return "goodbye", true, nil

	case "/help":
		return helpText, false, nil

	case "/clear":
		s.mem.ClearConversation()
		return ui.Statusf("conversation history cleared"), false, nil

	case "/history":
		return s.historyTable(), false, nil

	case "/memory":
		st := s.mem.Stats()
		return ui.Table(
			[]string{"collection", "entries"},
			[][]string{
				{"conversation_history", fmt.Sprint(st.Conversations)},
				{"task_plans", fmt.Sprint(st.TaskPlans)},
				{"completed_tasks", fmt.Sprint(st.CompletedTasks)},
				{"learned_patterns", fmt.Sprint(st.LearnedPatterns)},
				{"error_log", fmt.Sprint(st.ErrorRecords)},
			},
		), false, nil

	case "/plans":
		return s.plansTable(), false, nil

	case "/recent":
		return s.recentTable(), false, nil

	case "/status":
		return s.statusText(), false, nil

	case "/tools":
		return s.toolsTable(ctx), false, nil

	case "/reset":
		s.mem.Reset()
		if err := s.store.Save(s.mem); err != nil {
			return fmt.Sprintf("memory reset (save failed: %v)", err), false, nil
		}
		return ui.Statusf("memory reset"), false, nil

	case "/save":
		if err := s.store.Save(s.mem); err != nil {
			return fmt.Sprintf("save failed: %v", err), false, nil
		}
		return ui.Statusf("memory saved to %s", s.store.Path()), false, nil

	case "/load":
		loaded, err := s.store.Load()
		if err != nil {
			return fmt.Sprintf("load failed: %v", err), false, nil
		}
		*s.mem = *loaded
		return ui.Statusf("memory loaded from %s", s.store.Path()), false, nil
	}
	return fmt.Sprintf("unknown command %s (try /help)", cmd), false, nil
}

const helpText = `commands:
  /help     show this help
  /exit     save memory and quit (/quit works too)
  /clear    clear conversation history
  /history  show recent conversation
  /memory   show memory statistics
  /plans    list task plans
  /recent   show recently archived task reports
  /status   show agent status
  /tools    list available tools
  /reset    wipe all memory
  /save     persist memory now
  /load     reload memory from disk`

func (s *Session) historyTable() string {
	recent := s.mem.RecentConversation(10)
	if len(recent) == 0 {
		return "no conversation yet"
	}
	rows := make([][]string, 0, len(recent))
	for _, entry := range recent {
		rows = append(rows, []string{
			entry.Timestamp.Format("15:04:05"),
			string(entry.Role),
			ui.ClipWidth(oneLine(entry.Content), 70),
		})
	}
	return ui.Table([]string{"time", "role", "content"}, rows)
}

func (s *Session) plansTable() string {
	if len(s.mem.TaskPlans) == 0 {
		return "no task plans yet"
	}
	rows := make([][]string, 0, len(s.mem.TaskPlans))
	for _, p := range s.mem.TaskPlans {
		rows = append(rows, []string{
			p.TaskID,
			string(p.Status),
			fmt.Sprint(len(p.Steps)),
			ui.ClipWidth(p.Description, 50),
		})
	}
	return ui.Table([]string{"task", "status", "steps", "description"}, rows)
}

func (s *Session) recentTable() string {
	if s.arch == nil {
		return "no task archive open"
	}
	reports, err := s.arch.Recent(10)
	if err != nil {
		return fmt.Sprintf("archive read failed: %v", err)
	}
	if len(reports) == 0 {
		return "no archived tasks yet"
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		outcome := "completed"
		if r.Partial {
			outcome = fmt.Sprintf("partial (%d unresolved)", len(r.FailedSteps))
		}
		rows = append(rows, []string{
			r.Timestamp.Format("01-02 15:04"),
			r.Plan.TaskID,
			fmt.Sprint(len(r.Steps)),
			outcome,
			ui.ClipWidth(r.Plan.Description, 40),
		})
	}
	return ui.Table([]string{"archived", "task", "steps", "outcome", "description"}, rows)
}

func (s *Session) statusText() string {
	st := s.mem.Stats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "memory file: %s\n", s.store.Path())
	fmt.Fprintf(&sb, "completed tasks: %d\n", st.CompletedTasks)
	fmt.Fprintf(&sb, "learned patterns: %d\n", st.LearnedPatterns)
	fmt.Fprintf(&sb, "errors recorded: %d\n", st.ErrorRecords)
	if s.tools == nil {
		sb.WriteString("tools: not connected")
	} else {
		sb.WriteString("tools: connected")
	}
	return sb.String()
}

func (s *Session) toolsTable(ctx context.Context) string {
	if s.tools == nil {
		return "no tool server connected"
	}
	tools, err := s.tools.Tools(ctx)
	if err != nil {
		return fmt.Sprintf("tool listing failed: %v", err)
	}
	if len(tools) == 0 {
		return "tool server reports no tools"
	}
	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		rows = append(rows, []string{t.Name, ui.ClipWidth(t.Description, 60)})
	}
	return ui.Table([]string{"tool", "description"}, rows)
}

// summarize renders a finished task report for the terminal.
func summarize(report *types.TaskReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "task %s completed: %d step(s)", report.Plan.TaskID, len(report.Steps))
	if report.Partial {
		fmt.Fprintf(&sb, ", %d unresolved", len(report.FailedSteps))
	}
	sb.WriteString("\n")
	for _, rec := range report.Steps {
		mark := "✓"
		if rec.Failed() {
			mark = "✗"
		} else if rec.Retry != nil {
			mark = "✓ (after retry)"
		}
		fmt.Fprintf(&sb, "  %d. %s %s\n", rec.Index, ui.ClipWidth(oneLine(rec.Step), 60), mark)
	}
	if last := lastResponse(report); last != "" {
		sb.WriteString("\n")
		sb.WriteString(last)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// lastResponse returns the final step's response text, the closest thing a
// multi-step task has to an overall answer.
func lastResponse(report *types.TaskReport) string {
	if len(report.Steps) == 0 {
		return ""
	}
	last := report.Steps[len(report.Steps)-1]
	if last.Retry != nil && last.Retry.Evaluation.Success {
		return last.Retry.Result.Response
	}
	return last.Result.Response
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
