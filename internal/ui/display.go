package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cwhuang/stride/internal/events"
)

// ANSI codes
const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiBlue   = "\033[34m"
)

var kindColor = map[events.Kind]string{
	events.KindTaskStarted:   ansiCyan,
	events.KindPlanReady:     ansiBlue,
	events.KindStepStarted:   ansiYellow,
	events.KindStepEvaluated: ansiGreen,
	events.KindRetryStarted:  ansiRed,
	events.KindRetryFixed:    ansiGreen,
	events.KindRetryFailed:   ansiRed,
	events.KindTaskCompleted: ansiGreen,
}

var kindStatus = map[events.Kind]string{
	events.KindTaskStarted:   "📋 planning...",
	events.KindPlanReady:     "⚙️  executing...",
	events.KindStepStarted:   "⚙️  executing...",
	events.KindStepEvaluated: "🔍 evaluating...",
	events.KindRetryStarted:  "🔧 fixing...",
	events.KindRetryFixed:    "⚙️  executing...",
	events.KindRetryFailed:   "⚙️  executing...",
}

// dynamicStatus returns a spinner label for ev, enriched with step detail
// where the static label alone is not informative enough.
func dynamicStatus(ev events.Event) string {
	switch ev.Kind {
	case events.KindStepStarted:
		if ev.Step != "" {
			return fmt.Sprintf("⚙️  step %d/%d — %s", ev.StepIndex, ev.StepTotal, clip(ev.Step, 55))
		}
	case events.KindRetryStarted:
		return fmt.Sprintf("🔧 fixing step %d/%d...", ev.StepIndex, ev.StepTotal)
	}
	if s := kindStatus[ev.Kind]; s != "" {
		return s
	}
	return ""
}

var spinRunes = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Display renders a live task-progress view to stdout. It reads from an
// event stream subscription and animates a pipeline box per task.
type Display struct {
	sub      <-chan events.Event
	abortCh  chan struct{}
	resumeCh chan struct{}
	mu       sync.Mutex
	status   string
	started  time.Time
	inTask   bool
	spinIdx  int
	// true after Abort(); blocks new pipeline boxes until Resume()
	suppressed bool
}

// New creates a Display reading from sub.
func New(sub <-chan events.Event) *Display {
	return &Display{sub: sub, abortCh: make(chan struct{}, 1), resumeCh: make(chan struct{}, 1)}
}

// Abort signals the display to immediately close the current pipeline box
// and suppress any subsequent stale events until Resume() is called.
// Safe to call from any goroutine.
func (d *Display) Abort() {
	select {
	case d.abortCh <- struct{}{}:
	default:
	}
}

// Resume lifts the post-abort suppression so the next task can open a
// pipeline box. Safe to call from any goroutine.
func (d *Display) Resume() {
	select {
	case d.resumeCh <- struct{}{}:
	default:
	}
}

// Run is the main goroutine. All terminal writes happen here, so no extra
// locking is needed for I/O.
func (d *Display) Run(ctx context.Context) {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\033[K")
			return

		case <-d.abortCh:
			if d.inTask {
				fmt.Print("\r\033[K")
				d.endTask(false)
			}
			d.mu.Lock()
			d.suppressed = true
			d.mu.Unlock()

		case <-d.resumeCh:
			d.mu.Lock()
			d.suppressed = false
			d.mu.Unlock()

		case ev, ok := <-d.sub:
			if !ok {
				return
			}
			if !d.inTask {
				d.mu.Lock()
				sup := d.suppressed
				d.mu.Unlock()
				if sup {
					// Drain stale post-abort events silently.
					continue
				}
				d.startTask(ev.TaskID)
			}
			fmt.Print("\r\033[K")
			d.printFlow(ev)
			d.setStatus(dynamicStatus(ev))
			if ev.Kind == events.KindTaskCompleted {
				d.endTask(true)
			}

		case <-ticker.C:
			if !d.inTask {
				continue
			}
			frame := spinRunes[d.spinIdx%len(spinRunes)]
			d.spinIdx++
			d.mu.Lock()
			status := d.status
			d.mu.Unlock()
			fmt.Printf("\r%s%s%s %s", ansiCyan, string(frame), ansiReset, status)
		}
	}
}

func (d *Display) startTask(taskID string) {
	d.started = time.Now()
	d.inTask = true
	d.setStatus("initializing...")
	fmt.Printf("\n%s┌─── ⚡ %s %s%s\n", ansiDim, taskID, strings.Repeat("─", 40), ansiReset)
}

func (d *Display) endTask(success bool) {
	d.inTask = false
	elapsed := time.Since(d.started).Round(time.Millisecond)
	icon := "✅"
	if !success {
		icon = "❌"
	}
	fmt.Printf("\r\033[K%s└─── %s  %v %s%s\n", ansiDim, icon, elapsed, strings.Repeat("─", 35), ansiReset)
}

func (d *Display) setStatus(s string) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

func (d *Display) printFlow(ev events.Event) {
	// TaskCompleted is surfaced via endTask; skip its flow line.
	if ev.Kind == events.KindTaskCompleted {
		return
	}

	label := string(ev.Kind)
	if det := eventDetail(ev); det != "" {
		label += ": " + det
	}

	color := kindColor[ev.Kind]
	if color == "" {
		color = ansiDim
	}

	var line string
	if ev.StepIndex > 0 {
		line = fmt.Sprintf("  step %d/%d ──[%s%s%s]", ev.StepIndex, ev.StepTotal, color, label, ansiReset)
	} else {
		line = fmt.Sprintf("  task ──[%s%s%s]", color, label, ansiReset)
	}
	fmt.Println(line)
}

func eventDetail(ev events.Event) string {
	switch ev.Kind {
	case events.KindTaskStarted, events.KindPlanReady:
		return clip(ev.Detail, 55)
	case events.KindStepStarted, events.KindRetryStarted:
		return clip(ev.Step, 50)
	case events.KindStepEvaluated, events.KindRetryFixed, events.KindRetryFailed:
		return clip(ev.Detail, 45)
	}
	return ""
}

// clip truncates s to at most n characters, appending "…" if trimmed.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
