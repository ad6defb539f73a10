package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// Styling mirrors quorum-ai's tui/colors.go palette (internal/tui/colors.go
// in the examples pack): purple for structural chrome, green/red for
// success/failure, muted gray for secondary detail.
var (
	toolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	planStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	askStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
)

// Terminal renders events for an interactive shell session: streamed text
// as it arrives, a styled plan listing, colored tool-call/result lines, and
// a blocking y/n prompt for confirmations.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
	r  *bufio.Reader
}

// NewTerminal builds a Terminal sink writing to w and reading confirmation
// answers from r (typically os.Stdout / os.Stdin). r may be nil if
// confirmation prompts are never expected to be answered (they'll be
// denied).
func NewTerminal(w io.Writer, r io.Reader) *Terminal {
	t := &Terminal{w: w}
	if r != nil {
		t.r = bufio.NewReader(r)
	}
	return t
}

func (t *Terminal) TurnStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w)
}

func (t *Terminal) Text(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, text)
}

// TextChunk writes streamed tokens with no trailing newline, since more
// chunks are expected to follow on the same line.
func (t *Terminal) TextChunk(chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, chunk)
}

func (t *Terminal) TaskPlan(tasks []taskplan.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(t.w, planStyle.Render(fmt.Sprintf("Plan (%d tasks):", len(tasks))))
	for _, task := range tasks {
		box := "[ ]"
		if task.Completed {
			box = "[x]"
		}
		fmt.Fprintf(t.w, "  %s %d. %s\n", box, task.ID, task.Description)
	}
}

func (t *Terminal) TaskProgress(taskID int, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !completed {
		return
	}
	fmt.Fprintln(t.w, okStyle.Render(fmt.Sprintf("  ✓ task %d completed", taskID)))
}

func (t *Terminal) ToolCall(name string, args json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, toolStyle.Render("→ "+name)+doneStyle.Render(" "+compactArgs(args)))
}

func (t *Terminal) ToolResult(name string, result tool.ToolResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if result.Error != "" {
		fmt.Fprintln(t.w, errStyle.Render("✗ "+name+": "+result.Error))
		return
	}
	fmt.Fprintln(t.w, doneStyle.Render("  "+truncateLine(result.Output, 200)))
}

func (t *Terminal) ConfirmationRequest(ctx context.Context, prompt string) bool {
	t.mu.Lock()
	fmt.Fprint(t.w, askStyle.Render("? "+prompt+" [y/N] "))
	t.mu.Unlock()

	if t.r == nil {
		return false
	}

	type answerResult struct {
		line string
		err  error
	}
	answers := make(chan answerResult, 1)
	go func() {
		line, err := t.r.ReadString('\n')
		answers <- answerResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return false
	case a := <-answers:
		if a.err != nil && a.line == "" {
			return false
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes"
	}
}

func compactArgs(args json.RawMessage) string {
	return truncateLine(string(args), 120)
}

func truncateLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
