// Package agentloop implements the agent's per-turn state machine
// (spec.md §4.10): a single loop body selected into simple or plan-driven
// mode, calling the model, dispatching tool calls through C7, detecting
// task completion, and persisting a checkpoint every iteration.
package agentloop

import (
	"github.com/skilllite/skilllite/internal/llm"
	"github.com/skilllite/skilllite/internal/taskplan"
)

// Mode selects whether the loop tracks a task plan or runs unmanaged.
type Mode string

const (
	ModeSimple     Mode = "simple"
	ModePlanDriven Mode = "plan_driven"
)

// Config holds the tunables spec.md §4.10 names. Zero-value Config is
// invalid — use DefaultConfig and override only what's needed.
type Config struct {
	Mode Mode

	// GlobalMaxIterations caps total model calls regardless of plan size.
	GlobalMaxIterations int
	// PerTaskMaxToolCalls is the per-task tool-call budget the plan-driven
	// iteration cap (taskCount × PerTaskMaxToolCalls) is built from.
	PerTaskMaxToolCalls int

	// MaxContextOverflowRetries bounds the truncate-and-retry loop on a
	// context-overflow error (spec.md §4.10 step 2), default 3.
	MaxContextOverflowRetries int
	// RecoveryLength is how many characters of each historic tool message
	// survive truncation on a context-overflow retry, default ~3000.
	RecoveryLength int

	// MaxConsecutiveNoToolResponses terminates the loop after this many
	// back-to-back non-progressing no-tool-call responses, default 3.
	MaxConsecutiveNoToolResponses int
	// MaxConsecutiveToolFailures terminates the loop after this many
	// back-to-back failed tool results, default 3.
	MaxConsecutiveToolFailures int
}

// DefaultConfig returns spec.md §4.10's suggested defaults.
func DefaultConfig(mode Mode) Config {
	return Config{
		Mode:                          mode,
		GlobalMaxIterations:           40,
		PerTaskMaxToolCalls:           8,
		MaxContextOverflowRetries:     3,
		RecoveryLength:                3000,
		MaxConsecutiveNoToolResponses: 3,
		MaxConsecutiveToolFailures:    3,
	}
}

// Sink is the subset of the event-sink capability set (spec.md §4.12) the
// loop itself drives directly. tool_call/tool_result are emitted by the
// dispatcher (internal/dispatch.EventEmitter) and confirmation_request by
// the sandbox runner (internal/sandbox.Confirmer) — both wired
// separately, so this interface only covers turn framing and plan
// visibility. internal/sink's concrete type satisfies all three.
type Sink interface {
	TurnStart()
	Text(text string)
	TextChunk(chunk string)
	TaskPlan(tasks []taskplan.Task)
	TaskProgress(taskID int, completed bool)
}

// Result is what Run returns once the loop terminates.
type Result struct {
	FinalText      string
	Tasks          []taskplan.Task
	Iterations     int
	TotalToolCalls int
	Terminated     string // human-readable termination reason, for logs/audit
}

// loopState is the AgentState analogue (internal/agent/state.go):
// everything the per-iteration node reads and mutates, kept in one
// non-goroutine-safe struct per the same single-goroutine contract.
type loopState struct {
	sessionID string
	cfg       Config

	messages []llm.Message
	tasks    []taskplan.Task

	iterations                 int
	totalToolCalls             int
	taskToolCalls              int
	consecutiveNoToolResponses int
	consecutiveToolFailures    int

	documentedSkills map[string]bool

	effectiveMax int
	done         bool
	finalText    string
	terminated   string
}
