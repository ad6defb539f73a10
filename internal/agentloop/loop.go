package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/skilllite/skilllite/internal/dispatch"
	"github.com/skilllite/skilllite/internal/llm"
	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// Loop drives one turn of the agent. It is grounded in
// internal/agent/state.go's AgentState/StepRecord shape and
// internal/agent/decide.go's per-step decision flow, collapsed into a
// single iterative method: the context-overflow retry (which mutates the
// message list between attempts) and progressive disclosure (which
// retracts the just-appended assistant message) both need to mutate
// shared state mid-retry in ways the generic core.BaseNode Prep/Exec/Post
// contract doesn't accommodate, so the loop body is a plain method rather
// than a Node — the state machine shape is still AgentState's, not a
// from-scratch design.
type Loop struct {
	provider   llm.Provider
	registry   *tool.Registry
	dispatcher *dispatch.Dispatcher
	skills     map[string]*manifest.Manifest
	sink       Sink
	checkpoint CheckpointStore
	cfg        Config
}

// New builds a Loop. skills is the same name->manifest catalog the
// dispatcher was built with — the loop needs it directly for progressive
// disclosure and for building skill tool-definitions.
func New(provider llm.Provider, registry *tool.Registry, dispatcher *dispatch.Dispatcher, skills map[string]*manifest.Manifest, sink Sink, checkpoint CheckpointStore, cfg Config) *Loop {
	return &Loop{
		provider:   provider,
		registry:   registry,
		dispatcher: dispatcher,
		skills:     skills,
		sink:       sink,
		checkpoint: checkpoint,
		cfg:        cfg,
	}
}

// Run executes one full turn: emit the caller-supplied plan (if
// plan-driven), then iterate until a termination condition fires
// (spec.md §4.10).
func (l *Loop) Run(ctx context.Context, sessionID string, systemPrompt, userMessage string, tasks []taskplan.Task) (Result, error) {
	st := &loopState{
		sessionID: sessionID,
		cfg:       l.cfg,
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userMessage},
		},
		tasks:            tasks,
		documentedSkills: make(map[string]bool),
	}

	if l.cfg.Mode == ModePlanDriven {
		st.effectiveMax = taskplan.EffectiveMaxIterations(len(tasks), l.cfg.PerTaskMaxToolCalls, l.cfg.GlobalMaxIterations)
		l.sink.TaskPlan(tasks)
	} else {
		st.effectiveMax = l.cfg.GlobalMaxIterations
	}

	// An empty plan means "answer directly, no tools" (spec.md §4.9).
	omitTools := l.cfg.Mode == ModePlanDriven && len(tasks) == 0

	l.sink.TurnStart()
	totalToolCallCap := st.effectiveMax * l.cfg.PerTaskMaxToolCalls
	for !st.done {
		if st.effectiveMax > 0 && st.iterations >= st.effectiveMax {
			st.terminated = "iterations >= effective max"
			break
		}
		if totalToolCallCap > 0 && st.totalToolCalls >= totalToolCallCap {
			st.terminated = "total tool calls >= effective max * per-task max"
			break
		}
		if err := l.iterate(ctx, st, omitTools); err != nil {
			st.terminated = fmt.Sprintf("fatal error: %v", err)
			break
		}
		if l.checkpoint != nil {
			if err := l.checkpoint.Save(ctx, l.buildCheckpoint(st)); err != nil {
				log.Printf("[agentloop] checkpoint save failed: %v", err)
			}
		}
	}
	if st.terminated == "" {
		st.terminated = "all tasks completed"
	}

	return Result{
		FinalText:      st.finalText,
		Tasks:          st.tasks,
		Iterations:     st.iterations,
		TotalToolCalls: st.totalToolCalls,
		Terminated:     st.terminated,
	}, nil
}

// iterate runs a single pass of call-model -> dispatch (spec.md §4.10
// steps 1-8). It mutates st in place and sets st.done when the loop
// should stop.
func (l *Loop) iterate(ctx context.Context, st *loopState, omitTools bool) error {
	st.iterations++

	var tools []llm.ToolDefinition
	if !omitTools {
		tools = l.toolDefinitions()
	}

	reply, err := l.completeWithOverflowRetry(ctx, st, tools)
	if err != nil {
		return err
	}

	if len(reply.ToolCalls) == 0 {
		l.reflect(st, reply.Content)
		return nil
	}

	st.messages = append(st.messages, reply)
	return l.execute(ctx, st, reply.Content, reply.ToolCalls)
}

// completeWithOverflowRetry implements spec.md §4.10 step 2: on a
// context-overflow error, truncate historic tool messages to a recovery
// length and retry, up to MaxContextOverflowRetries times.
func (l *Loop) completeWithOverflowRetry(ctx context.Context, st *loopState, tools []llm.ToolDefinition) (llm.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= st.cfg.MaxContextOverflowRetries; attempt++ {
		reply, err := l.provider.Complete(ctx, st.messages, tools)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !llm.IsContextOverflow(err) {
			return llm.Message{}, err
		}
		truncateToolMessages(st.messages, st.cfg.RecoveryLength)
	}
	return llm.Message{}, fmt.Errorf("context overflow persisted after %d retries: %w", st.cfg.MaxContextOverflowRetries, lastErr)
}

// truncateToolMessages cuts every tool-role message longer than
// recoveryLength bytes down to its first recoveryLength bytes in place and
// appends a truncation note; shorter messages are left untouched.
func truncateToolMessages(messages []llm.Message, recoveryLength int) {
	for i := range messages {
		if messages[i].Role != llm.RoleTool {
			continue
		}
		if len(messages[i].Content) > recoveryLength {
			messages[i].Content = messages[i].Content[:recoveryLength] + "\n... (truncated for context recovery)"
		}
	}
}

// reflect handles a no-tool-call response (spec.md §4.10 step 3):
// extract completion claims, terminate if everything is done, otherwise
// nudge or give up after MaxConsecutiveNoToolResponses.
func (l *Loop) reflect(st *loopState, text string) {
	completed := taskplan.CheckCompletion(text, st.tasks)
	for _, id := range completed {
		taskplan.MarkCompleted(st.tasks, id)
		l.sink.TaskProgress(id, true)
	}

	if len(st.tasks) == 0 || taskplan.AllCompleted(st.tasks) {
		l.sink.Text(text)
		st.finalText = text
		st.done = true
		return
	}

	if len(completed) > 0 {
		st.consecutiveNoToolResponses = 0
	} else {
		st.consecutiveNoToolResponses++
	}

	if st.consecutiveNoToolResponses >= st.cfg.MaxConsecutiveNoToolResponses {
		l.sink.Text(text)
		st.finalText = text
		st.done = true
		st.terminated = "no-tool retries exhausted"
		return
	}

	st.messages = append(st.messages, llm.Message{Role: llm.RoleAssistant, Content: text})
	if nudge := taskplan.BuildNudgeMessage(st.tasks); nudge != "" {
		st.messages = append(st.messages, llm.Message{Role: llm.RoleUser, Content: nudge})
	}
}

// execute handles a tool-call response (spec.md §4.10 steps 4-8):
// progressive disclosure first, then dispatch each call, then depth
// guard, completion check, and focus refresh.
func (l *Loop) execute(ctx context.Context, st *loopState, assistantText string, calls []llm.ToolCall) error {
	if undocumented := l.firstUndocumentedSkill(st, calls); undocumented != "" {
		l.discloseSkill(st, undocumented)
		return nil
	}

	for _, call := range calls {
		result, _ := l.dispatcher.Dispatch(ctx, call.Name, call.Arguments)
		st.totalToolCalls++
		st.taskToolCalls++

		if result.Error != "" {
			st.consecutiveToolFailures++
		} else {
			st.consecutiveToolFailures = 0
		}

		st.messages = append(st.messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    toolResultContent(result),
			ToolCallID: call.ID,
			Name:       call.Name,
		})

		if st.consecutiveToolFailures >= st.cfg.MaxConsecutiveToolFailures {
			st.done = true
			st.terminated = "consecutive tool failures exceeded limit"
			return nil
		}
	}

	l.depthGuard(st)
	l.completionCheck(st, assistantText)
	l.focusRefresh(st)
	return nil
}

func toolResultContent(r tool.ToolResult) string {
	if r.Error != "" {
		return "error: " + r.Error
	}
	return r.Output
}

// firstUndocumentedSkill returns the name of the first called skill that
// hasn't had its documentation injected this turn, or "" if none.
func (l *Loop) firstUndocumentedSkill(st *loopState, calls []llm.ToolCall) string {
	for _, call := range calls {
		if _, isSkill := l.skills[call.Name]; !isSkill {
			continue
		}
		if !st.documentedSkills[call.Name] {
			return call.Name
		}
	}
	return ""
}

// discloseSkill implements spec.md §4.10 step 5's progressive
// disclosure: retract the just-added assistant message (since its tool
// calls will go unanswered this round), inject the skill's full
// documentation as a user message, and mark it documented so the next
// pass through iterate can actually dispatch it.
func (l *Loop) discloseSkill(st *loopState, name string) {
	if len(st.messages) > 0 && st.messages[len(st.messages)-1].Role == llm.RoleAssistant {
		st.messages = st.messages[:len(st.messages)-1]
	}
	doc := l.skillDocumentation(name)
	st.messages = append(st.messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Documentation for skill %q:\n\n%s", name, doc),
	})
	st.documentedSkills[name] = true
}

// depthGuard implements spec.md §4.10 step 6: once a task has used its
// full per-task tool-call budget, force a summary and move on.
func (l *Loop) depthGuard(st *loopState) {
	if st.cfg.Mode != ModePlanDriven || st.cfg.PerTaskMaxToolCalls <= 0 {
		return
	}
	if st.taskToolCalls < st.cfg.PerTaskMaxToolCalls {
		return
	}
	current := taskplan.CurrentTask(st.tasks)
	if current == nil {
		return
	}
	st.messages = append(st.messages, llm.Message{
		Role: llm.RoleUser,
		Content: fmt.Sprintf("You've used the full tool budget for task %d. Summarize what was accomplished and declare \"task %d completed\" now.",
			current.ID, current.ID),
	})
	st.taskToolCalls = 0
}

// completionCheck implements spec.md §4.10 step 7.
func (l *Loop) completionCheck(st *loopState, assistantText string) {
	completed := taskplan.CheckCompletion(assistantText, st.tasks)
	for _, id := range completed {
		taskplan.MarkCompleted(st.tasks, id)
		l.sink.TaskProgress(id, true)
	}
	if len(st.tasks) == 0 || taskplan.AllCompleted(st.tasks) {
		st.done = true
	}
}

// focusRefresh implements spec.md §4.10 step 8: remind the model of the
// plan and current task before the next inference call.
func (l *Loop) focusRefresh(st *loopState) {
	if st.cfg.Mode != ModePlanDriven {
		return
	}
	if nudge := taskplan.BuildNudgeMessage(st.tasks); nudge != "" {
		st.messages = append(st.messages, llm.Message{Role: llm.RoleSystem, Content: nudge})
	}
}

// toolDefinitions combines the built-in registry with the skill catalog,
// since both are callable by name through the same dispatcher.
func (l *Loop) toolDefinitions() []llm.ToolDefinition {
	defs := l.registry.GenerateToolDefinitions()
	for name, m := range l.skills {
		desc := m.Description
		if desc == "" {
			desc = "(no description)"
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        name,
			Description: desc,
			Parameters:  json.RawMessage(`{"type":"object","additionalProperties":true}`),
		})
	}
	return defs
}

// skillDocumentation returns a skill's SKILL.md content with the YAML
// front matter stripped, for progressive disclosure. Falls back to the
// manifest's description if the file can't be read.
func (l *Loop) skillDocumentation(name string) string {
	m, ok := l.skills[name]
	if !ok {
		return "(no documentation available)"
	}
	body, err := readSkillBody(m.Dir)
	if err != nil {
		return m.Description
	}
	return body
}

// readSkillBody reads <dir>/SKILL.md and strips the leading
// "---\n...\n---\n" front-matter block, leaving the markdown body the
// model should read — the inverse of manifest.parse.go's front-matter
// extraction, reimplemented locally since manifest doesn't keep the body
// around after parsing the front matter into a Manifest.
func readSkillBody(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
	if err != nil {
		return "", err
	}
	text := string(data)
	if !strings.HasPrefix(text, "---") {
		return text, nil
	}
	rest := text[3:]
	end := strings.Index(rest, "---")
	if end == -1 {
		return text, nil
	}
	return strings.TrimSpace(rest[end+3:]), nil
}
