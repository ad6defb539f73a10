package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/rules"
	"github.com/skilllite/skilllite/internal/sink"
	"github.com/skilllite/skilllite/internal/taskplan"
)

// newChatCmd starts an interactive REPL session: one agent-loop turn per
// line of stdin, rendered through the terminal sink, with every skill in
// the workspace available as a tool.
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session against the discovered skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			defer a.close()

			if a.provider == nil {
				return &cliError{code: 1, err: fmt.Errorf("chat: no LLM configured (set SKILLLITE_API_KEY)")}
			}

			sessionID := a.newSessionID()
			if err := a.transcriptStore.WriteHeader(sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: transcript: %v\n", err)
			}

			term := sink.NewTerminal(cmd.OutOrStdout(), os.Stdin)
			s := newAuditingSink(term, a.auditStore, sessionID)

			registry, err := a.newRegistry(sessionID, s)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			skills, err := a.discoverSkills()
			if err != nil {
				return &cliError{code: 1, err: err}
			}

			sandboxRunner := a.newSandboxRunner(s)
			dispatcher := a.newDispatcher(registry, skills, sandboxRunner)
			dispatcher.SetEmitter(s)

			loop := a.newAgentLoop(a.provider, registry, dispatcher, skills, s)
			planner := taskplan.NewPlanner(a.provider, a.rulesEngine)
			skillList := manifestList(skills)

			watcher := manifest.NewWatcher(a.workspaceRoot)
			defer watcher.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			reader := bufio.NewScanner(os.Stdin)
			fmt.Fprintln(cmd.OutOrStdout(), "skilllite chat — type a message and press enter (Ctrl-D to quit)")
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !reader.Scan() {
					break
				}
				line := reader.Text()
				if line == "" {
					continue
				}

				select {
				case <-watcher.OnChange():
					refreshed, err := a.discoverSkills()
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: rescan: %v\n", err)
						break
					}
					for name := range skills {
						delete(skills, name)
					}
					for name, m := range refreshed {
						skills[name] = m
					}
					skillList = manifestList(skills)
					fmt.Fprintln(cmd.ErrOrStderr(), "skilllite: skills directory changed, reloaded")
				default:
				}

				if _, err := a.transcriptStore.AppendMessage(sessionID, "", "user", line, nil); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: transcript: %v\n", err)
				}

				tasks, err := planner.GenerateTaskList(ctx, line, skillList)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: plan: %v\n", err)
				}

				systemPrompt := buildSystemPrompt(a.rulesEngine, line)
				result, err := loop.Run(ctx, sessionID, systemPrompt, line, tasks)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: %v\n", err)
					continue
				}

				if _, err := a.transcriptStore.AppendMessage(sessionID, "", "assistant", result.FinalText, nil); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skilllite: transcript: %v\n", err)
				}
			}
			return nil
		},
	}
}

func manifestList(skills map[string]*manifest.Manifest) []*manifest.Manifest {
	out := make([]*manifest.Manifest, 0, len(skills))
	for _, m := range skills {
		out = append(out, m)
	}
	return out
}

func buildSystemPrompt(engine *rules.Engine, userMessage string) string {
	tmpl := engine.Template("system.md")
	compacted := engine.CompactRules(userMessage)
	rendered, _ := rules.Render(tmpl, map[string]string{
		"{{RULES_SECTION}}":    rules.RulesSection(compacted),
		"{{EXAMPLES_SECTION}}": rules.ExamplesSection(engine.Examples()),
	}, nil)
	return rendered
}
