package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/skilllite/skilllite/internal/llm"
)

const mapPrompt = "Summarize the following excerpt from a long tool result in 2-4 sentences, preserving any file paths, error messages, and concrete values:\n\n%s"

const reducePrompt = "These are summaries of consecutive chunks of one long tool result, in order. Merge them into a single coherent summary that preserves the overall narrative and any concrete values:\n\n%s"

// mapReduceFull summarizes every chunk independently (Map, using the
// cheaper secondary model when configured) then merges the per-chunk
// summaries into one (Reduce, always the main model).
func mapReduceFull(ctx context.Context, cfg Config, chunks []string) (string, error) {
	mapModel := cfg.Provider
	if cfg.Secondary != nil {
		mapModel = cfg.Secondary
	}

	summaries := make([]string, len(chunks))
	for i, c := range chunks {
		reply, err := mapModel.Complete(ctx, []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(mapPrompt, c)},
		}, nil)
		if err != nil {
			return "", fmt.Errorf("map stage chunk %d: %w", i, err)
		}
		summaries[i] = reply.Content
	}

	reply, err := cfg.Provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(reducePrompt, strings.Join(summaries, "\n---\n"))},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("reduce stage: %w", err)
	}
	return reply.Content, nil
}
