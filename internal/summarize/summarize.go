package summarize

import (
	"context"
	"errors"
)

var errNoProvider = errors.New("summarize: map_reduce_full strategy requires a Provider")

// Summarizer implements internal/dispatch.Summarizer, condensing tool
// output over the dispatcher's large-overflow cutoff.
type Summarizer struct {
	cfg Config
}

// New builds a Summarizer from cfg. A zero-value Provider is only valid
// when cfg.Strategy never needs a model call (StrategyHeadTailOnly /
// StrategyHeadTailExtract) — map_reduce_full with a nil Provider makes
// Summarize fall back to the deterministic head+tail slice.
func New(cfg Config) *Summarizer {
	return &Summarizer{cfg: cfg}
}

// Summarize reduces content to something under the dispatcher's inline
// budget, per spec.md §4.11. Content under Threshold is returned unchanged.
// Any strategy failure falls back to a deterministic head+tail slice rather
// than propagating the error, since a summarization failure must not block
// the tool result from reaching the model at all.
func (s *Summarizer) Summarize(ctx context.Context, content string) (string, error) {
	if len(content) <= s.cfg.Threshold {
		return content, nil
	}

	result, err := s.run(ctx, content)
	if err != nil {
		return deterministicFallback(content, s.cfg.HeadChunks*s.cfg.ChunkSize, s.cfg.TailChunks*s.cfg.ChunkSize), nil
	}
	return result, nil
}

func (s *Summarizer) run(ctx context.Context, content string) (string, error) {
	chunks := chunkText(content, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return content, nil
	}

	switch s.cfg.Strategy {
	case StrategyHeadTailOnly:
		return headTailOnly(chunks, s.cfg.HeadChunks, s.cfg.TailChunks), nil
	case StrategyMapReduceFull:
		if s.cfg.Provider == nil {
			return "", errNoProvider
		}
		return mapReduceFull(ctx, s.cfg, chunks)
	case StrategyHeadTailExtract:
		fallthrough
	default:
		return headTailExtract(chunks, s.cfg.HeadChunks, s.cfg.TailChunks, s.cfg.ExtractRatio), nil
	}
}
