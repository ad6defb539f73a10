// Package summarize condenses tool output that exceeds the inline/truncation
// threshold (spec.md §4.11, C11). It sits behind internal/dispatch's
// Summarizer interface: the dispatcher decides *when* to call in (large vs.
// small overflow), this package decides *how*.
package summarize

import "github.com/skilllite/skilllite/internal/llm"

// Strategy selects how a too-long result gets reduced to something a model
// can read in one shot.
type Strategy string

const (
	// StrategyHeadTailOnly keeps the first H and last T chunks verbatim and
	// drops everything in between — cheapest, no model call.
	StrategyHeadTailOnly Strategy = "head_tail_only"
	// StrategyHeadTailExtract scores every chunk by position, discourse
	// markers, and entity density, then keeps the top-K highest-scoring
	// chunks in original order — still no model call, but adapts to content
	// shape instead of a fixed head/tail window.
	StrategyHeadTailExtract Strategy = "head_tail_extract"
	// StrategyMapReduceFull summarizes every chunk (Map) and merges the
	// per-chunk summaries into one (Reduce) — most expensive, most
	// faithful to content that doesn't cluster interesting material near
	// the edges.
	StrategyMapReduceFull Strategy = "map_reduce_full"
)

// Config holds the tunables spec.md §4.11 names.
type Config struct {
	// Threshold is the character count above which Summarize actually runs
	// its strategy instead of returning content unchanged. Default 30000.
	Threshold int
	Strategy  Strategy

	// ChunkSize is the character width of one chunk for chunked strategies.
	ChunkSize int
	// HeadChunks/TailChunks bound the edges kept by head_tail_only and the
	// floor for head_tail_extract's top-K (K = max(ratio*N, Head+Tail)).
	HeadChunks int
	TailChunks int
	// ExtractRatio is head_tail_extract's fraction of total chunks to keep
	// when that's larger than HeadChunks+TailChunks.
	ExtractRatio float64

	// Provider is the main model, used for map_reduce_full's Reduce stage
	// and as the Map-stage model when Secondary is nil.
	Provider llm.Provider
	// Secondary is an optional cheaper model used for map_reduce_full's
	// per-chunk Map stage (spec.md §4.11: "When a cheaper secondary model
	// is configured, use it for the Map stage and the main model for
	// Reduce").
	Secondary llm.Provider
}

// DefaultConfig returns spec.md §4.11's suggested defaults. provider is
// required; secondary may be nil to use provider for every stage.
func DefaultConfig(provider, secondary llm.Provider) Config {
	return Config{
		Threshold:    30000,
		Strategy:     StrategyHeadTailExtract,
		ChunkSize:    2000,
		HeadChunks:   2,
		TailChunks:   2,
		ExtractRatio: 0.3,
		Provider:     provider,
		Secondary:    secondary,
	}
}
