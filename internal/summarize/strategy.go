package summarize

import (
	"sort"
	"strconv"
	"strings"
)

// headTailOnly keeps the first head and last tail chunks verbatim, joined
// with a note on how many chunks were dropped in between.
func headTailOnly(chunks []string, head, tail int) string {
	if len(chunks) <= head+tail {
		return joinChunks(chunks)
	}
	kept := make([]string, 0, head+tail)
	kept = append(kept, chunks[:head]...)
	dropped := len(chunks) - head - tail
	kept = append(kept, noteChunk(dropped))
	kept = append(kept, chunks[len(chunks)-tail:]...)
	return joinChunks(kept)
}

// headTailExtract scores every chunk and keeps the top-K by score, K =
// max(ratio*N, head+tail), restoring original order afterward so the result
// still reads front-to-back.
func headTailExtract(chunks []string, head, tail int, ratio float64) string {
	n := len(chunks)
	k := int(float64(n) * ratio)
	if floor := head + tail; k < floor {
		k = floor
	}
	if k >= n {
		return joinChunks(chunks)
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, n)
	for i, c := range chunks {
		ranked[i] = scored{index: i, score: chunkScore(c, i, n)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	keepIndex := make(map[int]bool, k)
	for _, r := range ranked[:k] {
		keepIndex[r.index] = true
	}

	var out []string
	droppedRun := 0
	flushDropped := func() {
		if droppedRun > 0 {
			out = append(out, noteChunk(droppedRun))
			droppedRun = 0
		}
	}
	for i, c := range chunks {
		if keepIndex[i] {
			flushDropped()
			out = append(out, c)
		} else {
			droppedRun++
		}
	}
	flushDropped()
	return joinChunks(out)
}

func noteChunk(dropped int) string {
	if dropped == 1 {
		return "[... 1 chunk omitted ...]"
	}
	return "[... " + strconv.Itoa(dropped) + " chunks omitted ...]"
}

func joinChunks(chunks []string) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c)
	}
	return b.String()
}
