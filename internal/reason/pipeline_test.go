package reason

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/filing-cli/internal/chunk"
	"github.com/sells-group/filing-cli/pkg/textgen"
)

// scriptedGen returns canned output per call and records every prompt.
type scriptedGen struct {
	mu      sync.Mutex
	prompts []string
	output  func(prompt string) (string, error)
}

func (g *scriptedGen) Generate(_ context.Context, prompt string, _ textgen.Options) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.output != nil {
		return g.output(prompt)
	}
	return "analysis text", nil
}

func makeChunks(n int) []chunk.Chunk {
	chunks := make([]chunk.Chunk, n)
	for i := range chunks {
		chunks[i] = chunk.Chunk{Blocks: []chunk.Block{{
			Label: fmt.Sprintf("PART I :: Item %d", i+1),
			Text:  "section summary",
		}}}
	}
	return chunks
}

func TestFocusForChunk(t *testing.T) {
	assert.Equal(t, FocusBusinessModel, FocusForChunk(1))
	assert.Equal(t, FocusRiskGrowth, FocusForChunk(2))
	assert.Equal(t, FocusThesis, FocusForChunk(3))
	assert.Equal(t, FocusThesis, FocusForChunk(9))
}

func TestRun_SingleChunkSkipsSynthesis(t *testing.T) {
	gen := &scriptedGen{}
	r := NewRunner(gen, RunnerOpts{})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(1))

	require.Len(t, res.Analyses, 1)
	assert.Equal(t, 1, res.Analyses[0].Index)
	assert.Equal(t, FocusBusinessModel, res.Analyses[0].Focus)
	assert.Empty(t, res.Synthesis)
	assert.Len(t, gen.prompts, 1) // no synthesis call issued
}

func TestRun_MultiChunkWithSynthesis(t *testing.T) {
	gen := &scriptedGen{output: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Comprehensive Final Analysis") {
			return "the synthesis", nil
		}
		return "chunk analysis", nil
	}}
	r := NewRunner(gen, RunnerOpts{})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(3))

	require.Len(t, res.Analyses, 3)
	for i, a := range res.Analyses {
		assert.Equal(t, i+1, a.Index)
		assert.Equal(t, FocusForChunk(i+1), a.Focus)
		assert.False(t, a.Failed)
	}
	assert.Equal(t, "the synthesis", res.Synthesis)
	assert.Len(t, gen.prompts, 4)
}

func TestRun_FailedChunkGetsPlaceholder(t *testing.T) {
	gen := &scriptedGen{output: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Part 2 of 3") {
			return "", &textgen.Error{Kind: textgen.KindTimeout, Err: context.DeadlineExceeded}
		}
		return "fine", nil
	}}
	r := NewRunner(gen, RunnerOpts{})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(3))

	require.Len(t, res.Analyses, 3)
	assert.False(t, res.Analyses[0].Failed)
	assert.True(t, res.Analyses[1].Failed)
	assert.Equal(t, Placeholder(2), res.Analyses[1].Text)
	assert.False(t, res.Analyses[2].Failed)
	// Synthesis still runs over the degraded concatenation.
	assert.NotEmpty(t, res.Synthesis)
}

func TestRun_AllCallsFailStillProducesResult(t *testing.T) {
	gen := &scriptedGen{output: func(string) (string, error) {
		return "", &textgen.Error{Kind: textgen.KindUnreachable, Err: assert.AnError}
	}}
	r := NewRunner(gen, RunnerOpts{})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(2))

	require.Len(t, res.Analyses, 2)
	for i, a := range res.Analyses {
		assert.True(t, a.Failed)
		assert.Equal(t, Placeholder(i+1), a.Text)
	}
	assert.Empty(t, res.Synthesis)
}

func TestRun_EmptyOutputTreatedAsFailure(t *testing.T) {
	gen := &scriptedGen{output: func(string) (string, error) { return "   \n", nil }}
	r := NewRunner(gen, RunnerOpts{})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(1))
	require.Len(t, res.Analyses, 1)
	assert.True(t, res.Analyses[0].Failed)
	assert.Equal(t, Placeholder(1), res.Analyses[0].Text)
}

func TestRun_ConcurrentCollectionPreservesOrder(t *testing.T) {
	gen := &scriptedGen{output: func(prompt string) (string, error) {
		// Echo the part number so ordering is observable.
		for n := 1; n <= 5; n++ {
			if strings.Contains(prompt, fmt.Sprintf("Part %d of 5", n)) {
				return fmt.Sprintf("analysis %d", n), nil
			}
		}
		return "", assert.AnError
	}}
	r := NewRunner(gen, RunnerOpts{Concurrency: 4})

	res := r.Run(context.Background(), "Acme Corp", makeChunks(5))

	require.Len(t, res.Analyses, 5)
	for i, a := range res.Analyses {
		assert.Equal(t, fmt.Sprintf("analysis %d", i+1), a.Text)
	}
}

func TestRun_NoChunks(t *testing.T) {
	r := NewRunner(&scriptedGen{}, RunnerOpts{})
	res := r.Run(context.Background(), "Acme Corp", nil)
	assert.Empty(t, res.Analyses)
	assert.Empty(t, res.Synthesis)
}

func TestCombined_Markers(t *testing.T) {
	res := Result{
		Analyses: []ChunkAnalysis{
			{Index: 1, Text: "first"},
			{Index: 2, Text: "second"},
		},
		Synthesis: "wrap-up",
	}

	out := res.Combined()
	assert.Contains(t, out, "=== ANALYSIS PART 1 ===\nfirst")
	assert.Contains(t, out, "=== ANALYSIS PART 2 ===\nsecond")
	assert.Contains(t, out, "=== COMPREHENSIVE SYNTHESIS ===\nwrap-up")
	assert.Less(t, strings.Index(out, "PART 1"), strings.Index(out, "PART 2"))
}

func TestChunkPrompt_ContainsFocusAndPosition(t *testing.T) {
	prompt := ChunkPrompt("Acme Corp", "chunk body", 2, 5)
	assert.Contains(t, prompt, "Acme Corp")
	assert.Contains(t, prompt, "Part 2 of 5")
	assert.Contains(t, prompt, FocusRiskGrowth)
	assert.Contains(t, prompt, "chunk body")
}

func TestTruncateAtRune(t *testing.T) {
	assert.Equal(t, "abc", truncateAtRune("abc", 10))
	assert.Equal(t, "abc", truncateAtRune("abcdef", 3))

	// A cut falling inside a multi-byte rune backs up to its start.
	s := "abécd" // é is two bytes, occupying s[2:4]
	got := truncateAtRune(s, 3)
	assert.Equal(t, "ab", got)
	assert.True(t, utf8.ValidString(got))

	long := strings.Repeat("€", 3000) // three bytes each
	got = truncateAtRune(long, 7000)
	assert.LessOrEqual(t, len(got), 7000)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 0, len(got)%3)
}

func TestSynthesisTruncation(t *testing.T) {
	long := strings.Repeat("a", synthesisContextLimit+500)
	var got string
	gen := &scriptedGen{output: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Comprehensive Final Analysis") {
			got = prompt
			return "s", nil
		}
		return long, nil
	}}
	r := NewRunner(gen, RunnerOpts{})
	_ = r.Run(context.Background(), "Acme Corp", makeChunks(2))

	require.NotEmpty(t, got)
	// The combined analyses embedded in the synthesis prompt are capped.
	assert.LessOrEqual(t, strings.Count(got, "a"), synthesisContextLimit+len(SynthesisPrompt("Acme Corp", "")))
}
