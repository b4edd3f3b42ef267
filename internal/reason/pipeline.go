// Package reason runs the staged analysis passes over packed chunks and
// synthesizes their outputs into one result.
package reason

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/filing-cli/internal/chunk"
	"github.com/sells-group/filing-cli/pkg/textgen"
)

const (
	chunkTemperature     = 0.4
	synthesisTemperature = 0.3

	// synthesisContextLimit bounds the concatenated chunk analyses sent to
	// the synthesis call.
	synthesisContextLimit = 7000
)

// ChunkAnalysis is the outcome of one chunk's generation call. Text is
// either genuine model output or the failure placeholder; it is never empty.
type ChunkAnalysis struct {
	Index int    `json:"chunk_index"`
	Focus string `json:"focus_label"`
	Text  string `json:"text"`
	// Failed is set when the text is a placeholder substituted for a
	// generation error.
	Failed bool `json:"failed,omitempty"`
}

// Result is the full outcome of one document's reasoning run.
type Result struct {
	Company   string          `json:"company"`
	Analyses  []ChunkAnalysis `json:"analyses"`
	Synthesis string          `json:"synthesis,omitempty"`
}

// Combined renders the result as one analysis document: each chunk analysis
// under its part marker, followed by the synthesis section when present.
func (r Result) Combined() string {
	parts := make([]string, 0, len(r.Analyses)+1)
	for _, a := range r.Analyses {
		parts = append(parts, fmt.Sprintf("=== ANALYSIS PART %d ===\n%s", a.Index, a.Text))
	}
	out := strings.Join(parts, "\n\n")
	if r.Synthesis != "" {
		out += "\n\n=== COMPREHENSIVE SYNTHESIS ===\n" + r.Synthesis
	}
	return out
}

// Placeholder returns the deterministic substitute text for a failed chunk.
func Placeholder(num int) string {
	return fmt.Sprintf("Analysis unavailable for chunk %d", num)
}

// Runner drives the per-chunk analysis calls and the final synthesis.
type Runner struct {
	gen         textgen.Generator
	maxTokens   int
	concurrency int
}

// RunnerOpts configures a Runner.
type RunnerOpts struct {
	// MaxTokens is the output-token budget per chunk call; the synthesis
	// call is allowed twice this budget.
	MaxTokens int
	// Concurrency caps in-flight generation calls. 1 (the default) keeps the
	// original strictly sequential schedule; higher values run chunk calls
	// on a bounded pool while still collecting results in chunk order.
	Concurrency int
}

// NewRunner creates a Runner on top of a generation backend.
func NewRunner(gen textgen.Generator, opts RunnerOpts) *Runner {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{gen: gen, maxTokens: maxTokens, concurrency: concurrency}
}

// Run analyzes every chunk and, when more than one chunk was produced,
// issues one synthesis call over the combined analyses. Generation failures
// never abort the run: a failed chunk gets its placeholder, a failed
// synthesis degrades the result to the bare concatenation. The synthesis
// call does not start until every chunk slot is resolved.
func (r *Runner) Run(ctx context.Context, company string, chunks []chunk.Chunk) Result {
	result := Result{Company: company}
	if len(chunks) == 0 {
		return result
	}

	log := zap.L().With(zap.String("company", company), zap.Int("chunks", len(chunks)))

	analyses := make([]ChunkAnalysis, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, c := range chunks {
		g.Go(func() error {
			analyses[i] = r.analyzeChunk(gctx, company, c, i+1, len(chunks))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures become placeholders

	result.Analyses = analyses

	if len(chunks) == 1 {
		return result
	}

	combined := truncateAtRune(Result{Company: company, Analyses: analyses}.Combined(), synthesisContextLimit)

	synthesis, err := r.gen.Generate(ctx, SynthesisPrompt(company, combined), textgen.Options{
		Temperature: synthesisTemperature,
		MaxTokens:   r.maxTokens * 2,
	})
	if err != nil {
		log.Warn("synthesis unavailable, degrading to concatenated analyses", zap.Error(err))
		return result
	}

	result.Synthesis = strings.TrimSpace(synthesis)
	log.Info("reasoning complete", zap.Int("synthesis_len", len(result.Synthesis)))
	return result
}

// truncateAtRune caps s at limit bytes without splitting a multi-byte rune.
func truncateAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (r *Runner) analyzeChunk(ctx context.Context, company string, c chunk.Chunk, num, total int) ChunkAnalysis {
	analysis := ChunkAnalysis{Index: num, Focus: FocusForChunk(num)}

	text, err := r.gen.Generate(ctx, ChunkPrompt(company, c.Serialized(), num, total), textgen.Options{
		Temperature: chunkTemperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		zap.L().Warn("chunk analysis failed",
			zap.String("company", company),
			zap.Int("chunk", num),
			zap.Error(err))
		analysis.Text = Placeholder(num)
		analysis.Failed = true
		return analysis
	}

	analysis.Text = strings.TrimSpace(text)
	if analysis.Text == "" {
		analysis.Text = Placeholder(num)
		analysis.Failed = true
	}
	return analysis
}
