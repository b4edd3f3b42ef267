package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filing-cli/internal/chunk"
	"github.com/sells-group/filing-cli/internal/config"
	"github.com/sells-group/filing-cli/internal/filing"
	"github.com/sells-group/filing-cli/internal/reason"
	"github.com/sells-group/filing-cli/internal/store"
	"github.com/sells-group/filing-cli/internal/summarize"
	"github.com/sells-group/filing-cli/pkg/textgen"
)

// Result holds everything a full pipeline run produced.
type Result struct {
	RunID     string                     `json:"run_id,omitempty"`
	Company   string                     `json:"company"`
	Hierarchy filing.Hierarchy           `json:"hierarchy"`
	Summaries []summarize.SectionSummary `json:"summaries"`
	Analysis  *reason.Result             `json:"analysis"`
	Facets    []Facet                    `json:"facets,omitempty"`
	Elapsed   time.Duration              `json:"elapsed_ns"`
}

// Pipeline runs the full filing analysis flow: clean, segment, summarize,
// pack, analyze, persist.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	gen      textgen.Generator
	embedder textgen.Embedder
	cleaner  *filing.Cleaner
}

// New creates a Pipeline. The store and embedder may be nil, in which case
// persistence and embedding generation are skipped.
func New(cfg *config.Config, st store.Store, gen textgen.Generator, embedder textgen.Embedder) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		gen:      gen,
		embedder: embedder,
		cleaner:  filing.NewCleaner(),
	}
}

// Run processes one filing end to end. Analysis failures degrade to
// placeholders rather than aborting; only structural errors (nothing to
// analyze, bad configuration) abort the run.
func (p *Pipeline) Run(ctx context.Context, company, rawText string) (*Result, error) {
	log := zap.L().With(zap.String("company", company))
	start := time.Now()
	log.Info("pipeline: starting analysis", zap.Int("raw_bytes", len(rawText)))

	result := &Result{Company: company}

	var run *store.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx, company)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		result.RunID = run.ID
	}

	res, err := p.run(ctx, log, company, rawText, result)
	if p.store != nil && run != nil {
		status := store.RunStatusCompleted
		if err != nil {
			status = store.RunStatusFailed
		}
		if cerr := p.store.CompleteRun(ctx, run.ID, status); cerr != nil {
			log.Warn("pipeline: failed to update run status", zap.Error(cerr))
		}
	}
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	log.Info("pipeline: analysis complete",
		zap.Int("sections", len(res.Summaries)),
		zap.Int("analyses", len(res.Analysis.Analyses)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, company, rawText string, result *Result) (*Result, error) {
	// Clean and segment.
	cleaned := p.cleaner.Clean(rawText)
	hierarchy := filing.Segment(cleaned)
	result.Hierarchy = hierarchy
	log.Info("pipeline: segmented filing",
		zap.Int("parts", len(hierarchy)),
		zap.Int("items", hierarchy.ItemCount()),
	)

	// Summarize each section, or fall back to the whole document when no
	// Part/Item structure was found. Unhelpful summaries are dropped before
	// packing so they never reach the analysis context.
	summarizer := summarize.NewSummarizer(p.gen, p.cfg.Summary.MaxWords)
	var blocks []chunk.Block
	if hierarchy.ItemCount() > 0 {
		summaries := summarizer.Hierarchy(ctx, company, hierarchy)
		result.Summaries = summaries
		kept := summarize.Filter(summaries)
		if removed := len(summaries) - len(kept); removed > 0 {
			log.Info("pipeline: dropped unhelpful summaries", zap.Int("removed", removed))
		}
		blocks = summarize.Blocks(kept)
	} else if strings.TrimSpace(cleaned) != "" {
		log.Warn("pipeline: no part/item headers found, analyzing full text")
		blocks = []chunk.Block{{Label: "Document", Text: cleaned}}
	}
	if len(blocks) == 0 {
		return nil, eris.New("pipeline: nothing to analyze")
	}

	// Pack into size-bounded chunks.
	packer, err := chunk.NewPacker(p.cfg.Analyze.ChunkLimit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: packer")
	}
	chunks := packer.Pack(blocks)
	log.Info("pipeline: packed chunks", zap.Int("blocks", len(blocks)), zap.Int("chunks", len(chunks)))

	// Chunked analysis with focus rotation and synthesis.
	runner := reason.NewRunner(p.gen, reason.RunnerOpts{
		MaxTokens:   p.cfg.Analyze.MaxTokens,
		Concurrency: p.cfg.Analyze.Concurrency,
	})
	analysis := runner.Run(ctx, company, chunks)
	result.Analysis = &analysis

	// Structured view of the analysis for machine consumers.
	if analysis.Synthesis != "" {
		result.Facets = ParseFacets(analysis.Synthesis)
	} else {
		result.Facets = ParseFacets(analysis.Combined())
	}

	if p.store != nil && result.RunID != "" {
		p.persist(ctx, log, result)
	}

	return result, nil
}

// persist writes summaries, analyses, and optional embeddings. Storage
// failures are logged rather than failing the run; the caller already has
// the full result in memory.
func (p *Pipeline) persist(ctx context.Context, log *zap.Logger, result *Result) {
	if len(result.Summaries) > 0 {
		records := make([]store.SummaryRecord, 0, len(result.Summaries))
		for _, s := range result.Summaries {
			records = append(records, store.SummaryRecord{
				RunID:      result.RunID,
				SectionKey: s.Key(),
				Part:       s.Part,
				Title:      s.Title,
				Summary:    s.Summary,
				WordCount:  len(s.Summary) / 5,
				Failed:     s.Failed,
			})
		}
		if err := p.store.WriteSummaries(ctx, records); err != nil {
			log.Warn("pipeline: failed to persist summaries", zap.Error(err))
		}
	}

	if result.Analysis != nil {
		records := make([]store.AnalysisRecord, 0, len(result.Analysis.Analyses)+1)
		for _, a := range result.Analysis.Analyses {
			records = append(records, store.AnalysisRecord{
				RunID:      result.RunID,
				ChunkIndex: a.Index,
				Focus:      a.Focus,
				Text:       a.Text,
				Failed:     a.Failed,
			})
		}
		if result.Analysis.Synthesis != "" {
			records = append(records, store.AnalysisRecord{
				RunID:      result.RunID,
				ChunkIndex: 0,
				Focus:      "synthesis",
				Text:       result.Analysis.Synthesis,
			})
		}
		if err := p.store.WriteAnalyses(ctx, records); err != nil {
			log.Warn("pipeline: failed to persist analyses", zap.Error(err))
		}
	}

	if p.embedder != nil && p.cfg.Analyze.Embeddings && len(result.Summaries) > 0 {
		var records []store.EmbeddingRecord
		for _, s := range result.Summaries {
			if s.Failed {
				continue
			}
			vec, err := p.embedder.Embed(ctx, s.Summary)
			if err != nil {
				log.Warn("pipeline: embedding failed", zap.String("section", s.Key()), zap.Error(err))
				continue
			}
			records = append(records, store.EmbeddingRecord{
				RunID:      result.RunID,
				SectionKey: s.Key(),
				Vector:     vec,
			})
		}
		if len(records) > 0 {
			if err := p.store.WriteEmbeddings(ctx, records); err != nil {
				log.Warn("pipeline: failed to persist embeddings", zap.Error(err))
			}
		}
	}
}
