package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/filing-cli/internal/pipeline"
	"github.com/sells-group/filing-cli/internal/store"
	anthropicpkg "github.com/sells-group/filing-cli/pkg/anthropic"
	"github.com/sells-group/filing-cli/pkg/ollama"
	"github.com/sells-group/filing-cli/pkg/textgen"
)

// pipelineEnv bundles the pipeline with the resources it owns.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initGenerator builds the configured generation backend. Ollama also serves
// as the embedder; the Anthropic backend has no embedding endpoint.
func initGenerator() (textgen.Generator, textgen.Embedder, error) {
	switch cfg.Analyze.Provider {
	case "ollama":
		client := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model,
			ollama.WithTimeout(time.Duration(cfg.Ollama.TimeoutSecs)*time.Second),
			ollama.WithEmbeddingModel(cfg.Ollama.EmbeddingModel),
		)
		return client, client, nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, nil, eris.New("anthropic API key is required (FILING_ANTHROPIC_KEY)")
		}
		return anthropicpkg.NewGenerator(cfg.Anthropic.Key, cfg.Anthropic.Model), nil, nil
	default:
		return nil, nil, eris.Errorf("unsupported analyze provider: %s", cfg.Analyze.Provider)
	}
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	gen, embedder, err := initGenerator()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Pipeline: pipeline.New(cfg, st, gen, embedder),
		Store:    st,
	}, nil
}
