// Package anthropic adapts the Anthropic Messages API to the textgen
// Generator interface, as an alternative to a local Ollama server.
package anthropic

import (
	"context"
	"errors"
	"net"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sells-group/filing-cli/pkg/textgen"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// Generator implements textgen.Generator on top of the official SDK.
type Generator struct {
	client sdk.Client
	model  string
}

// NewGenerator creates a Generator. An empty model falls back to
// DefaultModel.
func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate issues one message call and returns the concatenated text blocks.
func (g *Generator) Generate(ctx context.Context, prompt string, opts textgen.Options) (string, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
		Temperature: sdk.Float(opts.Temperature),
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &textgen.Error{Kind: textgen.KindMalformed, Err: errors.New("no text content in response")}
	}
	return sb.String(), nil
}

// classify maps SDK errors onto the textgen taxonomy.
func classify(err error) *textgen.Error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &textgen.Error{Kind: textgen.KindStatus, Status: apiErr.StatusCode, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &textgen.Error{Kind: textgen.KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &textgen.Error{Kind: textgen.KindTimeout, Err: err}
	}
	return &textgen.Error{Kind: textgen.KindUnreachable, Err: err}
}
