// Package summarize condenses individual filing sections into fact-dense
// summaries ahead of the chunked reasoning passes.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/filing-cli/internal/chunk"
	"github.com/sells-group/filing-cli/internal/filing"
	"github.com/sells-group/filing-cli/pkg/textgen"
)

const (
	// minContentLen: sections shorter than this are passed through instead
	// of spending a generation call.
	minContentLen = 50

	// maxContentLen: longer sections are truncated before prompting to stay
	// inside the service's input budget.
	maxContentLen = 4000

	summaryTemperature = 0.3
)

// SectionSummary is one item's condensed form.
type SectionSummary struct {
	Part    string `json:"part"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	// Failed marks a placeholder substituted for a generation error.
	Failed bool `json:"failed,omitempty"`
}

// Key returns the stable section identifier used for storage and embedding
// lookup.
func (s SectionSummary) Key() string {
	return s.Part + "::" + s.Title
}

// Summarizer condenses filing sections through a generation backend.
type Summarizer struct {
	gen      textgen.Generator
	maxWords int
}

// NewSummarizer creates a Summarizer. maxWords bounds each summary's length;
// non-positive values default to 200.
func NewSummarizer(gen textgen.Generator, maxWords int) *Summarizer {
	if maxWords <= 0 {
		maxWords = 200
	}
	return &Summarizer{gen: gen, maxWords: maxWords}
}

// Hierarchy summarizes every item of a segmented filing, in document order.
// A failed call yields a placeholder summary for that section; it never
// fails the document.
func (s *Summarizer) Hierarchy(ctx context.Context, company string, h filing.Hierarchy) []SectionSummary {
	var out []SectionSummary
	for _, part := range h {
		for _, item := range part.Items {
			summary := s.Section(ctx, company, part.Label+" - "+item.Title, item.Content)
			out = append(out, SectionSummary{
				Part:    part.Label,
				Title:   item.Title,
				Summary: summary.Summary,
				Failed:  summary.Failed,
			})
		}
	}
	return out
}

// Section summarizes a single titled section.
func (s *Summarizer) Section(ctx context.Context, company, sectionTitle, content string) SectionSummary {
	result := SectionSummary{Title: sectionTitle}

	content = strings.TrimSpace(content)
	if len(content) < minContentLen {
		result.Summary = "Brief section: " + truncate(content, 100)
		return result
	}
	if len(content) > maxContentLen {
		content = content[:maxContentLen] + "..."
	}

	text, err := s.gen.Generate(ctx, s.prompt(company, sectionTitle, content), textgen.Options{
		Temperature: summaryTemperature,
		MaxTokens:   s.maxWords * 2, // word budget with buffer for markup
	})
	if err != nil {
		zap.L().Warn("section summary failed",
			zap.String("company", company),
			zap.String("section", sectionTitle),
			zap.Error(err))
		result.Summary = placeholder(sectionTitle, content)
		result.Failed = true
		return result
	}

	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "Summary:"))
	if text == "" {
		result.Summary = placeholder(sectionTitle, content)
		result.Failed = true
		return result
	}
	result.Summary = text
	return result
}

func (s *Summarizer) prompt(company, sectionTitle, content string) string {
	return fmt.Sprintf(`Extract key facts from this %s section and format as bullet points.

Rules:
- Keep all exact numbers, dates, percentages, and dollar amounts
- Focus on concrete facts, not opinions
- One fact per bullet point
- Maximum %d words total

Company: %s
Section: %s

Content:
%s

Key Facts:
- `, sectionTitle, s.maxWords, company, sectionTitle, content)
}

func placeholder(sectionTitle, content string) string {
	return fmt.Sprintf("Summary unavailable for %s. Content preview: %s", sectionTitle, truncate(content, 300))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Blocks converts summaries into the labeled blocks the chunk packer works
// on, one per section, preserving document order.
func Blocks(summaries []SectionSummary) []chunk.Block {
	blocks := make([]chunk.Block, 0, len(summaries))
	for _, s := range summaries {
		blocks = append(blocks, chunk.Block{Label: s.Key(), Text: s.Summary})
	}
	return blocks
}
