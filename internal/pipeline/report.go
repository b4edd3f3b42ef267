package pipeline

import (
	"fmt"
	"strings"
)

// FormatReport generates a human-readable analysis report.
func FormatReport(res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Filing Analysis: %s\n", res.Company)
	if res.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", res.RunID)
	}
	b.WriteString("\n")

	// Summary.
	failedSummaries, failedAnalyses := 0, 0
	for _, s := range res.Summaries {
		if s.Failed {
			failedSummaries++
		}
	}
	if res.Analysis != nil {
		for _, a := range res.Analysis.Analyses {
			if a.Failed {
				failedAnalyses++
			}
		}
	}
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Parts: %d\n", len(res.Hierarchy))
	fmt.Fprintf(&b, "- Items: %d\n", res.Hierarchy.ItemCount())
	fmt.Fprintf(&b, "- Sections summarized: %d (%d failed)\n", len(res.Summaries), failedSummaries)
	if res.Analysis != nil {
		fmt.Fprintf(&b, "- Analysis chunks: %d (%d failed)\n", len(res.Analysis.Analyses), failedAnalyses)
	}
	fmt.Fprintf(&b, "- Elapsed: %s\n\n", res.Elapsed.Round(1e6))

	// Document structure.
	b.WriteString("## Structure\n")
	if len(res.Hierarchy) == 0 {
		b.WriteString("No Part/Item headers detected; full text analyzed as one document.\n")
	}
	for _, part := range res.Hierarchy {
		fmt.Fprintf(&b, "- %s\n", part.Label)
		for _, item := range part.Items {
			fmt.Fprintf(&b, "  - %s\n", item.Title)
		}
	}
	b.WriteString("\n")

	// Section summaries.
	if len(res.Summaries) > 0 {
		b.WriteString("## Section Summaries\n")
		for _, s := range res.Summaries {
			fmt.Fprintf(&b, "### %s - %s\n", s.Part, s.Title)
			b.WriteString(s.Summary)
			b.WriteString("\n\n")
		}
	}

	// Per-chunk analyses and synthesis.
	if res.Analysis != nil {
		b.WriteString("## Analysis\n")
		for _, a := range res.Analysis.Analyses {
			fmt.Fprintf(&b, "### Chunk %d (%s)\n", a.Index, a.Focus)
			b.WriteString(a.Text)
			b.WriteString("\n\n")
		}
		if res.Analysis.Synthesis != "" {
			b.WriteString("## Comprehensive Synthesis\n")
			b.WriteString(res.Analysis.Synthesis)
			b.WriteString("\n")
		}
	}

	return b.String()
}
