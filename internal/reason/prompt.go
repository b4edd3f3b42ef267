package reason

import (
	"fmt"
	"strings"
)

// Focus labels rotate by chunk position so each call emphasizes a different
// slice of the five analytical facets.
const (
	FocusBusinessModel = "Business Model Analysis and Financial Health Assessment"
	FocusRiskGrowth    = "Risk Assessment and Growth Opportunities"
	FocusThesis        = "Investment Thesis and synthesis of previous analysis"
)

// FocusForChunk returns the focus label for a 1-indexed chunk position.
func FocusForChunk(num int) string {
	switch num {
	case 1:
		return FocusBusinessModel
	case 2:
		return FocusRiskGrowth
	default:
		return FocusThesis
	}
}

// facets is the shared five-point analytical frame every call is asked to
// cover.
const facets = `1. **Business Model Analysis**: How does this company make money and what are their core competitive advantages?
2. **Financial Health Assessment**: What do the financial metrics and performance indicators tell us?
3. **Risk Assessment**: What are the most significant risks facing this company?
4. **Growth Opportunities**: What potential growth drivers and strategic initiatives are mentioned?
5. **Investment Thesis**: Based on available information, what would be key investment considerations?`

// ChunkPrompt builds the per-chunk analysis prompt.
func ChunkPrompt(company string, chunkText string, num, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on this portion of the comprehensive 10-K filing summaries for %s (Part %d of %d), provide detailed analysis that includes:\n\n", company, num, total)
	sb.WriteString(facets)
	fmt.Fprintf(&sb, "\n\nFocus primarily on: %s\n\n", FocusForChunk(num))
	sb.WriteString("Please provide specific, actionable insights that synthesize information rather than just repeating bullet points.\n\n")
	fmt.Fprintf(&sb, "Company: %s\n", company)
	fmt.Fprintf(&sb, "10-K Summary Data (Part %d/%d):\n%s\n\n", num, total, chunkText)
	fmt.Fprintf(&sb, "Analysis for Part %d:\n", num)
	return sb.String()
}

// SynthesisPrompt builds the final aggregation prompt over the (possibly
// truncated) concatenation of per-chunk analyses.
func SynthesisPrompt(company string, combined string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following multi-part analysis of %s, create a comprehensive final synthesis that covers all 5 key areas:\n\n", company)
	sb.WriteString(`1. **Business Model Analysis**: Complete overview of how the company makes money
2. **Financial Health Assessment**: Overall financial position and performance
3. **Risk Assessment**: All significant risks identified
4. **Growth Opportunities**: All growth drivers and strategic initiatives
5. **Investment Thesis**: Final recommendation based on complete analysis`)
	fmt.Fprintf(&sb, "\n\nPrevious Analysis Parts:\n%s\n\nComprehensive Final Analysis:\n", combined)
	return sb.String()
}
