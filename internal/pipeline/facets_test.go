package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysis = `Overall the company looks healthy.

**1. Business Model Analysis**

Acme sells widget automation platforms on multi-year contracts.

* **Core Revenue Streams:** platform subscriptions and support
* Revenue of $120 million in 2025, up from $105 million in 2024
- Gross margin of 62%

**2. Risk Assessment**

Customer concentration is the dominant risk.

• Top three customers were 45% of revenue
• Revenue from the largest customer decreased by 8% in 2025
`

func TestParseFacets(t *testing.T) {
	facets := ParseFacets(sampleAnalysis)
	require.Len(t, facets, 2)

	assert.Equal(t, "1. Business Model Analysis", facets[0].Title)
	assert.Contains(t, facets[0].Content, "multi-year contracts")
	assert.Equal(t, []string{
		"Core Revenue Streams: platform subscriptions and support",
		"Revenue of $120 million in 2025, up from $105 million in 2024",
		"Gross margin of 62%",
	}, facets[0].KeyPoints)
	assert.Equal(t, []string{"$120 million", "$105 million"}, facets[0].Metrics.DollarAmounts)
	assert.Equal(t, []string{"62%"}, facets[0].Metrics.Percentages)
	assert.Equal(t, []string{"2025", "2024"}, facets[0].Metrics.Years)

	assert.Equal(t, "2. Risk Assessment", facets[1].Title)
	assert.Equal(t, []string{"45%", "8%"}, facets[1].Metrics.Percentages)
	assert.Equal(t, []string{"decreased 8%"}, facets[1].Metrics.GrowthIndicators)
	assert.Len(t, facets[1].KeyPoints, 2)
}

func TestParseFacets_NoHeadings(t *testing.T) {
	assert.Nil(t, ParseFacets("Plain prose with no bold numbered sections."))
	assert.Nil(t, ParseFacets(""))
}

func TestParseFacets_DedupesYears(t *testing.T) {
	facets := ParseFacets("**1. Outlook**\nFiscal 2025 ended well; 2025 guidance holds through 2026.")
	require.Len(t, facets, 1)
	assert.Equal(t, []string{"2025", "2026"}, facets[0].Metrics.Years)
}
