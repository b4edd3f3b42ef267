package filing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullFiling = `UNITED STATES SECURITIES AND EXCHANGE COMMISSION
Annual Report for the fiscal year ended December 31, 2025

PART I

Item 1. Business

Acme Corporation designs industrial widget platforms.

Item 1A. Risk Factors

Customer concentration is significant.

PART II

Item 7. Management Discussion and Analysis

Revenue grew 14% year over year.

Item 8. Financial Statements

See accompanying notes.

PART IV

Item 15. Exhibits

Exhibit index follows.
`

func TestSegment_FullStructure(t *testing.T) {
	h := Segment(fullFiling)

	require.Len(t, h, 3)
	assert.Equal(t, "PART I", h[0].Label)
	assert.Equal(t, "PART II", h[1].Label)
	assert.Equal(t, "PART IV", h[2].Label)
	assert.Equal(t, 5, h.ItemCount())

	p1, ok := h.Part("PART I")
	require.True(t, ok)
	require.Len(t, p1.Items, 2)
	assert.Equal(t, "Item 1. Business", p1.Items[0].Title)
	assert.Equal(t, "Acme Corporation designs industrial widget platforms.", p1.Items[0].Content)
	assert.Equal(t, "Item 1A. Risk Factors", p1.Items[1].Title)
}

func TestSegment_CaseInsensitiveHeaders(t *testing.T) {
	text := "part ii\n\nitem 7. Management Discussion\n\nNarrative text here.\n"
	h := Segment(text)

	require.Len(t, h, 1)
	assert.Equal(t, "PART II", h[0].Label)
	require.Len(t, h[0].Items, 1)
	assert.Equal(t, "item 7. Management Discussion", h[0].Items[0].Title)
}

func TestSegment_DuplicatePartFirstWins(t *testing.T) {
	text := `PART I

Item 1. Business

First occurrence content.

PART I

Item 1. Business

Second occurrence content.
`
	h := Segment(text)

	require.Len(t, h, 1)
	require.Len(t, h[0].Items, 1)
	assert.Equal(t, "First occurrence content.", h[0].Items[0].Content)
}

func TestSegment_OutOfOrderPartsCanonicalized(t *testing.T) {
	text := `PART II

Item 7. Management Discussion and Analysis

Second part content appearing first in the document.

PART I

Item 1. Business

First part content appearing last in the document.
`
	h := Segment(text)

	require.Len(t, h, 2)
	// Output order is canonical regardless of document order.
	assert.Equal(t, "PART I", h[0].Label)
	assert.Equal(t, "PART II", h[1].Label)

	require.Len(t, h[0].Items, 1)
	assert.Equal(t, "First part content appearing last in the document.", h[0].Items[0].Content)
	require.Len(t, h[1].Items, 1)
	assert.Equal(t, "Second part content appearing first in the document.", h[1].Items[0].Content)
}

func TestSegment_NonCanonicalPartDropped(t *testing.T) {
	text := `PART I

Item 1. Business

Real content.

PART V

Item 99. Bogus Section

This text belongs to a non-canonical part and must not leak.
`
	h := Segment(text)

	require.Len(t, h, 1)
	assert.Equal(t, "PART I", h[0].Label)
	assert.NotContains(t, Formatted(h), "must not leak")
}

func TestSegment_PartWithNoItemsOmitted(t *testing.T) {
	text := `PART I

Intro prose without any item headers.

PART II

Item 7. Management Discussion

Content.
`
	h := Segment(text)

	require.Len(t, h, 1)
	assert.Equal(t, "PART II", h[0].Label)
}

func TestSegment_NoHeaders(t *testing.T) {
	assert.Empty(t, Segment("Plain narrative with no structure at all."))
	assert.Empty(t, Segment(""))
}

func TestSegment_TextBeforeFirstItemDiscarded(t *testing.T) {
	text := `PART I

Introductory cross-reference prose.

Item 1. Business

Actual content.
`
	h := Segment(text)

	require.Len(t, h, 1)
	require.Len(t, h[0].Items, 1)
	assert.Equal(t, "Actual content.", h[0].Items[0].Content)
	assert.NotContains(t, h[0].Items[0].Content, "Introductory")
}

func TestSegment_PartMentionMidSentenceIgnored(t *testing.T) {
	// "PART II" must occupy its own line to count as a header.
	text := `PART I

Item 1. Business

See PART II of this report for financial statements.
`
	h := Segment(text)

	require.Len(t, h, 1)
	assert.Contains(t, h[0].Items[0].Content, "See PART II of this report")
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Item 1.  Business", "Item 1. Business"},
		{"  Item 1A. Risk   Factors  ", "Item 1A. Risk Factors"},
		{"Item 7.. Management Discussion", "Item 7. Management Discussion"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTitle(tt.in))
	}
}

func TestItemPattern_Variants(t *testing.T) {
	matching := []string{
		"Item 1. Business",
		"Item 1A. Risk Factors",
		"ITEM 7A. Quantitative and Qualitative Disclosures",
		"item 9B. Other Information",
		"Item 15 Exhibits and Financial Statement Schedules",
	}
	for _, line := range matching {
		assert.True(t, itemPattern.MatchString(line), "expected match: %q", line)
	}

	nonMatching := []string{
		"Items 1 and 2. Properties", // plural
		"Item",
	}
	for _, line := range nonMatching {
		assert.False(t, itemPattern.MatchString(line), "expected no match: %q", line)
	}
}
