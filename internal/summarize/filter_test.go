package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnhelpful(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"apology", "Sorry, I can't help with that request.", true},
		{"refusal", "Unfortunately the document is incomplete.", true},
		{"no access", "I don't have access to the filing content.", true},
		{"no facts", "The provided text does not contain any key facts.", true},
		{"short stub", "Brief section: Not applicable.", true},
		{"case insensitive", "PLEASE PROVIDE the missing section.", true},
		{"real summary", "- Revenue of $120 million, up 14% year over year", false},
		{"placeholder", "Summary unavailable for PART I - Item 1. Business", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unhelpful(tt.text))
		})
	}
}

func TestFilter(t *testing.T) {
	in := []SectionSummary{
		{Part: "PART I", Title: "Item 1. Business", Summary: "- Revenue of $120 million"},
		{Part: "PART I", Title: "Item 1A. Risk Factors", Summary: "Sorry, I cannot help with this section."},
		{Part: "PART II", Title: "Item 7. MD&A", Summary: "- Operating expenses grew 9%"},
	}

	out := Filter(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "Item 1. Business", out[0].Title)
	assert.Equal(t, "Item 7. MD&A", out[1].Title)
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nil))
	assert.Empty(t, Filter([]SectionSummary{{Summary: "not applicable"}}))
}
