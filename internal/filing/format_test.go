package filing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatted(t *testing.T) {
	h := Hierarchy{
		{Label: "PART I", Items: []Item{
			{Title: "Item 1. Business", Content: "Acme sells widgets."},
		}},
	}

	out := Formatted(h)
	lines := strings.Split(out, "\n")

	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "PART I", lines[0])
	assert.Equal(t, strings.Repeat("=", len("PART I")), lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Item 1. Business", lines[3])
	assert.Equal(t, strings.Repeat("-", len("Item 1. Business")), lines[4])
	assert.Contains(t, out, "Acme sells widgets.\n")
}

func TestFormatted_Empty(t *testing.T) {
	assert.Equal(t, "", Formatted(nil))
}

func TestFlatten(t *testing.T) {
	h := Hierarchy{
		{Label: "PART I", Items: []Item{
			{Title: "Item 1. Business", Content: "A"},
			{Title: "Item 1A. Risk Factors", Content: "B"},
		}},
		{Label: "PART II", Items: []Item{
			{Title: "Item 7. MD&A", Content: "C"},
		}},
	}

	blocks := Flatten(h)
	require.Len(t, blocks, 3)
	assert.Equal(t, "PART I :: Item 1. Business", blocks[0].Label)
	assert.Equal(t, "A", blocks[0].Text)
	assert.Equal(t, "PART II :: Item 7. MD&A", blocks[2].Label)
}
