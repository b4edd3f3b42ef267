package filing

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/filing-cli/internal/chunk"
)

// WriteFormatted renders a Hierarchy as the human-readable structured text
// format: each part label underlined with '=', each item title underlined
// with '-', item content followed by a blank line. The format is write-only;
// Segment is not guaranteed to re-parse it.
func WriteFormatted(w io.Writer, h Hierarchy) error {
	for _, part := range h {
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", part.Label, strings.Repeat("=", len(part.Label))); err != nil {
			return eris.Wrap(err, "filing: write part header")
		}
		for _, item := range part.Items {
			if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n\n", item.Title, strings.Repeat("-", len(item.Title)), item.Content); err != nil {
				return eris.Wrap(err, "filing: write item")
			}
		}
	}
	return nil
}

// Formatted renders a Hierarchy to a string.
func Formatted(h Hierarchy) string {
	var sb strings.Builder
	_ = WriteFormatted(&sb, h) // strings.Builder writes never fail
	return sb.String()
}

// Flatten converts a Hierarchy into the ordered labeled blocks consumed by
// the chunk packer. Each item becomes one block keyed "PART X :: Item title";
// parts contribute blocks in canonical order.
func Flatten(h Hierarchy) []chunk.Block {
	var blocks []chunk.Block
	for _, part := range h {
		for _, item := range part.Items {
			blocks = append(blocks, chunk.Block{
				Label: part.Label + " :: " + item.Title,
				Text:  item.Content,
			})
		}
	}
	return blocks
}
