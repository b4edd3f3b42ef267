// Package chunk packs labeled text blocks into size-bounded batches for a
// generation service with a limited context window.
package chunk

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Block is the packer's unit of work: a labeled span of text. Blocks are
// never split across chunks.
type Block struct {
	Label string
	Text  string
}

// serialized returns the wire form of a block: a section marker line
// followed by the text. The marker framing is what the synthesizer and the
// report renderer key on downstream.
func (b Block) serialized() string {
	return "=== " + b.Label + " ===\n" + b.Text + "\n"
}

// serializedSize is the size the packer budgets for a block.
func (b Block) serializedSize() int {
	return len(b.serialized())
}

// Chunk is an ordered group of blocks whose combined serialized size fits
// the packer limit, except when a single block alone exceeds it.
type Chunk struct {
	Blocks []Block
}

// Serialized concatenates the chunk's blocks in order.
func (c Chunk) Serialized() string {
	var sb strings.Builder
	for _, b := range c.Blocks {
		sb.WriteString(b.serialized())
	}
	return sb.String()
}

// Size returns the serialized size of the chunk.
func (c Chunk) Size() int {
	n := 0
	for _, b := range c.Blocks {
		n += b.serializedSize()
	}
	return n
}

// Packer packs blocks under a fixed serialized-size limit.
type Packer struct {
	limit int
}

// NewPacker creates a packer. A non-positive limit is a programmer error and
// fails construction.
func NewPacker(limit int) (*Packer, error) {
	if limit < 1 {
		return nil, eris.Errorf("chunk: limit must be positive, got %d", limit)
	}
	return &Packer{limit: limit}, nil
}

// Limit returns the configured size limit.
func (p *Packer) Limit() int { return p.limit }

// Pack splits blocks into ordered chunks. The pass is greedy and
// deterministic: if everything fits under the limit a single chunk is
// returned; otherwise blocks accumulate until the next one would overflow,
// at which point the pending chunk is flushed. A block whose own serialized
// size exceeds the limit is emitted alone, never truncated. Packing is
// lossless: the concatenation of all chunks reproduces the concatenation of
// all input blocks.
func (p *Packer) Pack(blocks []Block) []Chunk {
	if len(blocks) == 0 {
		return nil
	}

	total := 0
	for _, b := range blocks {
		total += b.serializedSize()
	}
	if total <= p.limit {
		return []Chunk{{Blocks: blocks}}
	}

	var chunks []Chunk
	var pending []Block
	pendingSize := 0

	for _, b := range blocks {
		size := b.serializedSize()
		if len(pending) > 0 && pendingSize+size > p.limit {
			chunks = append(chunks, Chunk{Blocks: pending})
			pending = nil
			pendingSize = 0
		}
		pending = append(pending, b)
		pendingSize += size
	}
	if len(pending) > 0 {
		chunks = append(chunks, Chunk{Blocks: pending})
	}
	return chunks
}
