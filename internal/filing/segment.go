// Package filing recovers the canonical Part → Item structure of a 10-K
// filing from loosely formatted plain text, and prepares that structure for
// downstream analysis.
package filing

import (
	"regexp"
	"strings"
)

// Canonical part labels, in the order they must appear in output.
var canonicalParts = []string{"PART I", "PART II", "PART III", "PART IV"}

// partPattern matches a Part header occupying its own physical line, e.g.
// "PART II" or "  part iv  ". Roman numerals beyond IV are matched here and
// discarded later.
var partPattern = regexp.MustCompile(`(?im)^[ \t]*(PART[ \t]+[IVXLC]+)[ \t]*\r?$`)

// itemPattern matches an Item header evaluated per physical line, e.g.
// "Item 1A. Risk Factors". The title capture runs to end of line.
var itemPattern = regexp.MustCompile(`(?im)^[ \t]*(Item[ \t]+\d+[A-Z]?\.?[ \t]+[^\r\n]+?)[ \t]*\r?$`)

// Item is a single titled content span within a part.
type Item struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// PartSection is one canonical part with its items in document order.
type PartSection struct {
	Label string `json:"label" yaml:"label"`
	Items []Item `json:"items" yaml:"items"`
}

// Hierarchy is the ordered result of segmenting a filing: canonical parts in
// canonical order, each with at least one item. A part with no detected
// items is never present.
type Hierarchy []PartSection

// Part returns the section for a canonical label, if present.
func (h Hierarchy) Part(label string) (PartSection, bool) {
	for _, p := range h {
		if p.Label == label {
			return p, true
		}
	}
	return PartSection{}, false
}

// ItemCount returns the total number of items across all parts.
func (h Hierarchy) ItemCount() int {
	n := 0
	for _, p := range h {
		n += len(p.Items)
	}
	return n
}

// Segment parses raw filing text into a Hierarchy. It is a pure, total
// function: any input is accepted, and text with no recognizable headers
// yields an empty Hierarchy.
//
// The scan is two-pass: all Part header offsets are collected first, then
// the text is sliced between consecutive headers. Non-canonical part labels
// (e.g. "PART V") are recognized and dropped, and their text is not
// attributed elsewhere. If the same canonical label appears more than once,
// the first occurrence wins and later slices are ignored.
func Segment(text string) Hierarchy {
	matches := partPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	type partSlice struct {
		label string
		start int
		end   int
	}

	slices := make([]partSlice, 0, len(matches))
	for i, m := range matches {
		label := normalizeSpaces(strings.ToUpper(strings.TrimSpace(text[m[2]:m[3]])))
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		slices = append(slices, partSlice{label: label, start: m[0], end: end})
	}

	byLabel := make(map[string]string, len(canonicalParts))
	for _, s := range slices {
		if !isCanonicalPart(s.label) {
			continue
		}
		if _, seen := byLabel[s.label]; seen {
			continue // first occurrence wins
		}
		byLabel[s.label] = text[s.start:s.end]
	}

	var out Hierarchy
	for _, label := range canonicalParts {
		partText, ok := byLabel[label]
		if !ok {
			continue
		}
		items := segmentItems(partText)
		if len(items) == 0 {
			continue // a part with zero items is omitted entirely
		}
		out = append(out, PartSection{Label: label, Items: items})
	}
	return out
}

// segmentItems slices one part's text into items. Text preceding the first
// item header is discarded.
func segmentItems(partText string) []Item {
	matches := itemPattern.FindAllStringSubmatchIndex(partText, -1)
	if len(matches) == 0 {
		return nil
	}

	items := make([]Item, 0, len(matches))
	for i, m := range matches {
		title := normalizeTitle(partText[m[2]:m[3]])
		contentStart := m[1]
		contentEnd := len(partText)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}
		items = append(items, Item{
			Title:   title,
			Content: strings.TrimSpace(partText[contentStart:contentEnd]),
		})
	}
	return items
}

func isCanonicalPart(label string) bool {
	for _, c := range canonicalParts {
		if label == c {
			return true
		}
	}
	return false
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

func normalizeSpaces(s string) string {
	return multiSpace.ReplaceAllString(s, " ")
}

// normalizeTitle trims an item title, collapses internal whitespace runs and
// reduces literal ".." to ".".
func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = normalizeSpaces(title)
	title = strings.ReplaceAll(title, "..", ".")
	return strings.TrimSpace(title)
}
