package pipeline

import (
	"regexp"
	"strings"
)

// Facet is one numbered bold section of an analysis text, e.g.
// "**1. Business Model Analysis**".
type Facet struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"key_points,omitempty"`
	Metrics   Metrics  `json:"metrics"`
}

// Metrics collects the quantitative mentions found in a facet's content.
type Metrics struct {
	DollarAmounts    []string `json:"dollar_amounts,omitempty"`
	Percentages      []string `json:"percentages,omitempty"`
	Years            []string `json:"years,omitempty"`
	GrowthIndicators []string `json:"growth_indicators,omitempty"`
}

var (
	facetHeading = regexp.MustCompile(`\*\*(\d+\.\s*[^*]+?)\*\*`)
	bulletLine   = regexp.MustCompile(`^\s*(?:[*•-])\s+(.+)$`)
	dollarAmount = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d+)?(?:\s*(?:billion|million|thousand|[BMK]))?`)
	percentValue = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	yearValue    = regexp.MustCompile(`\b20\d{2}\b`)
	growthPhrase = regexp.MustCompile(`(?i)(increased?|decreased?|grew|grown|declined?)\s+(?:by\s+)?(\d+(?:\.\d+)?%?)`)
)

// ParseFacets splits an analysis text on its numbered bold headings and
// extracts each section's bullet points and quantitative mentions. Text
// without any such headings yields nil.
func ParseFacets(text string) []Facet {
	headings := facetHeading.FindAllStringSubmatchIndex(text, -1)
	if len(headings) == 0 {
		return nil
	}

	facets := make([]Facet, 0, len(headings))
	for i, loc := range headings {
		title := strings.TrimSpace(text[loc[2]:loc[3]])
		start := loc[1]
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		content := strings.TrimSpace(text[start:end])

		facets = append(facets, Facet{
			Title:     title,
			Content:   content,
			KeyPoints: extractKeyPoints(content),
			Metrics:   extractMetrics(content),
		})
	}
	return facets
}

// extractKeyPoints returns the bullet-point lines of a facet's content,
// with the bullet marker and any bold markup stripped.
func extractKeyPoints(content string) []string {
	var points []string
	for _, line := range strings.Split(content, "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		point := strings.TrimSpace(strings.ReplaceAll(m[1], "**", ""))
		if point != "" {
			points = append(points, point)
		}
	}
	return points
}

func extractMetrics(content string) Metrics {
	m := Metrics{
		DollarAmounts: dollarAmount.FindAllString(content, -1),
		Percentages:   percentValue.FindAllString(content, -1),
		Years:         dedupe(yearValue.FindAllString(content, -1)),
	}
	for _, g := range growthPhrase.FindAllStringSubmatch(content, -1) {
		m.GrowthIndicators = append(m.GrowthIndicators, g[1]+" "+g[2])
	}
	return m
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
