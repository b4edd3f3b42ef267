package filing

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Line patterns that carry no analyzable content: XBRL metadata, bare URLs,
// page headers, dates, CIK numbers, formatting artifacts.
var (
	urlLine           = regexp.MustCompile(`^https?://\S+$`)
	xbrlTagLine       = regexp.MustCompile(`^(iso4217|xbrli|us-gaap|dei|srt):\S+$`)
	xbrlTokenLine     = regexp.MustCompile(`^(P\d+[YDM]|false|true|FY|\d{10})$`)
	companyPrefixLine = regexp.MustCompile(`^[a-z][a-z0-9-]*:[A-Za-z0-9]\S*$`)
	pageHeaderLine    = regexp.MustCompile(`^.+\s\|\s\d{4}\sForm\s10-K\s\|\s\d+$`)
	isoDateLine       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	arrowLine         = regexp.MustCompile(`→`)
	shortLine         = regexp.MustCompile(`^.{1,3}$`)
	footnoteLine      = regexp.MustCompile(`^\(\d+\)$|^\*+$`)
	lineNumberPrefix  = regexp.MustCompile(`^\s*\d+→`)
)

// Markers that open a legal or administrative section with no analytical
// value (signatures, powers of attorney, exhibit attestations).
var legalSectionMarkers = []string{
	"SIGNATURES",
	"Power of Attorney",
	"KNOW ALL PERSONS BY THESE PRESENTS",
	"Pursuant to the requirements",
	"Filed herewith",
	"Furnished herewith",
	"Indicates management contract",
	"Item 16.    Form 10-K Summary",
}

// Cleaner filters raw filing text down to the lines worth analyzing.
//
// Legal-section handling: once a legal marker is seen, subsequent lines are
// dropped until the next PART header, at which point normal processing
// resumes. The skip state never outlives the top-level section it started in.
type Cleaner struct{}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean normalizes the text to NFC and removes metadata lines, legal
// boilerplate sections and formatting noise. It is a total function over any
// input string.
func (c *Cleaner) Clean(text string) string {
	text = norm.NFC.String(text)

	var kept []string
	skippingLegal := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if skippingLegal {
			if partPattern.MatchString(line) {
				skippingLegal = false
			} else {
				continue
			}
		}

		if isLegalSectionStart(line) {
			skippingLegal = true
			continue
		}

		line = strings.TrimSpace(lineNumberPrefix.ReplaceAllString(line, ""))
		if line == "" {
			// Collapse blank-line runs to a single separator.
			if len(kept) > 0 && kept[len(kept)-1] != "" {
				kept = append(kept, "")
			}
			continue
		}
		if isMetadataLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	for i, line := range kept {
		kept[i] = spaceRun.ReplaceAllString(line, " ")
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

var spaceRun = regexp.MustCompile(` {2,}`)

func isLegalSectionStart(line string) bool {
	for _, marker := range legalSectionMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func isMetadataLine(line string) bool {
	if urlLine.MatchString(line) ||
		xbrlTagLine.MatchString(line) ||
		xbrlTokenLine.MatchString(line) ||
		companyPrefixLine.MatchString(line) ||
		pageHeaderLine.MatchString(line) ||
		isoDateLine.MatchString(line) ||
		arrowLine.MatchString(line) ||
		footnoteLine.MatchString(line) {
		return true
	}
	if line == "Member" || strings.HasSuffix(line, "Member") {
		return true
	}
	return shortLine.MatchString(line)
}
