package summarize

import "strings"

// Phrases that mark a summary as unhelpful model output rather than
// extracted facts: apologies, refusals, and pass-through stubs.
var unhelpfulPhrases = []string{
	"sorry",
	"unfortunately",
	"i can't help",
	"i cannot help",
	"i don't have access",
	"i cannot access",
	"i'm unable to",
	"i am unable to",
	"no content provided",
	"doesn't contain any key facts",
	"does not contain any key facts",
	"brief section:",
	"not applicable",
	"the provided text does not contain",
	"the text does not contain",
	"if you could provide",
	"please provide",
	"can i help you with something else",
}

// Unhelpful reports whether a summary text signals that the generator could
// not extract facts from the section.
func Unhelpful(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range unhelpfulPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Filter drops unhelpful summaries so they never enter the analysis
// context, preserving document order of the rest.
func Filter(summaries []SectionSummary) []SectionSummary {
	kept := make([]SectionSummary, 0, len(summaries))
	for _, s := range summaries {
		if Unhelpful(s.Summary) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
