package filing

import (
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// Tags whose entire subtree is boilerplate in an EDGAR filing document.
var strippedTags = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"meta":   true,
	"table":  true,
}

var (
	pageNumberLine = regexp.MustCompile(`^\d{1,4}$`)
	tocLine        = regexp.MustCompile(`(?i)table of contents`)
)

// StripHTML extracts the visible text of an HTML filing document, dropping
// script/style/head/meta/table subtrees, bare page-number lines and table of
// contents references. Each remaining text node becomes one trimmed line.
func StripHTML(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", eris.Wrap(err, "filing: parse html")
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strippedTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			for _, raw := range strings.Split(n.Data, "\n") {
				line := strings.TrimSpace(raw)
				if line == "" || pageNumberLine.MatchString(line) || tocLine.MatchString(line) {
					continue
				}
				lines = append(lines, line)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}
