// Package webpage fetches article pages linked from episode descriptions
// and reduces them to plain prose suitable for prompting.
package webpage

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"podsumgo/pkg/request"
)

// boilerplatePatterns match phrases that survive extraction but carry no
// article content. They are removed before the substance check.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)subscribe\s+to\s+our\s+newsletter`),
	regexp.MustCompile(`(?i)follow\s+us\s+on`),
	regexp.MustCompile(`(?i)all\s+rights\s+reserved`),
	regexp.MustCompile(`(?i)copyright\s+\d{4}`),
	regexp.MustCompile(`(?i)privacy\s+policy`),
	regexp.MustCompile(`(?i)terms\s+of\s+service`),
	regexp.MustCompile(`(?i)cookie\s+policy`),
	regexp.MustCompile(`(?i)advertisement`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Substance floor. Pages below it are treated as misses rather than fed to
// the model, which hallucinates freely on thin input.
const (
	minContentChars = 500
	minContentWords = 50
)

// Fetcher retrieves a linked page and extracts its readable text.
type Fetcher struct {
	rc *request.Client
}

func NewFetcher(rc *request.Client) *Fetcher {
	return &Fetcher{rc: rc}
}

// Fetch downloads the page at u and returns its cleaned article text.
// The second return is false when the page is unreachable, not text, or
// too thin to summarize. Fetch never returns an error; a miss simply
// moves the pipeline to its next source.
func (f *Fetcher) Fetch(ctx context.Context, u string) (string, bool) {
	body, err := f.rc.Get(ctx, u, "")
	if err != nil {
		slog.Debug("webpage fetch failed", "url", u, "error", err)
		return "", false
	}

	raw := string(body)
	if !looksLikeText(raw) {
		slog.Debug("webpage content not text", "url", u)
		return "", false
	}

	content := extractText(raw)
	content = stripBoilerplate(content)

	if !isSubstantial(content) {
		slog.Debug("webpage content too thin", "url", u, "chars", len(content))
		return "", false
	}
	return content, true
}

// extractText runs readability first and falls back to a raw DOM walk when
// readability finds no article body (common on sparse show-notes pages).
func extractText(rawHTML string) string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}
	return extractProse(rawHTML)
}

// extractProse collects text from the document body, skipping chrome
// elements (nav, header, footer, aside) and non-content nodes.
func extractProse(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}

	var b strings.Builder
	collectText(body, &b)
	return strings.TrimSpace(b.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findBody(c); res != nil {
			return res
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Noscript:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func stripBoilerplate(content string) string {
	for _, re := range boilerplatePatterns {
		content = re.ReplaceAllString(content, " ")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(content, " "))
}

// isSubstantial requires enough prose to anchor a summary. Words shorter
// than three characters do not count toward the word floor.
func isSubstantial(content string) bool {
	if len(content) <= minContentChars {
		return false
	}
	words := 0
	for _, w := range strings.Fields(content) {
		if len(w) > 2 {
			words++
		}
	}
	return words > minContentWords
}

// looksLikeText rejects payloads that are clearly binary. The request
// client hands back bytes without headers, so sniff instead.
func looksLikeText(raw string) bool {
	sample := raw
	if len(sample) > 512 {
		sample = sample[:512]
	}
	ct := http.DetectContentType([]byte(sample))
	return strings.HasPrefix(ct, "text/")
}
