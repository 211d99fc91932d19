package extractor

import (
	"regexp"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Extractor pulls links, emails and page metadata out of raw page text
type Extractor struct {
	hrefRegex  *regexp.Regexp
	emailRegex *regexp.Regexp
}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{
		hrefRegex:  regexp.MustCompile(`href=['"]?([^'" >]+)`),
		emailRegex: regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,6}\b`),
	}
}

// ExtractLinks returns every href attribute value in the page, deduplicated
// in first-seen order. The page is matched as text, so malformed markup
// still yields its links.
func (e *Extractor) ExtractLinks(content string) []string {
	matches := e.hrefRegex.FindAllStringSubmatch(content, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m[1])
	}
	return uniqueStrings(links)
}

// ExtractEmails finds all email addresses in the content
func (e *Extractor) ExtractEmails(content string) []string {
	return uniqueStrings(e.emailRegex.FindAllString(content, -1))
}

// ExtractText extracts readable text from HTML using trafilatura, falling
// back to a plain walk over the text nodes.
func (e *Extractor) ExtractText(htmlContent string) string {
	result, err := trafilatura.Extract(strings.NewReader(htmlContent), trafilatura.Options{})
	if err == nil && result != nil && result.ContentText != "" {
		return result.ContentText
	}
	return fallbackText(htmlContent)
}

// ExtractMetadata extracts the title and meta description from HTML
func (e *Extractor) ExtractMetadata(htmlContent string) (title, description string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var isDesc bool
				var content string
				for _, attr := range n.Attr {
					if strings.EqualFold(attr.Key, "name") && strings.EqualFold(attr.Val, "description") {
						isDesc = true
					}
					if strings.EqualFold(attr.Key, "content") {
						content = strings.TrimSpace(attr.Val)
					}
				}
				if isDesc && content != "" {
					description = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return title, description, nil
}

func fallbackText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := []string{}
	for _, s := range values {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}
