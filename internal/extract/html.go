package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Article is the readable part of an HTML page.
type Article struct {
	Title string
	Text  string
}

// FromHTML extracts readable text from HTML, preferring <main> or <article>
// and falling back to <body>. Headings, paragraphs, list items, quotes and
// pre/code blocks keep their line structure; page chrome and consent banners
// are skipped.
func FromHTML(input []byte) Article {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Article{}
	}
	title := ""
	if head := findFirst(root, "head"); head != nil {
		if t := findFirst(head, "title"); t != nil && t.FirstChild != nil {
			title = strings.TrimSpace(t.FirstChild.Data)
		}
	}
	body := findFirst(root, "main")
	if body == nil {
		body = findFirst(root, "article")
	}
	if body == nil {
		body = findFirst(root, "body")
	}
	var b strings.Builder
	if body != nil {
		collectText(&b, body, false)
	}
	return Article{Title: title, Text: NormalizeText(b.String())}
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "nav": true, "footer": true,
	"aside": true, "iframe": true, "form": true, "svg": true, "button": true, "template": true,
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplate(n) {
			return
		}
		name := strings.ToLower(n.Data)
		if skipped[name] {
			return
		}
		switch name {
		case "pre":
			inPre = true
			b.WriteString("\n")
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "figcaption", "ul", "ol", "tr":
			b.WriteString("\n")
		case "td", "th":
			b.WriteString(" ")
		}
	}
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(data)
		}
		b.WriteString(data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
			b.WriteString("\n\n")
		case "figcaption":
			b.WriteString("\n")
		}
	}
}

// isBoilerplate reports whether the element looks like a cookie or consent
// banner, a share bar or a newsletter prompt.
func isBoilerplate(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr", "newsletter-signup", "share-buttons", "social-share"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

// NormalizeText trims every line, collapses runs of inner whitespace and
// keeps at most one blank line between paragraphs.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
