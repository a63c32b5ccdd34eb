package render

import (
	"strings"

	"golang.org/x/net/html"
)

// attr returns the value of attribute key on n, or "" if absent. Grounded
// on an attribute-scanning idiom used throughout HTML
// extraction code (researcher.extractAtomsFromHTML walks n.Attr the same
// way).
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether n carries class in its space-separated class
// attribute.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// hasAnyClass reports whether n carries any of the given classes.
func hasAnyClass(n *html.Node, classes ...string) bool {
	for _, c := range classes {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

func tagName(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// isCustomHighlightTag matches ecmarkup/syntax-highlighting pseudo-elements
// (e.g. <c-name>, <c-kwd>) that contribute only their text.
func isCustomHighlightTag(n *html.Node) bool {
	return n.Type == html.ElementNode && strings.HasPrefix(n.Data, "c-")
}

// textContent concatenates all descendant text nodes of n, depth-first,
// contributing nothing for element tags themselves.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// children returns the element/text children of n as a slice, for callers
// that need to iterate more than once.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// nextElementSibling returns the next sibling that is an element node,
// skipping whitespace text nodes, or nil.
func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) != "" {
			return nil
		}
	}
	return nil
}

// headingLevel returns 2-6 for h2..h6, or 0 if n is not a heading element.
func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	switch n.Data[1] {
	case '2', '3', '4', '5', '6':
		return int(n.Data[1] - '0')
	}
	return 0
}
