// Package render implements the markdown converter, the algorithm
// renderer, and the IDL extractor, all built on a recursive *html.Node
// traversal idiom generalized from text-extraction to markdown emission.
package render

import (
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// residualMarkupPolicy strips any HTML tags that leaked into a text
// extraction as literal text (spec markup occasionally nests a raw
// example tag inside a dfn/code/var element instead of escaping it).
// Sanitize re-serializes as HTML, so the result is unescaped back to
// plain text before it's wrapped in markdown syntax.
var residualMarkupPolicy = bluemonday.StrictPolicy()

func stripResidualMarkup(s string) string {
	return stdhtml.UnescapeString(residualMarkupPolicy.Sanitize(s))
}

// Converter walks an HTML subtree and emits normalized markdown, resolving
// relative fragment links against BaseURL.
type Converter struct {
	BaseURL string
}

// NewConverter builds a Converter bound to a spec's base URL.
func NewConverter(baseURL string) *Converter {
	return &Converter{BaseURL: baseURL}
}

var singleMarkdownLink = regexp.MustCompile(`^\[(.+)\]\(([^)\s]+)\)$`)

// blockLevelTags are the elements this converter treats as separate
// markdown blocks, joined by a blank line.
var blockLevelTags = map[string]bool{
	"p": true, "div": true, "dd": true, "dt": true, "li": true,
	"section": true, "blockquote": true, "ol": true, "ul": true,
	"table": true, "pre": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true,
}

// ConvertNodes renders a sequence of sibling nodes (e.g. everything
// following a heading up to the next boundary) as markdown.
func (c *Converter) ConvertNodes(nodes []*html.Node) string {
	var blocks []string
	for _, n := range nodes {
		b := c.convertBlock(n)
		if strings.TrimSpace(b) != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// convertBlock renders one top-level node, dispatching to block-specific
// renderers (notes, props tables, algorithms) before falling back to
// inline conversion.
func (c *Converter) convertBlock(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch {
		case isNoteBlock(n):
			return c.renderNote(n)
		case n.Data == "dl" && hasClass(n, "props"):
			return c.renderPropsTable(n)
		case n.Data == "ol":
			return RenderOrderedList(n, c, 0)
		case n.Data == "ul":
			return RenderUnorderedList(n, c, 0)
		case n.Data == "pre":
			return "```\n" + ExtractPreformatted(n) + "\n```"
		}
	}
	return strings.TrimSpace(c.renderInline(n))
}

// noteLabels maps note-ish classes to their rendered label.
var noteLabels = []struct {
	class, label string
}{
	{"note", "Note"},
	{"example", "Example"},
	{"warning", "Warning"},
	{"issue", "Issue"},
	{"XXX", "Issue"},
}

func isNoteBlock(n *html.Node) bool {
	if n.Data != "div" && n.Data != "dd" && n.Data != "p" {
		return false
	}
	for _, nl := range noteLabels {
		if hasClass(n, nl.class) {
			return true
		}
	}
	return false
}

func noteLabelFor(n *html.Node) string {
	for _, nl := range noteLabels {
		if hasClass(n, nl.class) {
			return nl.label
		}
	}
	return ""
}

// renderNote renders a note/example/warning/issue block as a blockquote
// with the label bolded on the first line.
func (c *Converter) renderNote(n *html.Node) string {
	label := noteLabelFor(n)
	body := strings.TrimSpace(c.renderInline(n))
	lines := strings.Split(body, "\n")
	var out []string
	for i, line := range lines {
		if line == "" {
			out = append(out, ">")
			continue
		}
		if i == 0 && label != "" {
			out = append(out, fmt.Sprintf("> **%s:** %s", label, line))
			continue
		}
		out = append(out, "> "+line)
	}
	return strings.Join(out, "\n")
}

// renderPropsTable renders a dl.props element as a markdown table built
// from its dt/dd pairs.
func (c *Converter) renderPropsTable(dl *html.Node) string {
	var rows [][2]string
	var pendingField string
	for _, ch := range children(dl) {
		if ch.Type != html.ElementNode {
			continue
		}
		switch ch.Data {
		case "dt":
			pendingField = strings.TrimSpace(c.renderInline(ch))
		case "dd":
			rows = append(rows, [2]string{pendingField, strings.TrimSpace(c.renderInline(ch))})
			pendingField = ""
		}
	}
	var sb strings.Builder
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("| --- | --- |\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", escapePipes(r[0]), escapePipes(r[1])))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// renderInline converts n and its descendants to inline markdown text,
// dispatching on the named element's rendering rules.
func (c *Converter) renderInline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		return c.renderElement(n)
	default:
		return c.renderChildrenInline(n)
	}
}

func (c *Converter) renderChildrenInline(n *html.Node) string {
	var sb strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		sb.WriteString(c.renderInline(ch))
	}
	return sb.String()
}

func (c *Converter) renderElement(n *html.Node) string {
	switch {
	case n.Data == "a":
		return c.renderAnchor(n)
	case n.Data == "code":
		return wrapAsLink(stripResidualMarkup(c.renderChildrenInline(n)), "`", "`")
	case n.Data == "var":
		return wrapAsLink(stripResidualMarkup(c.renderChildrenInline(n)), "*", "*")
	case n.Data == "dfn":
		return wrapAsLink(stripResidualMarkup(c.renderChildrenInline(n)), "**", "**")
	case n.Data == "span" && hasClass(n, "secno"):
		return ""
	case isCustomHighlightTag(n):
		return c.renderChildrenInline(n)
	case blockLevelTags[n.Data] && n.Data != "dd" && n.Data != "li" && n.Data != "p" && n.Data != "div":
		// Nested block elements encountered while rendering inline content
		// (e.g. a <dl> inside a <p>) fall back to block rendering so their
		// own structure (table, list) is preserved.
		return "\n\n" + c.convertBlock(n) + "\n\n"
	default:
		return c.renderChildrenInline(n)
	}
}

// wrapAsLink wraps inner in open/close, except when inner is itself a
// single markdown link, in which case the link text is wrapped and the
// link survives.
func wrapAsLink(inner, open, close string) string {
	if m := singleMarkdownLink.FindStringSubmatch(inner); m != nil {
		return fmt.Sprintf("[%s%s%s](%s)", open, m[1], close, m[2])
	}
	return open + inner + close
}

func (c *Converter) renderAnchor(n *html.Node) string {
	if hasClass(n, "self-link") {
		return ""
	}
	text := c.renderChildrenInline(n)
	if attr(n, "data-link-type") == "biblio" {
		return text
	}
	href := attr(n, "href")
	if href == "" {
		return text
	}
	if strings.HasPrefix(href, "#") {
		return fmt.Sprintf("[%s](%s%s)", text, c.BaseURL, href)
	}
	return fmt.Sprintf("[%s](%s)", text, href)
}
