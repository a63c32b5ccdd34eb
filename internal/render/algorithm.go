package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// indentUnit is the number of spaces per nesting level, matching the
// 4-space convention the step parser expects for nested steps.
const indentUnit = 4

// RenderOrderedList renders an <ol> subtree as numbered markdown steps,
// indented indentUnit spaces per nesting level.
func RenderOrderedList(ol *html.Node, conv *Converter, level int) string {
	var parts []string
	num := 1
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "li" {
			parts = append(parts, renderStep(c, conv, level, num))
			num++
			continue
		}
		// Non-li content interleaved between steps (notes, examples):
		// rendered via the markdown converter and inserted as an indented
		// blockquote continuation.
		body := conv.convertBlock(c)
		if strings.TrimSpace(body) == "" {
			continue
		}
		parts = append(parts, indentLines(body, level+1))
	}
	return strings.Join(parts, "\n\n")
}

// RenderUnorderedList renders a <ul> as "*"-bulleted markdown, indented.
func RenderUnorderedList(ul *html.Node, conv *Converter, level int) string {
	var lines []string
	for c := ul.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		text := strings.TrimSpace(conv.renderInline(c))
		prefix := strings.Repeat(" ", level*indentUnit) + "* "
		bulletLines := strings.Split(text, "\n")
		for i, l := range bulletLines {
			if i == 0 {
				lines = append(lines, prefix+l)
			} else if l == "" {
				lines = append(lines, "")
			} else {
				lines = append(lines, strings.Repeat(" ", (level+1)*indentUnit)+l)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// renderStep renders a single <li> of an algorithm as "N. text", with any
// nested <ol>/<ul> rendered as an indented sub-block preceded by a blank
// line, and any continuation content re-indented one extra level so
// downstream markdown parsers treat it as part of the step.
func renderStep(li *html.Node, conv *Converter, level, num int) string {
	prefix := strings.Repeat(" ", level*indentUnit) + fmt.Sprintf("%d. ", num)
	var sb strings.Builder
	sb.WriteString(prefix)

	firstPieceWritten := false
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.Data == "ol":
			sb.WriteString("\n\n")
			sb.WriteString(RenderOrderedList(c, conv, level+1))
			firstPieceWritten = true
		case c.Type == html.ElementNode && c.Data == "ul":
			sb.WriteString("\n\n")
			sb.WriteString(RenderUnorderedList(c, conv, level+1))
			firstPieceWritten = true
		default:
			text := strings.TrimSpace(conv.renderInline(c))
			if text == "" {
				continue
			}
			if !firstPieceWritten {
				sb.WriteString(text)
				firstPieceWritten = true
			} else {
				sb.WriteString("\n")
				sb.WriteString(indentLines(text, level+1))
			}
		}
	}
	return sb.String()
}

// indentLines prefixes every non-empty line of s with level*indentUnit
// spaces; blank lines are left blank.
func indentLines(s string, level int) string {
	if level <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", level*indentUnit)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
