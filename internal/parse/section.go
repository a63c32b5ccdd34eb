// Package parse implements the section parser, tree builder, and reference
// extractor, built on the internal/render primitives and the same
// golang.org/x/net/html traversal idiom.
package parse

import (
	"strings"

	"golang.org/x/net/html"

	"specindex/internal/model"
	"specindex/internal/render"
)

var idlDfnTypes = map[string]bool{
	"interface": true, "dictionary": true, "enum": true,
	"callback": true, "callback interface": true, "typedef": true,
}

// ParseSections walks root in document order and returns a flat section
// list with depth set for headings only. Parent/prev/next are not yet
// populated; call BuildTree next.
func ParseSections(root *html.Node, baseURL string) []model.Section {
	conv := render.NewConverter(baseURL)
	var sections []model.Section

	var walk func(n *html.Node, clauseDepth int)
	walk = func(n *html.Node, clauseDepth int) {
		if n.Type == html.ElementNode {
			switch {
			case headingLevelWithID(n) > 0:
				sections = append(sections, parseHeading(n, conv))
			case n.Data == "dfn" && attrVal(n, "id") != "":
				if s, ok := parseDfn(n, conv); ok {
					sections = append(sections, s)
				}
			case isEcmarkupClause(n) && attrVal(n, "id") != "":
				sections = append(sections, parseClause(n, conv, clauseDepth))
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, clauseDepth+1)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, clauseDepth)
		}
	}
	walk(root, 0)
	return sections
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClassAttr(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func headingLevelWithID(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if attrVal(n, "id") == "" {
		return 0
	}
	switch n.Data[1] {
	case '2', '3', '4', '5', '6':
		return int(n.Data[1] - '0')
	}
	return 0
}

func isEcmarkupClause(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "emu-clause" || n.Data == "emu-annex")
}

// ---- heading ----

func parseHeading(h *html.Node, conv *render.Converter) model.Section {
	depth := int(h.Data[1] - '0')
	title := strings.TrimSpace(headingTitle(h))
	content := strings.TrimSpace(conv.ConvertNodes(followingSiblingsUntil(h, depth)))
	return model.Section{
		Anchor:  attrVal(h, "id"),
		Title:   title,
		Content: content,
		Kind:    model.KindHeading,
		Depth:   depth,
	}
}

// headingTitle renders h's visible text, dropping descendants classed
// secno or self-link.
func headingTitle(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (hasClassAttr(node, "secno") || hasClassAttr(node, "self-link")) {
			return
		}
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

// followingSiblingsUntil collects h's following siblings up to (excluding)
// the next heading of equal-or-lower depth or the next undropped
// dfn-with-id.
func followingSiblingsUntil(h *html.Node, depth int) []*html.Node {
	var nodes []*html.Node
	for s := h.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			if hl := headingLevelWithID(s); hl > 0 && hl <= depth {
				break
			}
			if s.Data == "dfn" && attrVal(s, "id") != "" && !dfnSkipped(s) {
				break
			}
		}
		nodes = append(nodes, s)
	}
	return nodes
}

// ---- dfn ----

func dfnSkipped(n *html.Node) bool {
	if ancestorIsAlgorithmBlock(n) || ancestorIsClause(n) {
		return true
	}
	if attrVal(n, "data-dfn-type") == "argument" {
		return true
	}
	if attrVal(n, "data-dfn-for") != "" && attrVal(n, "data-dfn-type") == "" {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "var" {
			return true
		}
	}
	return false
}

// ancestorIsAlgorithmBlock reports whether n sits inside an ol/ul that is
// itself inside an algorithm container, i.e. a step-local definition.
func ancestorIsAlgorithmBlock(n *html.Node) bool {
	inList := false
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		if a.Data == "ol" || a.Data == "ul" {
			inList = true
		}
		if inList && isAlgorithmContainer(a) {
			return true
		}
	}
	return false
}

func ancestorIsClause(n *html.Node) bool {
	for a := n.Parent; a != nil; a = a.Parent {
		if isEcmarkupClause(a) {
			return true
		}
	}
	return false
}

func isAlgorithmContainer(n *html.Node) bool {
	return n.Data == "div" && (hasClassAttr(n, "algorithm") || attrVal(n, "data-algorithm") != "") ||
		n.Data == "emu-alg"
}

var enclosingBlockTags = map[string]bool{"p": true, "dd": true, "li": true}
var definitionBlockTags = map[string]bool{"p": true, "div": true, "dd": true, "dt": true, "li": true, "section": true}

func enclosingAncestor(n *html.Node, tags map[string]bool) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && tags[a.Data] {
			return a
		}
	}
	return nil
}

func ancestorAlgorithmContainer(n *html.Node) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && isAlgorithmContainer(a) {
			return a
		}
	}
	return nil
}

func ancestorPre(n *html.Node) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && a.Data == "pre" {
			return a
		}
	}
	return nil
}

func parseDfn(n *html.Node, conv *render.Converter) (model.Section, bool) {
	if dfnSkipped(n) {
		return model.Section{}, false
	}
	anchor := attrVal(n, "id")
	title := strings.TrimSpace(textOf(n))

	if dfnType := attrVal(n, "data-dfn-type"); idlDfnTypes[dfnType] {
		pre := ancestorPre(n)
		content := ""
		if pre != nil {
			content = render.ExtractPreformatted(pre)
		} else {
			content = title
		}
		return model.Section{Anchor: anchor, Title: title, Content: content, Kind: model.KindIdl}, true
	}

	if div := ancestorAlgorithmContainer(n); div != nil {
		ol := firstDescendantOl(div)
		if ol != nil {
			content := algorithmContent(introNodesExcluding(div, ol), ol, conv)
			return model.Section{Anchor: anchor, Title: title, Content: content, Kind: model.KindAlgorithm}, true
		}
	}
	if block := enclosingAncestor(n, enclosingBlockTags); block != nil {
		if ol := nextElementSiblingOl(block); ol != nil {
			intro := strings.TrimSpace(conv.ConvertNodes([]*html.Node{block}))
			content := algorithmContentJoin(intro, render.RenderOrderedList(ol, conv, 0))
			return model.Section{Anchor: anchor, Title: title, Content: content, Kind: model.KindAlgorithm}, true
		}
	}

	block := enclosingAncestor(n, definitionBlockTags)
	var content string
	if block != nil {
		content = strings.TrimSpace(conv.ConvertNodes([]*html.Node{block}))
	} else {
		content = title
	}
	return model.Section{Anchor: anchor, Title: title, Content: content, Kind: model.KindDefinition}, true
}

func textOf(n *html.Node) string {
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

func firstDescendantOl(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.Data == "ol" {
				return c
			}
			if found := firstDescendantOl(c); found != nil {
				return found
			}
		}
	}
	return nil
}

func nextElementSiblingOl(block *html.Node) *html.Node {
	for s := block.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			if s.Data == "ol" {
				return s
			}
			return nil
		}
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) != "" {
			return nil
		}
	}
	return nil
}

// introNodesExcluding returns div's children other than skip, for rendering
// the algorithm's intro text ahead of the numbered steps.
func introNodesExcluding(div, skip *html.Node) []*html.Node {
	var nodes []*html.Node
	for c := div.FirstChild; c != nil; c = c.NextSibling {
		if c == skip {
			continue
		}
		nodes = append(nodes, c)
	}
	return nodes
}

func algorithmContent(introNodes []*html.Node, ol *html.Node, conv *render.Converter) string {
	intro := strings.TrimSpace(conv.ConvertNodes(introNodes))
	return algorithmContentJoin(intro, render.RenderOrderedList(ol, conv, 0))
}

func algorithmContentJoin(intro, steps string) string {
	if intro == "" {
		return steps
	}
	return intro + "\n\n" + steps
}

// ---- ecmarkup clause ----

func parseClause(n *html.Node, conv *render.Converter, clauseDepth int) model.Section {
	anchor := attrVal(n, "id")
	heading := firstHeadingChild(n)
	title := ""
	if heading != nil {
		title = strings.TrimSpace(headingTitle(heading))
	}

	algBlock := directAlgorithmChild(n)
	if algBlock != nil {
		ol := firstDescendantOl(algBlock)
		if ol != nil {
			intro := introNodesExcludingClauseChildren(n, heading, algBlock)
			content := algorithmContent(intro, ol, conv)
			return model.Section{Anchor: anchor, Title: title, Content: content, Kind: model.KindAlgorithm}
		}
	}

	intro := introNodesExcludingClauseChildren(n, heading, nil)
	content := strings.TrimSpace(conv.ConvertNodes(intro))
	return model.Section{
		Anchor:  anchor,
		Title:   title,
		Content: content,
		Kind:    model.KindHeading,
		Depth:   clauseDepth + 2,
	}
}

func firstHeadingChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && len(c.Data) == 2 && c.Data[0] == 'h' && c.Data[1] >= '1' && c.Data[1] <= '6' {
			return c
		}
	}
	return nil
}

func directAlgorithmChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isAlgorithmContainer(c) {
			return c
		}
	}
	return nil
}

// introNodesExcludingClauseChildren returns n's children other than its own
// heading, the named algorithm block, and any nested clause/annex (those
// become their own sections).
func introNodesExcludingClauseChildren(n, heading, algBlock *html.Node) []*html.Node {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c == heading || c == algBlock {
			continue
		}
		if isEcmarkupClause(c) {
			continue
		}
		nodes = append(nodes, c)
	}
	return nodes
}
