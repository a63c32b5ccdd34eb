package parse

import (
	"strings"

	"golang.org/x/net/html"

	"specindex/internal/model"
)

// URLResolver recognizes absolute spec URLs and splits them into a spec name
// and anchor, implemented by internal/provider. Reference extraction depends
// only on this narrow interface so it stays decoupled from the provider
// registry.
type URLResolver interface {
	Resolve(url string) (spec, anchor string, ok bool)
}

// ExtractReferences walks root in a single document-order descent, tracking
// current_scope as it enters Heading/Algorithm section anchors, and
// deduplicating on (from, to_spec, to_anchor).
func ExtractReferences(root *html.Node, sections []model.Section, resolver URLResolver) []model.Reference {
	scopeForming := make(map[string]bool, len(sections))
	for _, s := range sections {
		if s.IsScopeForming() {
			scopeForming[s.Anchor] = true
		}
	}

	var refs []model.Reference
	seen := make(map[[3]string]bool)
	currentScope := ""

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attrVal(n, "id"); id != "" && scopeForming[id] {
				currentScope = id
			}
			if n.Data == "a" {
				if ref, ok := refFromAnchor(n, currentScope, resolver); ok {
					key := [3]string{ref.FromAnchor, ref.ToSpec, ref.ToAnchor}
					if !seen[key] {
						seen[key] = true
						refs = append(refs, ref)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return refs
}

func refFromAnchor(a *html.Node, scope string, resolver URLResolver) (model.Reference, bool) {
	if hasClassAttr(a, "self-link") || attrVal(a, "data-link-type") == "biblio" {
		return model.Reference{}, false
	}
	href := attrVal(a, "href")
	if href == "" {
		return model.Reference{}, false
	}
	if strings.HasPrefix(href, "#") {
		return model.Reference{FromAnchor: scope, ToSpec: model.SelfSpec, ToAnchor: href[1:]}, true
	}
	if resolver != nil {
		if spec, anchor, ok := resolver.Resolve(href); ok {
			return model.Reference{FromAnchor: scope, ToSpec: spec, ToAnchor: anchor}, true
		}
	}
	return model.Reference{}, false
}
