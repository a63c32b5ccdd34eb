package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"specindex/internal/model"
)

func parseDoc(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	var found *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	return found
}

func byAnchor(sections []model.Section, anchor string) (model.Section, bool) {
	for _, s := range sections {
		if s.Anchor == anchor {
			return s, true
		}
	}
	return model.Section{}, false
}

func TestParseSectionsHeadingTree(t *testing.T) {
	body := parseDoc(t, `
<h2 id="s1">Intro</h2>
<p>Some intro text.</p>
<h3 id="s1a">Sub one</h3>
<p>Sub one text.</p>
<h2 id="s2">Second</h2>
<p>Second text.</p>`)

	sections := BuildTree(ParseSections(body, "https://example.org/spec/"))

	s1, ok := byAnchor(sections, "s1")
	require.True(t, ok, "missing section s1")
	assert.Equal(t, model.KindHeading, s1.Kind)
	assert.Equal(t, 2, s1.Depth)
	assert.Contains(t, s1.Content, "Some intro text.")

	s1a, ok := byAnchor(sections, "s1a")
	require.True(t, ok, "missing section s1a")
	assert.Equal(t, "s1", s1a.ParentAnchor)

	s2, ok := byAnchor(sections, "s2")
	require.True(t, ok, "missing section s2")
	assert.Empty(t, s2.ParentAnchor, "s2 should be top-level")
	assert.Equal(t, "s2", s1.NextAnchor)
	assert.Equal(t, "s1", s2.PrevAnchor)
}

func TestParseDfnAlgorithm(t *testing.T) {
	body := parseDoc(t, `<p><dfn id="dom-foo-bar">bar()</dfn> runs these steps:</p>
<ol>
<li>Let <var>x</var> be 1.</li>
<li>Return <var>x</var>.</li>
</ol>`)
	sections := ParseSections(body, "https://example.org/spec/")
	s, ok := byAnchor(sections, "dom-foo-bar")
	require.True(t, ok, "missing dfn section")
	assert.Equal(t, model.KindAlgorithm, s.Kind)
	assert.Contains(t, s.Content, "1. Let")
}

func TestParseDfnArgumentSkipped(t *testing.T) {
	body := parseDoc(t, `<p>The <dfn id="x" data-dfn-type="argument">x</dfn> argument.</p>`)
	sections := ParseSections(body, "https://example.org/spec/")
	_, ok := byAnchor(sections, "x")
	assert.False(t, ok, "argument dfn should be skipped")
}

func TestParseDfnIdl(t *testing.T) {
	body := parseDoc(t, `<pre><dfn id="foo-iface" data-dfn-type="interface">Foo</dfn> {
  attribute long bar;
};
</pre>`)
	sections := ParseSections(body, "https://example.org/spec/")
	s, ok := byAnchor(sections, "foo-iface")
	require.True(t, ok, "missing idl section")
	assert.Equal(t, model.KindIdl, s.Kind)
	assert.Contains(t, s.Content, "attribute long bar;")
}

func TestParseDfnDefinition(t *testing.T) {
	body := parseDoc(t, `<p>A <dfn id="widget">widget</dfn> is a thing.</p>`)
	sections := ParseSections(body, "https://example.org/spec/")
	s, ok := byAnchor(sections, "widget")
	require.True(t, ok, "missing definition section")
	assert.Equal(t, model.KindDefinition, s.Kind)
	assert.Contains(t, s.Content, "is a thing")
}

type fakeResolver struct{}

func (fakeResolver) Resolve(url string) (string, string, bool) {
	if strings.HasPrefix(url, "https://other.example/spec/") {
		return "other", strings.TrimPrefix(url, "https://other.example/spec/#"), true
	}
	return "", "", false
}

func TestExtractReferencesScopeAndDedup(t *testing.T) {
	body := parseDoc(t, `
<h2 id="s1">Intro</h2>
<p><a href="#dom-foo">foo</a></p>
<p><a href="#dom-foo">foo again</a></p>
<p><dfn id="param" data-dfn-for="foo">param</dfn></p>
<h2 id="s2">Steps</h2>
<p><dfn id="do-it">do it()</dfn> runs these steps:</p>
<ol><li>See <a href="https://other.example/spec/#thing">thing</a>.</li></ol>`)

	sections := BuildTree(ParseSections(body, "https://example.org/spec/"))
	refs := ExtractReferences(body, sections, fakeResolver{})

	want := []model.Reference{
		{FromAnchor: "s1", ToSpec: model.SelfSpec, ToAnchor: "dom-foo"},
		{FromAnchor: "do-it", ToSpec: "other", ToAnchor: "thing"},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}

	doIt, ok := byAnchor(sections, "do-it")
	require.True(t, ok, "expected do-it section to exist")
	assert.Equal(t, model.KindAlgorithm, doIt.Kind, "expected scope attributed to the enclosing algorithm, not param")
}
