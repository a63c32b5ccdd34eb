package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// parseBody parses fragment as a full HTML document and returns its <body>
// element, for tests that want a real *html.Node tree to walk.
func parseBody(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	require.NoError(t, err)
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, body, "no body found")
	return body
}

func TestConvertAnchorSelfLink(t *testing.T) {
	body := parseBody(t, `<p><a class="self-link" href="#foo">#</a>text</p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.NotContains(t, out, "#foo", "self-link should be dropped")
	assert.Contains(t, out, "text")
}

func TestConvertAnchorFragment(t *testing.T) {
	body := parseBody(t, `<p><a href="#dom-foo">foo</a></p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.Contains(t, out, "[foo](https://example.org/spec/#dom-foo)")
}

func TestConvertAnchorBiblio(t *testing.T) {
	body := parseBody(t, `<p><a data-link-type="biblio" href="#biblio-rfc2119">[RFC2119]</a></p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.NotContains(t, out, "(", "biblio link should emit text only")
	assert.Contains(t, out, "[RFC2119]")
}

func TestConvertCodeWrapsLinkText(t *testing.T) {
	body := parseBody(t, `<p><code><a href="#x">foo</a></code></p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.Contains(t, out, "[`foo`](https://example.org/spec/#x)")
}

func TestConvertNoteBlock(t *testing.T) {
	body := parseBody(t, `<p class="note">Careful here.</p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.True(t, strings.HasPrefix(out, "> **Note:** Careful here."), "got %q", out)
}

func TestConvertPropsTable(t *testing.T) {
	body := parseBody(t, `<dl class="props"><dt>Name</dt><dd>foo</dd><dt>Type</dt><dd>bar</dd></dl>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	for _, want := range []string{"| Field | Value |", "| Name | foo |", "| Type | bar |"} {
		assert.Contains(t, out, want)
	}
}

func TestConvertSecnoDropped(t *testing.T) {
	body := parseBody(t, `<p><span class="secno">3.1 </span>Title text</p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.NotContains(t, out, "3.1", "secno span should be dropped")
}

func TestConvertCustomHighlightTag(t *testing.T) {
	body2 := parseBody(t, `<p>x is <c-kwd>let</c-kwd> y</p>`)
	conv := NewConverter("https://example.org/spec/")
	got := conv.ConvertNodes(children(body2))
	assert.NotContains(t, got, "<c-kwd>", "custom highlight tag should be stripped")
	assert.NotContains(t, got, "c-kwd")
	assert.Contains(t, got, "let", "expected inner text preserved")
}

func TestConvertDfnStripsResidualMarkup(t *testing.T) {
	// Spec markup occasionally leaks an escaped example tag into a dfn's
	// text content instead of nesting a real element; the bare "<div>"
	// text should be stripped rather than emitted verbatim into markdown.
	body := parseBody(t, `<p>A <dfn id="x">&lt;div&gt;bad&lt;/div&gt; widget</dfn> is a thing.</p>`)
	conv := NewConverter("https://example.org/spec/")
	out := conv.ConvertNodes(children(body))
	assert.NotContains(t, out, "<div>")
	assert.Contains(t, out, "bad widget")
}

func TestRenderOrderedListNested(t *testing.T) {
	body := parseBody(t, `<ol><li><p>Top</p><ol><li><p>Nested</p></li></ol></li></ol>`)
	conv := NewConverter("https://example.org/spec/")
	var ol *html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "ol" {
			ol = c
			break
		}
	}
	require.NotNil(t, ol)
	out := RenderOrderedList(ol, conv, 0)
	assert.Contains(t, out, "1. Top")
	assert.Contains(t, out, "    1. Nested")
}

func TestExtractPreformattedTrimsRight(t *testing.T) {
	body := parseBody(t, "<pre>interface Foo {\n  attribute long bar;\n};\n\n  \n</pre>")
	pre := body.FirstChild
	out := ExtractPreformatted(pre)
	assert.False(t, strings.HasSuffix(out, "\n") || strings.HasSuffix(out, " "), "expected right-trimmed output, got %q", out)
	assert.Contains(t, out, "  attribute long bar;", "expected internal indentation preserved")
}
