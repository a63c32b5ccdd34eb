package render

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractPreformatted walks a preformatted element depth-first, accumulating
// text nodes only (element tags contribute nothing), strips any residual
// markup left over in the text (stray IDL/example markup sometimes leaks
// into a pre block as literal text), and right-trims the result, preserving
// internal whitespace and leading indentation verbatim.
func ExtractPreformatted(pre *html.Node) string {
	return strings.TrimRight(stripResidualMarkup(textContent(pre)), " \t\n\r")
}
