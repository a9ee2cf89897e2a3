package cleaner

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// NarrowToSelector keeps only the elements of rawHTML matching selector.
//
// The matches are re-rendered inside a minimal document that carries the
// original <title>, so readability still sees the page title. matched is
// false when nothing matched; rawHTML is then returned unchanged.
func NarrowToSelector(rawHTML string, selector string) (narrowed string, matched bool, err error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return rawHTML, false, fmt.Errorf("selector %q: %w", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, false, fmt.Errorf("selector: parse html: %w", err)
	}

	nodes := cascadia.QueryAll(doc, sel)
	if len(nodes) == 0 {
		return rawHTML, false, nil
	}

	var buf bytes.Buffer
	buf.WriteString("<html><head>")
	if title := cascadia.Query(doc, titleSelector); title != nil {
		if err := html.Render(&buf, title); err != nil {
			return rawHTML, false, err
		}
	}
	buf.WriteString("</head><body>")
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return rawHTML, false, err
		}
	}
	buf.WriteString("</body></html>")

	return buf.String(), true, nil
}

var titleSelector = cascadia.MustCompile("head > title")
