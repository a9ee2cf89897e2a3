package cleaner

import (
	"regexp"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// HTMLConverter turns an HTML fragment into Markdown. Relative links are
// resolved against domain.
type HTMLConverter interface {
	Convert(html string, domain string) (string, error)
}

// gfmConverter is the default HTMLConverter: html-to-markdown v2 with the
// GitHub-flavoured extensions (tables, strikethrough, task lists).
type gfmConverter struct {
	conv *converter.Converter
}

// NewGFMConverter creates a reusable, goroutine-safe converter:
//
//   - base plugin: drops script, style, iframe, noscript, head and comments.
//   - commonmark plugin: headings, lists, links, code, emphasis, quotes.
//   - table plugin: pipe tables with minimal cell padding.
//   - strikethrough plugin: <del>/<s>/<strike> as ~~text~~.
//
// Task-list checkboxes are rewritten before conversion, see markTaskItems.
func NewGFMConverter() HTMLConverter {
	return &gfmConverter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
				strikethrough.NewStrikethroughPlugin(),
			),
		),
	}
}

// escapedTaskRe matches list items whose "[ ]"/"[x]" marker came out escaped.
var escapedTaskRe = regexp.MustCompile(`(?m)^([ \t]*[-*+] )\\?\[([ xX])\\?\] `)

func (g *gfmConverter) Convert(html string, domain string) (string, error) {
	md, err := g.conv.ConvertString(markTaskItems(html), converter.WithDomain(domain))
	if err != nil {
		return "", err
	}
	return escapedTaskRe.ReplaceAllString(md, "$1[$2] "), nil
}
