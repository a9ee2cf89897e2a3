package cleaner

import (
	"regexp"
	"strings"
)

var (
	// linkWithImageRe matches a link whose text may span lines and may end
	// in an embedded image:
	//
	//	[ text \n ![alt](img) \n ](url)
	//
	// Groups: 1 text, 2 image, 3 alt, 4 img, 5 url.
	linkWithImageRe = regexp.MustCompile(`\[\s*([^\[\]]*?)\s*(!\[([^\[\]]*?)\]\(([^()]*?)\))?\s*\]\s*\(([^()]*?)\)`)

	// plainLinkRe matches any remaining [text](url).
	plainLinkRe = regexp.MustCompile(`\[([^\[\]]*)\]\s*\(([^()]*)\)`)

	// blankRunRe matches three or more newlines; lines holding only spaces
	// or tabs count as blank.
	blankRunRe = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

	// indentRe matches leading spaces/tabs on every line.
	indentRe = regexp.MustCompile(`(?m)^[ \t]+`)
)

// tidyPass is one text-to-text normalization step.
type tidyPass func(string) string

// tidyPasses run in order; each assumes the output shape of the ones before.
var tidyPasses = []tidyPass{
	reflowLinks,
	normalizeLinks,
	collapseBlankLines,
	stripIndentation,
	strings.TrimSpace,
}

// TidyMarkdown normalizes converted Markdown into a stable, diff-friendly
// form. It is idempotent: TidyMarkdown(TidyMarkdown(s)) == TidyMarkdown(s).
//
// Indentation is stripped from every line, including fenced code blocks.
func TidyMarkdown(markdown string) string {
	for _, pass := range tidyPasses {
		markdown = pass(markdown)
	}
	return markdown
}

// reflowLinks rewrites multi-line links and links wrapping an image onto a
// single line: [text ![alt](img)](url) or [text](url).
func reflowLinks(s string) string {
	return replaceSubmatches(linkWithImageRe, s, func(g []string) string {
		text, alt, img, href := collapseSpace(g[1]), collapseSpace(g[3]), stripSpace(g[4]), stripSpace(g[5])

		inner := text
		// The image group is never an empty match, so "" means absent.
		if g[2] != "" {
			image := "![" + alt + "](" + img + ")"
			if inner == "" {
				inner = image
			} else {
				inner += " " + image
			}
		}
		return "[" + inner + "](" + href + ")"
	})
}

// normalizeLinks collapses whitespace in link text and removes it from URLs.
func normalizeLinks(s string) string {
	return replaceSubmatches(plainLinkRe, s, func(g []string) string {
		return "[" + collapseSpace(g[1]) + "](" + stripSpace(g[2]) + ")"
	})
}

func collapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

func stripIndentation(s string) string {
	return indentRe.ReplaceAllString(s, "")
}

// collapseSpace trims s and folds every internal whitespace run to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripSpace removes all whitespace from s.
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// replaceSubmatches is regexp.ReplaceAllStringFunc with access to capture
// groups. Unmatched optional groups are passed as "".
func replaceSubmatches(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		groups := make([]string, len(m)/2)
		for i := range groups {
			if start := m[2*i]; start >= 0 {
				groups[i] = s[start:m[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
