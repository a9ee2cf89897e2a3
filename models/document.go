package models

import "strings"

// Document is the final output of one pipeline run.
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// String renders the canonical text form:
//
//	Title: <title>
//
//	URL Source: <url>
//
//	Markdown Content:
//	<content>
func (d *Document) String() string {
	var b strings.Builder
	b.Grow(len(d.Title) + len(d.URL) + len(d.Content) + 48)
	b.WriteString("Title: ")
	b.WriteString(d.Title)
	b.WriteString("\n\nURL Source: ")
	b.WriteString(d.URL)
	b.WriteString("\n\nMarkdown Content:\n")
	b.WriteString(d.Content)
	b.WriteByte('\n')
	return b.String()
}
