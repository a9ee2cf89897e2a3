package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markTaskItems replaces checkbox inputs with literal "[ ] " / "[x] " markers
// so they survive conversion (the base plugin drops <input> elements).
// Fragments without checkboxes are returned untouched.
func markTaskItems(fragment string) string {
	if !strings.Contains(strings.ToLower(fragment), "checkbox") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	boxes := doc.Find("input[type]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr("type")
		return strings.EqualFold(t, "checkbox")
	})
	if boxes.Length() == 0 {
		return fragment
	}
	boxes.Each(func(_ int, s *goquery.Selection) {
		marker := "[ ] "
		if _, checked := s.Attr("checked"); checked {
			marker = "[x] "
		}
		s.ReplaceWithHtml(marker)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

// stripTags extracts the visible text from an HTML fragment. Returns trimmed
// plain text, or the input unchanged if it cannot be parsed.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
