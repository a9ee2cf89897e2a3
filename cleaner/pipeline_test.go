package cleaner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reader/models"
)

// echoConverter mimics a converter that silently returns its input.
type echoConverter struct{}

func (echoConverter) Convert(html string, _ string) (string, error) { return html, nil }

// fixedConverter returns a canned result.
type fixedConverter struct {
	out string
	err error
}

func (f fixedConverter) Convert(string, string) (string, error) { return f.out, f.err }

func TestToMarkdown_RawEchoFallsBackToText(t *testing.T) {
	cl := NewCleaner(WithConverter(echoConverter{}))
	snap := &models.Snapshot{
		Title:  "T",
		Href:   "https://example.com",
		Text:   "  the plain text  ",
		Parsed: &models.ParsedContent{Content: "<div>irrelevant</div>"},
	}

	assert.Equal(t, "the plain text", cl.ToMarkdown(snap))
}

func TestToMarkdown_ConverterErrorFallsBackToText(t *testing.T) {
	cl := NewCleaner(WithConverter(fixedConverter{err: errors.New("boom")}))
	snap := &models.Snapshot{
		Text:   "fallback",
		Parsed: &models.ParsedContent{Content: "<p>x</p>"},
	}

	assert.Equal(t, "fallback", cl.ToMarkdown(snap))
}

func TestToMarkdown_EmptyContent(t *testing.T) {
	cl := NewCleaner(WithConverter(fixedConverter{out: "should not be used"}))

	assert.Equal(t, "", cl.ToMarkdown(&models.Snapshot{Text: "page text"}))
	assert.Equal(t, "", cl.ToMarkdown(&models.Snapshot{Text: "page text", Parsed: &models.ParsedContent{Title: "x"}}))
}

func TestToMarkdown_ConvertedOutputTrimmed(t *testing.T) {
	cl := NewCleaner(WithConverter(fixedConverter{out: "\n\n# Heading\n\nbody\n\n"}))
	snap := &models.Snapshot{Parsed: &models.ParsedContent{Content: "<h1>Heading</h1>"}}

	assert.Equal(t, "# Heading\n\nbody", cl.ToMarkdown(snap))
}

func TestToMarkdown_PartialMarkupIsKept(t *testing.T) {
	// Only output that both starts with '<' and ends with '>' is treated as raw.
	cl := NewCleaner(WithConverter(fixedConverter{out: "<br> then text"}))
	snap := &models.Snapshot{Text: "fallback", Parsed: &models.ParsedContent{Content: "<p>x</p>"}}

	assert.Equal(t, "<br> then text", cl.ToMarkdown(snap))
}

func TestFormat_TitleChain(t *testing.T) {
	cl := NewCleaner(WithConverter(fixedConverter{out: "body"}))

	tests := []struct {
		name string
		snap *models.Snapshot
		want string
	}{
		{
			name: "parsed title wins",
			snap: &models.Snapshot{Title: "Raw", Parsed: &models.ParsedContent{Title: "  Parsed  ", Content: "<p/>"}},
			want: "Parsed",
		},
		{
			name: "blank parsed title falls back to raw title",
			snap: &models.Snapshot{Title: "  Raw ", Parsed: &models.ParsedContent{Title: " ", Content: "<p/>"}},
			want: "Raw",
		},
		{
			name: "no parsed content",
			snap: &models.Snapshot{Title: "Raw"},
			want: "Raw",
		},
		{
			name: "nothing",
			snap: &models.Snapshot{Title: "\t"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cl.Format(tt.snap).Title)
		})
	}
}

func TestFormat_AssemblesDocument(t *testing.T) {
	cl := NewCleaner(WithConverter(fixedConverter{out: "[  Hello\nWorld  ]  (  https://a.com/x?b= 1  )\n\n\n\nEnd"}))
	snap := &models.Snapshot{
		Title:  "Page",
		Href:   "  https://example.com/page \n",
		Parsed: &models.ParsedContent{Title: "Article", Content: "<p>x</p>"},
	}

	doc := cl.Format(snap)

	assert.Equal(t, &models.Document{
		Title:   "Article",
		URL:     "https://example.com/page",
		Content: "[Hello World](https://a.com/x?b=1)\n\nEnd",
	}, doc)
	// The snapshot is left untouched.
	assert.Equal(t, "  https://example.com/page \n", snap.Href)
}

func TestFormat_FallbackTextIsTidied(t *testing.T) {
	cl := NewCleaner(WithConverter(echoConverter{}))
	snap := &models.Snapshot{
		Title:  "T",
		Text:   "  line one\n\n\n\n   line two  ",
		Parsed: &models.ParsedContent{Content: "<div>irrelevant</div>"},
	}

	assert.Equal(t, "line one\n\nline two", cl.Format(snap).Content)
}

func TestGFMConverter(t *testing.T) {
	conv := NewGFMConverter()

	t.Run("strikethrough", func(t *testing.T) {
		md, err := conv.Convert("<p>was <del>old</del> now</p>", "https://example.com")
		require.NoError(t, err)
		assert.Contains(t, md, "~~old~~")
	})

	t.Run("table", func(t *testing.T) {
		md, err := conv.Convert(
			"<table><thead><tr><th>A</th><th>B</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table>",
			"https://example.com",
		)
		require.NoError(t, err)
		assert.Contains(t, md, "| 1 | 2 |")
	})

	t.Run("task list", func(t *testing.T) {
		md, err := conv.Convert(
			`<ul><li><input type="checkbox" checked>done</li><li><input type="checkbox">todo</li></ul>`,
			"https://example.com",
		)
		require.NoError(t, err)
		assert.Contains(t, md, "- [x] done")
		assert.Contains(t, md, "- [ ] todo")
	})

	t.Run("relative links resolved", func(t *testing.T) {
		md, err := conv.Convert(`<p><a href="/docs">Docs</a></p>`, "https://example.com")
		require.NoError(t, err)
		assert.Contains(t, md, "(https://example.com/docs)")
	})

	t.Run("script dropped", func(t *testing.T) {
		md, err := conv.Convert(`<p>keep</p><script>alert(1)</script>`, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "keep", strings.TrimSpace(md))
	})
}

func TestMarkTaskItems(t *testing.T) {
	assert.Equal(t, "<p>no boxes</p>", markTaskItems("<p>no boxes</p>"))

	out := markTaskItems(`<ul><li><input type="CHECKBOX" checked="">a</li><li><input type="checkbox">b</li></ul>`)
	assert.Contains(t, out, "<li>[x] a</li>")
	assert.Contains(t, out, "<li>[ ] b</li>")
	assert.NotContains(t, out, "<input")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("123456789"))
}
