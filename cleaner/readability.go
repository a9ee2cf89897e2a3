package cleaner

import (
	"fmt"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/reader/models"
)

// ParseArticle runs the Mozilla Readability algorithm on rawHTML and returns
// the main-content extraction of the page.
//
// It returns (nil, nil) when readability succeeds but finds no content, so
// callers can leave Snapshot.Parsed empty without treating it as a failure.
func ParseArticle(rawHTML string, pageURL string) (*models.ParsedContent, error) {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: parse page url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	if strings.TrimSpace(article.Content) == "" {
		return nil, nil
	}

	text := article.TextContent
	if strings.TrimSpace(text) == "" {
		text = stripTags(article.Content)
	}

	return &models.ParsedContent{
		Title:       article.Title,
		Content:     article.Content,
		TextContent: text,
		Byline:      article.Byline,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		Language:    article.Language,
	}, nil
}
