package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reader/models"
)

func TestWriteDocument(t *testing.T) {
	doc := &models.Document{Title: "Example", URL: "https://example.com", Content: "# Hello"}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDocument(&buf, doc, "text", time.Second))
		assert.Equal(t, doc.String(), buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDocument(&buf, doc, "json", 1500*time.Millisecond))

		var resp models.CrawlResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, doc, resp.Data)
		assert.Positive(t, resp.Tokens)
		assert.Equal(t, int64(1500), resp.Timing.TotalMs)
	})
}
