// Command reader-mcp exposes the reader HTTP API as an MCP tool over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("READER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the server may run with auth disabled.
	apiKey := os.Getenv("READER_API_KEY")

	s := server.NewMCPServer(
		"reader",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	readURLTool := mcp.NewTool("read_url",
		mcp.WithDescription("Read a web page and return its main content as clean Markdown, with title and source URL. Tries a plain HTTP fetch first and falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to read. A missing scheme defaults to http."),
		),
		mcp.WithString("target_selector",
			mcp.Description("CSS selector limiting extraction to matching elements, e.g. 'article' or '#content'"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot evasions in the browser (default: false)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Deadline in seconds (default: 30, max: 120)"),
		),
	)
	s.AddTool(readURLTool, handleReadURL(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
